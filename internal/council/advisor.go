package council

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/set-night/primeminister/internal/config"
	"github.com/set-night/primeminister/internal/domain"
)

// runAdvisor runs answers, peer review and refinement. Each round starts
// only after every call of the previous one has settled.
func (o *Orchestrator) runAdvisor(ctx context.Context, s *domain.Session) error {
	o.respond(ctx, s)

	advisors := s.Successful()
	if len(advisors) == 0 {
		return domain.ErrNoResponses
	}

	o.review(ctx, s, advisors)
	o.refine(ctx, s, advisors)

	slog.Info("opinion rounds completed",
		"session", s.ID,
		"opinions", len(s.Opinions),
		"refined", len(s.Refined),
	)
	return nil
}

// review asks every successful advisor for an opinion on every other
// successful advisor's response: N*(N-1) calls.
func (o *Orchestrator) review(ctx context.Context, s *domain.Session, advisors []domain.Response) {
	type pair struct {
		reviewer domain.Member
		target   domain.Response
	}
	var pairs []pair
	for _, own := range advisors {
		reviewer, ok := o.council.Member(own.Author)
		if !ok {
			continue
		}
		for _, target := range advisors {
			if target.Author == reviewer.Name {
				continue
			}
			pairs = append(pairs, pair{reviewer: reviewer, target: target})
		}
	}

	reqs := make([]domain.CompletionRequest, len(pairs))
	for i, p := range pairs {
		reqs[i] = domain.CompletionRequest{
			Caller:       p.reviewer.Name,
			Stage:        domain.StageOpinion,
			Model:        p.reviewer.Model,
			SystemPrompt: memberSystemPrompt(o.council, p.reviewer),
			UserContent:  opinionPrompt(s.Question, p.reviewer, p.target),
			Temperature:  o.council.Temperature,
			MaxTokens:    config.MaxTokensOpinion,
		}
	}

	outcomes := o.fanOut(ctx, reqs)

	s.Opinions = make([]domain.Opinion, len(pairs))
	for i, p := range pairs {
		out := outcomes[i]
		s.Usage = s.Usage.Add(out.usage)
		s.Opinions[i] = domain.Opinion{
			ID:               o.ids.New(),
			Reviewer:         p.reviewer.Name,
			ReviewerModel:    p.reviewer.Model,
			TargetResponseID: p.target.ID,
			TargetAuthor:     p.target.Author,
			Text:             out.text,
			HasError:         out.err != nil,
		}
	}
}

// refine gives every successful advisor its own response plus the
// successful opinions directed at it.
func (o *Orchestrator) refine(ctx context.Context, s *domain.Session, advisors []domain.Response) {
	type job struct {
		author   domain.Member
		original domain.Response
		opinions []domain.Opinion
	}
	var jobs []job
	for _, r := range advisors {
		author, ok := o.council.Member(r.Author)
		if !ok {
			continue
		}
		jobs = append(jobs, job{author: author, original: r, opinions: opinionsOn(s.Opinions, r.ID)})
	}

	reqs := make([]domain.CompletionRequest, len(jobs))
	for i, j := range jobs {
		reqs[i] = domain.CompletionRequest{
			Caller:       j.author.Name,
			Stage:        domain.StageRefine,
			Model:        j.author.Model,
			SystemPrompt: memberSystemPrompt(o.council, j.author),
			UserContent:  refinePrompt(s.Question, j.author, j.original, j.opinions),
			Temperature:  o.council.Temperature,
			MaxTokens:    config.MaxTokensRefine,
		}
	}

	outcomes := o.fanOut(ctx, reqs)

	s.Refined = make([]domain.RefinedResponse, len(jobs))
	for i, j := range jobs {
		out := outcomes[i]
		s.Usage = s.Usage.Add(out.usage)
		considered := make([]uuid.UUID, len(j.opinions))
		for k, op := range j.opinions {
			considered[k] = op.ID
		}
		s.Refined[i] = domain.RefinedResponse{
			ID:                 o.ids.New(),
			Author:             j.author.Name,
			Model:              j.author.Model,
			OriginalResponseID: j.original.ID,
			Text:               out.text,
			OpinionsConsidered: considered,
			HasError:           out.err != nil,
		}
	}
}

func opinionsOn(opinions []domain.Opinion, target uuid.UUID) []domain.Opinion {
	var out []domain.Opinion
	for _, op := range opinions {
		if op.TargetResponseID == target && !op.HasError {
			out = append(out, op)
		}
	}
	return out
}
