package council

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/set-night/primeminister/internal/config"
	"github.com/set-night/primeminister/internal/domain"
)

// respond is round one in both modes: every responder answers the question.
func (o *Orchestrator) respond(ctx context.Context, s *domain.Session) {
	responders := o.council.Responders()
	reqs := make([]domain.CompletionRequest, len(responders))
	for i, m := range responders {
		reqs[i] = domain.CompletionRequest{
			Caller:       m.Name,
			Stage:        domain.StageRespond,
			Model:        m.Model,
			SystemPrompt: memberSystemPrompt(o.council, m),
			UserContent:  respondPrompt(o.council, s.Question),
			Temperature:  o.council.Temperature,
			MaxTokens:    config.MaxTokensRespond,
		}
	}

	outcomes := o.fanOut(ctx, reqs)

	s.Responses = make([]domain.Response, len(responders))
	failed := 0
	for i, m := range responders {
		out := outcomes[i]
		s.Usage = s.Usage.Add(out.usage)
		s.Responses[i] = domain.Response{
			ID:       o.ids.New(),
			Author:   m.Name,
			Model:    m.Model,
			Text:     out.text,
			HasError: out.err != nil,
			Err:      out.err,
		}
		if out.err != nil {
			failed++
		}
	}
	if failed > 0 {
		slog.Warn("some council members failed, continuing with available responses",
			"session", s.ID, "failed", failed, "total", len(responders))
	}
}

// runCouncil answers, votes blindly, tallies and breaks ties.
func (o *Orchestrator) runCouncil(ctx context.Context, s *domain.Session) error {
	o.respond(ctx, s)

	ballot := Anonymize(s.Responses, o.shuffle)
	if ballot.Len() == 0 {
		return domain.ErrNoResponses
	}
	s.Ballot = ballot.IDs()

	o.vote(ctx, s, ballot)
	s.Tally = tally(s.Votes)

	leaders := leaders(s.Tally, ballot)
	switch len(leaders) {
	case 0:
		slog.Warn("no valid votes cast", "session", s.ID)
	case 1:
		winner := leaders[0]
		s.Winner = &winner
	default:
		o.breakTie(ctx, s, NewBallot(leaders))
	}
	return nil
}

func (o *Orchestrator) vote(ctx context.Context, s *domain.Session, ballot Ballot) {
	voters := o.council.Voters()
	reqs := make([]domain.CompletionRequest, len(voters))
	for i, m := range voters {
		reqs[i] = domain.CompletionRequest{
			Caller:       m.Name,
			Stage:        domain.StageVote,
			Model:        m.Model,
			SystemPrompt: memberSystemPrompt(o.council, m),
			UserContent:  votePrompt(o.council, m, s.Question, s, ballot),
			Temperature:  o.council.Temperature,
			MaxTokens:    config.MaxTokensVote,
		}
	}

	outcomes := o.fanOut(ctx, reqs)

	for i, m := range voters {
		out := outcomes[i]
		s.Usage = s.Usage.Add(out.usage)
		if out.err != nil {
			s.FailedVotes++
			continue
		}
		chosen, reasoning, err := ballot.Choose(out.text)
		if err != nil {
			s.MalformedVotes++
			slog.Warn("malformed vote discarded", "session", s.ID, "voter", m.Name, "error", err)
			continue
		}
		s.Votes = append(s.Votes, domain.Vote{
			ID:               o.ids.New(),
			Voter:            m.Name,
			ChosenResponseID: chosen,
			Reasoning:        reasoning,
		})
	}
	slog.Info("voting completed",
		"session", s.ID,
		"valid", len(s.Votes),
		"malformed", s.MalformedVotes,
		"failed", s.FailedVotes,
	)
}

func tally(votes []domain.Vote) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int)
	for _, v := range votes {
		counts[v.ChosenResponseID]++
	}
	return counts
}

// leaders returns the ids sharing the highest non-zero count, in ballot order.
func leaders(counts map[uuid.UUID]int, ballot Ballot) []uuid.UUID {
	best := 0
	for _, n := range counts {
		best = max(best, n)
	}
	if best == 0 {
		return nil
	}
	var out []uuid.UUID
	for _, id := range ballot.ids {
		if counts[id] == best {
			out = append(out, id)
		}
	}
	return out
}

// breakTie asks the Prime Minister to pick among the tied responses. Any
// failure falls back to the first tied response in ballot order.
func (o *Orchestrator) breakTie(ctx context.Context, s *domain.Session, tied Ballot) {
	slog.Info("tie detected, prime minister casting deciding vote", "session", s.ID, "tied", tied.Len())

	out := o.invoke(ctx, domain.CompletionRequest{
		Caller:       primeMinisterName,
		Stage:        domain.StageTieBreak,
		Model:        o.council.Model,
		SystemPrompt: tieBreakSystemPrompt,
		UserContent:  tieBreakPrompt(s.Question, s, tied),
		Temperature:  o.council.Temperature,
		MaxTokens:    config.MaxTokensTieBreak,
	})
	s.Usage = s.Usage.Add(out.usage)

	tb := &domain.TieBreak{Candidates: tied.IDs()}
	err := out.err
	if err == nil {
		tb.Chosen, tb.Reasoning, err = tied.Choose(out.text)
	}
	if err != nil {
		tb.Chosen = tied.ids[0]
		tb.Fallback = true
		tb.FallbackReason = err.Error()
		slog.Warn("tie-break fell back to first tied response", "session", s.ID, "error", err)
	}

	s.TieBreak = tb
	winner := tb.Chosen
	s.Winner = &winner
}
