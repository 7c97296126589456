package council

import (
	"time"

	"github.com/google/uuid"
	"github.com/set-night/primeminister/internal/domain"
)

// BuildRecord projects a closed session into its canonical record shape.
func BuildRecord(c *domain.Council, s *domain.Session, now time.Time) *domain.Record {
	rec := &domain.Record{
		Prompt:           s.Question,
		SessionUUID:      s.ID,
		QuestionUUID:     s.QuestionID,
		Mode:             s.Mode,
		CouncilResponses: make([]domain.ResponseRecord, 0, len(s.Responses)),
		Votes:            make(map[string][]string),
		DetailedVotes:    make([]domain.VoteRecord, 0, len(s.Votes)),
	}

	for _, r := range s.Responses {
		m, _ := c.Member(r.Author)
		rr := domain.ResponseRecord{
			UUID:          r.ID,
			CouncilMember: r.Author,
			Personality:   m.Personality,
			Model:         r.Model,
			Response:      r.Text,
			IsVoter:       m.Voter,
			IsSilent:      m.Silent,
			HasError:      r.HasError,
		}
		if r.Err != nil {
			rr.Error = r.Err.Error()
		}
		rec.CouncilResponses = append(rec.CouncilResponses, rr)
	}

	for _, v := range s.Votes {
		chosen, _ := s.Response(v.ChosenResponseID)
		rec.Votes[chosen.Author] = append(rec.Votes[chosen.Author], v.Voter)
		rec.DetailedVotes = append(rec.DetailedVotes, domain.VoteRecord{
			VoteUUID:             v.ID,
			Voter:                v.Voter,
			ChosenResponseMember: chosen.Author,
			ChosenResponseUUID:   v.ChosenResponseID,
			Reasoning:            v.Reasoning,
		})
	}

	rec.Metadata = metadata(c, s, now)

	if s.Mode == domain.ModeAdvisor {
		opinions := make([]domain.OpinionRecord, 0, len(s.Opinions))
		for _, op := range s.Opinions {
			opinions = append(opinions, domain.OpinionRecord{
				UUID:               op.ID,
				OpinionGiver:       op.Reviewer,
				OpinionGiverModel:  op.ReviewerModel,
				TargetResponseUUID: op.TargetResponseID,
				TargetAdvisor:      op.TargetAuthor,
				Opinion:            op.Text,
				HasError:           op.HasError,
			})
		}
		refined := make([]domain.RefinedRecord, 0, len(s.Refined))
		for _, r := range s.Refined {
			refined = append(refined, domain.RefinedRecord{
				UUID:                 r.ID,
				CouncilMember:        r.Author,
				Model:                r.Model,
				OriginalResponseUUID: r.OriginalResponseID,
				ResponseToOpinions:   r.Text,
				OpinionsConsidered:   r.OpinionsConsidered,
				HasError:             r.HasError,
			})
		}
		rec.FirstRoundOpinions = &opinions
		rec.SecondRoundResponses = &refined
	}

	switch {
	case s.Final != nil:
		id := s.Final.ID
		rec.ResultUUID = &id
		rec.FinalResult = s.Final.Text
	case s.Err != nil:
		rec.FinalResult = "ERROR: " + s.Err.Error()
	}
	return rec
}

func metadata(c *domain.Council, s *domain.Session, now time.Time) domain.Metadata {
	md := domain.Metadata{
		TotalCouncilMembers: len(c.Members),
		RespondingMembers:   len(s.Responses),
		TotalVotesCast:      len(s.Votes),
		TieBrokenByPM:       s.TieBrokenByPM(),
		ResponseUUIDs:       make([]uuid.UUID, 0, len(s.Responses)),
		Timestamp:           now,
		MalformedVotes:      s.MalformedVotes,
		FailedVotes:         s.FailedVotes,
		Usage: domain.UsageRecord{
			PromptTokens:     s.Usage.PromptTokens,
			CompletionTokens: s.Usage.CompletionTokens,
			TotalCost:        s.Usage.Cost,
		},
	}
	if s.Final != nil {
		md.Timestamp = s.Final.Timestamp
	}
	for _, r := range s.Responses {
		md.ResponseUUIDs = append(md.ResponseUUIDs, r.ID)
	}
	if s.Mode == domain.ModeCouncil {
		md.VotingMembers = len(c.Voters())
	}
	if s.Winner != nil {
		w := *s.Winner
		md.WinnerResponseUUID = &w
	}
	if tb := s.TieBreak; tb != nil {
		md.TieBreak = &domain.TieBreakRecord{
			CandidateUUIDs: tb.Candidates,
			ChosenUUID:     tb.Chosen,
			Reasoning:      tb.Reasoning,
		}
		md.TieBreakFallback = tb.Fallback
		md.TieBreakFallbackReason = tb.FallbackReason
	}
	if s.Err != nil {
		md.FailedSession = true
		md.Error = s.Err.Error()
		md.ErrorType = ErrorType(s.Err)
	}

	if s.Mode == domain.ModeAdvisor {
		stats := &domain.AdvisorStats{
			OpinionRoundsConducted:    2,
			FirstRoundOpinionsCount:   len(s.Opinions),
			SecondRoundResponsesCount: len(s.Refined),
			OpinionUUIDs:              make([]uuid.UUID, 0, len(s.Opinions)),
			SecondRoundUUIDs:          make([]uuid.UUID, 0, len(s.Refined)),
		}
		for _, op := range s.Opinions {
			stats.OpinionUUIDs = append(stats.OpinionUUIDs, op.ID)
		}
		for _, r := range s.Refined {
			stats.SecondRoundUUIDs = append(stats.SecondRoundUUIDs, r.ID)
		}
		md.AdvisorStats = stats
	}
	return md
}
