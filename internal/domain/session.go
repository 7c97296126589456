package domain

import (
	"time"

	"github.com/google/uuid"
)

type Response struct {
	ID       uuid.UUID
	Author   string
	Model    string
	Text     string
	HasError bool
	Err      error
}

type Vote struct {
	ID               uuid.UUID
	Voter            string
	ChosenResponseID uuid.UUID
	Reasoning        string
}

type Opinion struct {
	ID               uuid.UUID
	Reviewer         string
	ReviewerModel    string
	TargetResponseID uuid.UUID
	TargetAuthor     string
	Text             string
	HasError         bool
}

type RefinedResponse struct {
	ID                 uuid.UUID
	Author             string
	Model              string
	OriginalResponseID uuid.UUID
	Text               string
	OpinionsConsidered []uuid.UUID
	HasError           bool
}

// TieBreak records how a shared maximum tally was resolved.
type TieBreak struct {
	Candidates     []uuid.UUID
	Chosen         uuid.UUID
	Reasoning      string
	Fallback       bool
	FallbackReason string
}

type FinalResult struct {
	ID            uuid.UUID
	Text          string
	TieBrokenByPM bool
	Timestamp     time.Time
}

// Session is the working state of one question. It is only mutated by the
// orchestrating goroutine, between round barriers.
type Session struct {
	ID         uuid.UUID
	QuestionID uuid.UUID
	Mode       Mode
	Question   string
	CreatedAt  time.Time

	Responses []Response

	// Council mode.
	Ballot         []uuid.UUID
	Votes          []Vote
	MalformedVotes int
	FailedVotes    int
	Tally          map[uuid.UUID]int
	Winner         *uuid.UUID
	TieBreak       *TieBreak

	// Advisor mode.
	Opinions []Opinion
	Refined  []RefinedResponse

	Final *FinalResult
	Usage Usage
	Err   error
}

// Response returns the response with the given id.
func (s *Session) Response(id uuid.UUID) (Response, bool) {
	for _, r := range s.Responses {
		if r.ID == id {
			return r, true
		}
	}
	return Response{}, false
}

// Successful returns the responses without errors, in round order.
func (s *Session) Successful() []Response {
	var out []Response
	for _, r := range s.Responses {
		if !r.HasError {
			out = append(out, r)
		}
	}
	return out
}

func (s *Session) TieBrokenByPM() bool {
	return s.TieBreak != nil
}
