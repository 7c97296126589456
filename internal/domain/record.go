package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record is the canonical, externally visible shape of a closed session. It
// is what callers receive and what the audit log persists.
type Record struct {
	Prompt           string              `json:"prompt"`
	FinalResult      string              `json:"final_result"`
	SessionUUID      uuid.UUID           `json:"session_uuid"`
	QuestionUUID     uuid.UUID           `json:"question_uuid"`
	ResultUUID       *uuid.UUID          `json:"result_uuid"`
	Mode             Mode                `json:"mode"`
	CouncilResponses []ResponseRecord    `json:"council_responses"`
	Votes            map[string][]string `json:"votes"`
	DetailedVotes    []VoteRecord        `json:"detailed_votes"`
	Metadata         Metadata            `json:"metadata"`

	// Advisor mode only; nil pointers keep the keys out of council records.
	FirstRoundOpinions   *[]OpinionRecord `json:"first_round_opinions,omitempty"`
	SecondRoundResponses *[]RefinedRecord `json:"second_round_responses,omitempty"`
}

type ResponseRecord struct {
	UUID          uuid.UUID `json:"uuid"`
	CouncilMember string    `json:"council_member"`
	Personality   string    `json:"personality"`
	Model         string    `json:"model"`
	Response      string    `json:"response"`
	IsVoter       bool      `json:"is_voter"`
	IsSilent      bool      `json:"is_silent"`
	HasError      bool      `json:"has_error"`
	Error         string    `json:"error,omitempty"`
}

type VoteRecord struct {
	VoteUUID             uuid.UUID `json:"vote_uuid"`
	Voter                string    `json:"voter"`
	ChosenResponseMember string    `json:"chosen_response_member"`
	ChosenResponseUUID   uuid.UUID `json:"chosen_response_uuid"`
	Reasoning            string    `json:"reasoning"`
}

type OpinionRecord struct {
	UUID               uuid.UUID `json:"uuid"`
	OpinionGiver       string    `json:"opinion_giver"`
	OpinionGiverModel  string    `json:"opinion_giver_model"`
	TargetResponseUUID uuid.UUID `json:"target_response_uuid"`
	TargetAdvisor      string    `json:"target_advisor"`
	Opinion            string    `json:"opinion"`
	HasError           bool      `json:"has_error"`
}

type RefinedRecord struct {
	UUID                 uuid.UUID   `json:"uuid"`
	CouncilMember        string      `json:"council_member"`
	Model                string      `json:"model"`
	OriginalResponseUUID uuid.UUID   `json:"original_response_uuid"`
	ResponseToOpinions   string      `json:"response_to_opinions"`
	OpinionsConsidered   []uuid.UUID `json:"opinions_considered"`
	HasError             bool        `json:"has_error"`
}

type TieBreakRecord struct {
	CandidateUUIDs []uuid.UUID `json:"candidate_uuids"`
	ChosenUUID     uuid.UUID   `json:"chosen_uuid"`
	Reasoning      string      `json:"reasoning,omitempty"`
}

type UsageRecord struct {
	PromptTokens     int             `json:"prompt_tokens"`
	CompletionTokens int             `json:"completion_tokens"`
	TotalCost        decimal.Decimal `json:"total_cost"`
}

type Metadata struct {
	TotalCouncilMembers int         `json:"total_council_members"`
	RespondingMembers   int         `json:"responding_members"`
	VotingMembers       int         `json:"voting_members"`
	TotalVotesCast      int         `json:"total_votes_cast"`
	TieBrokenByPM       bool        `json:"tie_broken_by_pm"`
	ResponseUUIDs       []uuid.UUID `json:"response_uuids"`
	Timestamp           time.Time   `json:"timestamp"`

	WinnerResponseUUID     *uuid.UUID      `json:"winner_response_uuid,omitempty"`
	TieBreak               *TieBreakRecord `json:"tie_break,omitempty"`
	TieBreakFallback       bool            `json:"tie_break_fallback,omitempty"`
	TieBreakFallbackReason string          `json:"tie_break_fallback_reason,omitempty"`
	MalformedVotes         int             `json:"malformed_votes"`
	FailedVotes            int             `json:"failed_votes"`
	Usage                  UsageRecord     `json:"usage"`

	FailedSession bool   `json:"failed_session,omitempty"`
	Error         string `json:"error,omitempty"`
	ErrorType     string `json:"error_type,omitempty"`

	*AdvisorStats
}

type AdvisorStats struct {
	OpinionRoundsConducted    int         `json:"opinion_rounds_conducted"`
	FirstRoundOpinionsCount   int         `json:"first_round_opinions_count"`
	SecondRoundResponsesCount int         `json:"second_round_responses_count"`
	OpinionUUIDs              []uuid.UUID `json:"opinion_uuids"`
	SecondRoundUUIDs          []uuid.UUID `json:"second_round_uuids"`
}

// Failed reports whether the session aborted before producing a result.
func (r *Record) Failed() bool {
	return r.Metadata.FailedSession
}

// Opinions returns the advisor-mode opinions, or nil in council mode.
func (r *Record) Opinions() []OpinionRecord {
	if r.FirstRoundOpinions == nil {
		return nil
	}
	return *r.FirstRoundOpinions
}

// Refinements returns the advisor-mode refined responses, or nil.
func (r *Record) Refinements() []RefinedRecord {
	if r.SecondRoundResponses == nil {
		return nil
	}
	return *r.SecondRoundResponses
}
