package domain

import "github.com/shopspring/decimal"

// Stage labels a provider call with the protocol step that issued it.
type Stage string

const (
	StageRespond   Stage = "respond"
	StageVote      Stage = "vote"
	StageTieBreak  Stage = "tiebreak"
	StageDecision  Stage = "decision"
	StageOpinion   Stage = "opinion"
	StageRefine    Stage = "refine"
	StageSynthesis Stage = "synthesis"
)

type CompletionRequest struct {
	Caller       string
	Stage        Stage
	Model        string
	SystemPrompt string
	UserContent  string
	Temperature  float64
	MaxTokens    int
}

type Completion struct {
	Text  string
	Usage Usage
}

type Usage struct {
	PromptTokens     int
	CompletionTokens int
	Cost             decimal.Decimal
}

func (u Usage) Add(o Usage) Usage {
	return Usage{
		PromptTokens:     u.PromptTokens + o.PromptTokens,
		CompletionTokens: u.CompletionTokens + o.CompletionTokens,
		Cost:             u.Cost.Add(o.Cost),
	}
}
