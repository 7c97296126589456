package council

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/set-night/primeminister/internal/domain"
	"github.com/shopspring/decimal"
)

var errBoom = errors.New("boom")

// fakeProvider answers every call through reply and records what it saw.
type fakeProvider struct {
	mu    sync.Mutex
	calls []domain.CompletionRequest
	reply func(req domain.CompletionRequest) (string, error)
}

func (f *fakeProvider) Complete(_ context.Context, req domain.CompletionRequest) (*domain.Completion, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	reply := f.reply
	if reply == nil {
		reply = defaultReply
	}
	text, err := reply(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrProvider, err)
	}
	return &domain.Completion{
		Text: text,
		Usage: domain.Usage{
			PromptTokens:     10,
			CompletionTokens: 5,
			Cost:             decimal.RequireFromString("0.001"),
		},
	}, nil
}

func (f *fakeProvider) stageCalls(stage domain.Stage) []domain.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.CompletionRequest
	for _, c := range f.calls {
		if c.Stage == stage {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeProvider) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func defaultReply(req domain.CompletionRequest) (string, error) {
	switch req.Stage {
	case domain.StageRespond:
		return "answer from " + req.Caller, nil
	case domain.StageVote, domain.StageTieBreak:
		return "1 - it is the best", nil
	case domain.StageOpinion:
		return "opinion by " + req.Caller, nil
	case domain.StageRefine:
		return "refined by " + req.Caller, nil
	default:
		return "the prime minister decides", nil
	}
}

// fakeAuditor keeps submitted records and returns err for each of them.
type fakeAuditor struct {
	mu      sync.Mutex
	records []*domain.Record
	err     error
}

func (a *fakeAuditor) Submit(_ context.Context, rec *domain.Record) <-chan error {
	a.mu.Lock()
	a.records = append(a.records, rec)
	a.mu.Unlock()
	ch := make(chan error, 1)
	if a.err != nil {
		ch <- a.err
	}
	close(ch)
	return ch
}

func testCouncil(names ...string) *domain.Council {
	c := &domain.Council{
		Mode:           domain.ModeCouncil,
		Model:          "pm-model",
		Temperature:    0.5,
		DecisionPrompt: "decide",
		AdvisorPrompt:  "synthesize",
	}
	for _, n := range names {
		c.Members = append(c.Members, domain.Member{
			Name:        n,
			Model:       "model-" + n,
			Personality: n + " - a thoughtful member",
			Voter:       true,
		})
	}
	return c
}

func newTestOrchestrator(c *domain.Council, p Provider, opts ...Option) *Orchestrator {
	return New(c, p, append([]Option{WithShuffler(NoShuffle)}, opts...)...)
}

// votes maps each voter to the option it picks, keeping every other stage
// on the defaults.
func votes(choices map[string]string, fallthroughReply func(domain.CompletionRequest) (string, error)) func(domain.CompletionRequest) (string, error) {
	return func(req domain.CompletionRequest) (string, error) {
		if req.Stage == domain.StageVote {
			if choice, ok := choices[req.Caller]; ok {
				return choice, nil
			}
		}
		if fallthroughReply != nil {
			return fallthroughReply(req)
		}
		return defaultReply(req)
	}
}
