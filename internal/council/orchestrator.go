package council

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/set-night/primeminister/internal/config"
	"github.com/set-night/primeminister/internal/domain"
)

// Auditor accepts closed session records for persistence. The returned
// channel yields the outcome of the append once it settles.
type Auditor interface {
	Submit(ctx context.Context, rec *domain.Record) <-chan error
}

// Orchestrator drives one council over many sessions. It holds no
// per-session state, so concurrent Run calls are safe.
type Orchestrator struct {
	council     *domain.Council
	provider    Provider
	audit       Auditor
	ids         IDFabric
	shuffle     Shuffler
	now         func() time.Time
	maxParallel int
}

type Option func(*Orchestrator)

func WithAuditor(a Auditor) Option          { return func(o *Orchestrator) { o.audit = a } }
func WithIDs(ids IDFabric) Option           { return func(o *Orchestrator) { o.ids = ids } }
func WithShuffler(s Shuffler) Option        { return func(o *Orchestrator) { o.shuffle = s } }
func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// WithMaxParallel caps in-flight calls per round; zero means unlimited.
func WithMaxParallel(n int) Option { return func(o *Orchestrator) { o.maxParallel = n } }

func New(c *domain.Council, provider Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		council:  c,
		provider: provider,
		ids:      RandomIDs{},
		shuffle:  rand.Shuffle,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Council() *domain.Council { return o.council }

// Result is a closed session. Logged yields the audit append outcome and is
// closed afterwards; callers may ignore it.
type Result struct {
	Session *domain.Session
	Record  *domain.Record
	Logged  <-chan error
}

// Run processes one question. An empty mode uses the council's configured
// mode. Configuration errors are returned before any provider call. Fatal
// errors after the session started still return the partial Result.
func (o *Orchestrator) Run(ctx context.Context, question string, mode domain.Mode) (*Result, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}
	if mode == "" {
		mode = o.council.Mode
	}
	if err := o.validate(mode); err != nil {
		return nil, err
	}

	s := &domain.Session{
		ID:         o.ids.New(),
		QuestionID: o.ids.New(),
		Mode:       mode,
		Question:   question,
		CreatedAt:  o.now(),
	}
	slog.Info("processing new request", "session", s.ID, "mode", mode, "question", truncate(question, 100))

	var err error
	switch mode {
	case domain.ModeAdvisor:
		err = o.runAdvisor(ctx, s)
	default:
		err = o.runCouncil(ctx, s)
	}
	if err == nil {
		err = o.conclude(ctx, s)
	}
	s.Err = err

	rec := BuildRecord(o.council, s, o.now())
	res := &Result{Session: s, Record: rec, Logged: o.submit(ctx, rec)}

	if err != nil {
		slog.Error("error processing request", "session", s.ID, "error", err)
		return res, err
	}
	slog.Info("request processing completed", "session", s.ID, "tie_broken_by_pm", s.TieBrokenByPM())
	return res, nil
}

func (o *Orchestrator) validate(mode domain.Mode) error {
	if _, err := domain.ParseMode(string(mode)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrConfiguration, err)
	}
	if len(o.council.Responders()) == 0 {
		return fmt.Errorf("%w: no responding members configured", domain.ErrConfiguration)
	}
	if mode == domain.ModeCouncil && len(o.council.Voters()) == 0 {
		return fmt.Errorf("%w: council mode needs at least one voting member", domain.ErrConfiguration)
	}
	return nil
}

// conclude is the single Prime Minister call that closes every session.
func (o *Orchestrator) conclude(ctx context.Context, s *domain.Session) error {
	req := domain.CompletionRequest{
		Caller:      primeMinisterName,
		Model:       o.council.Model,
		Temperature: o.council.Temperature,
	}
	if s.Mode == domain.ModeAdvisor {
		req.Stage = domain.StageSynthesis
		req.SystemPrompt = o.council.AdvisorPrompt
		req.UserContent = synthesisPrompt(s.Question, s)
		req.MaxTokens = config.MaxTokensSynthesis
	} else {
		req.Stage = domain.StageDecision
		req.SystemPrompt = o.council.DecisionPrompt
		req.UserContent = decisionPrompt(s.Question, s)
		req.MaxTokens = config.MaxTokensDecision
	}

	out := o.invoke(ctx, req)
	s.Usage = s.Usage.Add(out.usage)
	if out.err != nil {
		return fmt.Errorf("%w: %w", domain.ErrSynthesis, out.err)
	}

	s.Final = &domain.FinalResult{
		ID:            o.ids.New(),
		Text:          out.text,
		TieBrokenByPM: s.TieBrokenByPM(),
		Timestamp:     o.now(),
	}
	return nil
}

func (o *Orchestrator) submit(ctx context.Context, rec *domain.Record) <-chan error {
	if o.audit == nil {
		ch := make(chan error)
		close(ch)
		return ch
	}
	return o.audit.Submit(ctx, rec)
}

// ErrorType names the failure class of err for the audit record.
func ErrorType(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrConfiguration):
		return "ConfigurationError"
	case errors.Is(err, domain.ErrSynthesis):
		return "SynthesisError"
	case errors.Is(err, domain.ErrNoResponses):
		return "NoResponsesError"
	case errors.Is(err, domain.ErrProvider):
		return "ProviderError"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "CancelledError"
	default:
		return "Error"
	}
}
