package council

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/set-night/primeminister/internal/domain"
	"golang.org/x/sync/errgroup"
)

// Provider is the text-generation collaborator.
type Provider interface {
	Complete(ctx context.Context, req domain.CompletionRequest) (*domain.Completion, error)
}

type outcome struct {
	text  string
	usage domain.Usage
	err   error
}

// invoke issues one prompt and captures its failure instead of returning it.
func (o *Orchestrator) invoke(ctx context.Context, req domain.CompletionRequest) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered in provider call",
				"caller", req.Caller,
				"stage", req.Stage,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			out = outcome{err: fmt.Errorf("%w: provider panic: %v", domain.ErrProvider, r)}
		}
	}()

	c, err := o.provider.Complete(ctx, req)
	if err != nil {
		slog.Warn("member call failed", "caller", req.Caller, "stage", req.Stage, "model", req.Model, "error", err)
		return outcome{err: err}
	}
	return outcome{text: c.Text, usage: c.Usage}
}

// fanOut runs every request concurrently and waits for all of them to
// settle. Outcomes come back in request order; a failed call never cancels
// its siblings.
func (o *Orchestrator) fanOut(ctx context.Context, reqs []domain.CompletionRequest) []outcome {
	outcomes := make([]outcome, len(reqs))
	var g errgroup.Group
	if o.maxParallel > 0 {
		g.SetLimit(o.maxParallel)
	}
	for i, req := range reqs {
		g.Go(func() error {
			outcomes[i] = o.invoke(ctx, req)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}
