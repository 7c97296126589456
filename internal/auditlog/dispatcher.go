package auditlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/set-night/primeminister/internal/config"
	"github.com/set-night/primeminister/internal/domain"
)

var errDispatcherClosed = errors.New("audit dispatcher closed")

// Dispatcher appends records in the background so the caller gets its
// result before the audit write settles.
type Dispatcher struct {
	store   Appender
	onError func(rec *domain.Record, err error)

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

type DispatcherOption func(*Dispatcher)

// OnError registers a hook called for every failed append.
func OnError(fn func(rec *domain.Record, err error)) DispatcherOption {
	return func(d *Dispatcher) { d.onError = fn }
}

func NewDispatcher(store Appender, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{store: store}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Submit starts the append and returns a channel that yields its error, if
// any, and is then closed. The append outlives ctx cancellation but is
// bounded by AuditAppendTimeout.
func (d *Dispatcher) Submit(ctx context.Context, rec *domain.Record) <-chan error {
	done := make(chan error, 1)

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		done <- fmt.Errorf("%w: %w", domain.ErrLogging, errDispatcherClosed)
		close(done)
		return done
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer close(done)

		appendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), config.AuditAppendTimeout)
		defer cancel()

		err := d.append(appendCtx, rec)
		if err == nil {
			slog.Debug("session logged", "session", rec.SessionUUID)
			return
		}
		if !errors.Is(err, domain.ErrLogging) {
			err = fmt.Errorf("%w: %w", domain.ErrLogging, err)
		}
		slog.Warn("failed to log session", "session", rec.SessionUUID, "error", err)
		if d.onError != nil {
			d.onError(rec, err)
		}
		done <- err
	}()
	return done
}

func (d *Dispatcher) append(ctx context.Context, rec *domain.Record) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic in audit store: %v", domain.ErrLogging, r)
		}
	}()
	return d.store.Append(ctx, rec)
}

// Close stops accepting records and waits for in-flight appends or ctx.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	idle := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(idle)
	}()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
