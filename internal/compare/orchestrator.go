// Package compare fans a step chain out across several targets and keeps
// each target's outcome in a results.Store.
package compare

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rahul/chainsmith/internal/apperr"
	"github.com/rahul/chainsmith/internal/chain"
	"github.com/rahul/chainsmith/internal/model"
	"github.com/rahul/chainsmith/internal/observability"
	"github.com/rahul/chainsmith/internal/placeholder"
	"github.com/rahul/chainsmith/internal/results"
)

// Runner runs one chain against one target.
type Runner interface {
	Run(ctx context.Context, steps []model.Step, values map[string]string, target string) (*model.Result, error)
}

var _ Runner = (*chain.Executor)(nil)

// Orchestrator launches one chain per target that still needs a result.
type Orchestrator struct {
	Runner Runner
	Store  *results.Store
	Logger *observability.Logger

	cancelable bool
	open       atomic.Int64
}

type Option func(*Orchestrator)

// WithCancellation lets the caller's context cancel launched chains. By
// default chains run to completion once launched.
func WithCancellation() Option {
	return func(o *Orchestrator) { o.cancelable = true }
}

func NewOrchestrator(runner Runner, store *results.Store, logger *observability.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{Runner: runner, Store: store, Logger: logger}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// InProgress reports whether any batch launched by o is still open.
func (o *Orchestrator) InProgress() bool {
	return o.open.Load() > 0
}

// Validate checks that steps can run at all: at least one goal, and a
// value for every placeholder. It touches no state.
func (o *Orchestrator) Validate(steps []model.Step, values map[string]string) error {
	runnable := chain.Runnable(steps)
	if len(runnable) == 0 {
		return apperr.Validation("no step has a goal")
	}
	return placeholder.Validate(placeholder.ExtractNames(runnable), values)
}

// Generate validates the steps, claims every selected target that has no
// successful or in-flight result, and launches their chains. The returned
// batch covers exactly the claimed targets. A validation error claims
// nothing.
func (o *Orchestrator) Generate(ctx context.Context, selected []string, steps []model.Step, values map[string]string) (*Batch, error) {
	if err := o.Validate(steps, values); err != nil {
		return nil, err
	}

	work := o.Store.Claim(selected)
	b := newBatch(work)
	if len(work) == 0 {
		close(b.done)
		return b, nil
	}

	steps = model.CloneSteps(steps)
	values = model.CloneValues(values)
	if !o.cancelable {
		ctx = context.WithoutCancel(ctx)
	}

	o.open.Add(1)
	o.logBatch(b.ID, "started", work)
	observability.BeginActivity("comparing "+strings.Join(work, ", "), len(work))

	var g errgroup.Group
	for _, target := range work {
		target := target
		g.Go(func() error {
			res, err := o.Runner.Run(ctx, steps, values, target)
			st := o.Store.Settle(target, res, err)
			b.settled.Add(1)
			observability.RecordSettled(st.Status == results.Failed)
			o.logSettle(b.ID, target, st.Err)
			return nil
		})
	}

	go func() {
		_ = g.Wait()
		o.open.Add(-1)
		o.logBatch(b.ID, "finished", work)
		close(b.done)
	}()
	return b, nil
}

func (o *Orchestrator) logBatch(id, status string, targets []string) {
	if o.Logger != nil {
		o.Logger.LogBatch(id, status, targets)
	}
}

func (o *Orchestrator) logSettle(id, target string, err error) {
	if o.Logger != nil {
		o.Logger.LogSettle(id, target, err)
	}
}

// Batch is the handle for one Generate call.
type Batch struct {
	ID      string
	targets []string
	settled atomic.Int64
	done    chan struct{}
}

func newBatch(targets []string) *Batch {
	return &Batch{ID: uuid.NewString(), targets: targets, done: make(chan struct{})}
}

// Targets returns the targets launched by this batch.
func (b *Batch) Targets() []string {
	return append([]string(nil), b.targets...)
}

// Done is closed once every launched chain has settled.
func (b *Batch) Done() <-chan struct{} {
	return b.done
}

// Wait blocks until the batch is done or ctx ends.
func (b *Batch) Wait(ctx context.Context) error {
	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InProgress reports whether any chain of this batch is still running.
func (b *Batch) InProgress() bool {
	select {
	case <-b.done:
		return false
	default:
		return true
	}
}

// Settled returns how many chains of this batch have finished.
func (b *Batch) Settled() int {
	return int(b.settled.Load())
}
