// Package workbench owns the step sequence and placeholder values being
// edited, and drives single-target runs, simulations and comparisons.
package workbench

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rahul/chainsmith/internal/apperr"
	"github.com/rahul/chainsmith/internal/chain"
	"github.com/rahul/chainsmith/internal/compare"
	"github.com/rahul/chainsmith/internal/governance"
	"github.com/rahul/chainsmith/internal/model"
	"github.com/rahul/chainsmith/internal/placeholder"
)

const maxHistory = 20

// Draft is an immutable snapshot of the objective being edited. Every
// transition returns a new Draft.
type Draft struct {
	steps  []model.Step
	values map[string]string
}

// NewDraft starts with a single empty step.
func NewDraft() Draft {
	return Draft{steps: []model.Step{model.NewStep("")}, values: map[string]string{}}
}

// DraftOf builds a draft from existing steps and values. An empty step
// list gets one blank step.
func DraftOf(steps []model.Step, values map[string]string) Draft {
	d := Draft{steps: model.CloneSteps(steps), values: model.CloneValues(values)}
	for i := range d.steps {
		if d.steps[i].ID == "" {
			d.steps[i].ID = model.NewStep("").ID
		}
	}
	if len(d.steps) == 0 {
		d.steps = []model.Step{model.NewStep("")}
	}
	return d
}

func (d Draft) Steps() []model.Step {
	return model.CloneSteps(d.steps)
}

// Names returns the placeholders referenced by the current steps.
func (d Draft) Names() []string {
	return placeholder.ExtractNames(d.steps)
}

// Values returns the values of the current placeholders. Values of names
// no longer referenced are kept in the draft but not returned.
func (d Draft) Values() map[string]string {
	out := make(map[string]string)
	for _, name := range d.Names() {
		if v, ok := d.values[name]; ok {
			out[name] = v
		}
	}
	return out
}

// Missing lists current placeholders without a value.
func (d Draft) Missing() []string {
	return placeholder.Missing(d.Names(), d.values)
}

// Preview substitutes known values into every step, leaving unknown
// tokens verbatim.
func (d Draft) Preview() []string {
	out := make([]string, len(d.steps))
	for i, s := range d.steps {
		out[i] = placeholder.Substitute(s.Goal, d.values)
	}
	return out
}

func (d Draft) AddStep(goal string) Draft {
	n := d.clone()
	n.steps = append(n.steps, model.NewStep(goal))
	return n
}

// RemoveStep drops the step with id. The last remaining step is never
// removed.
func (d Draft) RemoveStep(id string) Draft {
	if len(d.steps) <= 1 {
		return d
	}
	n := d.clone()
	n.steps = n.steps[:0]
	for _, s := range d.steps {
		if s.ID != id {
			n.steps = append(n.steps, s)
		}
	}
	return n
}

func (d Draft) EditStep(id, goal string) Draft {
	n := d.clone()
	for i := range n.steps {
		if n.steps[i].ID == id {
			n.steps[i].Goal = goal
		}
	}
	return n
}

func (d Draft) SetValue(name, value string) Draft {
	n := d.clone()
	n.values[name] = value
	return n
}

func (d Draft) clone() Draft {
	return Draft{steps: model.CloneSteps(d.steps), values: model.CloneValues(d.values)}
}

// HistoryItem records one successful single-target run.
type HistoryItem struct {
	Target    string
	Goals     []string
	Values    map[string]string
	Result    *model.Result
	CreatedAt time.Time
}

// Simulator previews a built prompt against a target.
type Simulator interface {
	Simulate(ctx context.Context, prompt, target string) (string, error)
}

// Workbench holds the current draft, the last result and the session
// history.
type Workbench struct {
	Runner    compare.Runner
	Simulator Simulator
	Policy    governance.PolicyEngine

	mu         sync.Mutex
	draft      Draft
	lastTarget string
	last       *model.Result
	history    []HistoryItem
}

func New(runner compare.Runner, sim Simulator, draft Draft) *Workbench {
	return &Workbench{Runner: runner, Simulator: sim, draft: draft}
}

func (w *Workbench) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Apply replaces the draft with fn's result.
func (w *Workbench) Apply(fn func(Draft) Draft) Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.draft = fn(w.draft)
	return w.draft
}

// Last returns the most recent single-target result and its target.
func (w *Workbench) Last() (string, *model.Result) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastTarget, w.last.Clone()
}

// Run executes the current draft against target. A missing placeholder
// fails before any generation call.
func (w *Workbench) Run(ctx context.Context, target string) (*model.Result, error) {
	d := w.Draft()
	if len(chain.Runnable(d.steps)) == 0 {
		return nil, apperr.Validation("add a goal to at least one step")
	}
	if err := placeholder.Validate(d.Names(), d.values); err != nil {
		return nil, err
	}

	res, err := w.runner().Run(ctx, d.Steps(), d.Values(), target)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastTarget, w.last = target, res.Clone()
	w.history = append([]HistoryItem{{
		Target:    target,
		Goals:     goals(chain.Runnable(d.steps)),
		Values:    d.Values(),
		Result:    res.Clone(),
		CreatedAt: time.Now(),
	}}, w.history...)
	if len(w.history) > maxHistory {
		w.history = w.history[:maxHistory]
	}
	return res, nil
}

// runner applies the policy, when one is set, before every chain.
func (w *Workbench) runner() compare.Runner {
	if w.Policy == nil {
		return w.Runner
	}
	return guardedRunner{policy: w.Policy, next: w.Runner}
}

// History returns past runs, newest first.
func (w *Workbench) History() []HistoryItem {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]HistoryItem(nil), w.history...)
}

func (w *Workbench) ClearHistory() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.history = nil
}

// Simulate previews the last produced prompt against target.
func (w *Workbench) Simulate(ctx context.Context, target string) (string, error) {
	_, last := w.Last()
	if last == nil || strings.TrimSpace(last.Prompt) == "" {
		return "", apperr.Validation("generate a prompt before simulating")
	}
	if w.Simulator == nil {
		return "", fmt.Errorf("no simulator configured")
	}
	return w.Simulator.Simulate(ctx, last.Prompt, target)
}

// OpenComparison starts a comparison seeded with the last result. cfg
// supplies the catalog, selection store and logger; the draft, runner and
// seed are filled in here.
func (w *Workbench) OpenComparison(cfg compare.SessionConfig) (*compare.Session, error) {
	d := w.Draft()
	target, last := w.Last()

	cfg.Runner = w.runner()
	cfg.Steps = d.Steps()
	cfg.Values = d.Values()
	if cfg.Current == "" {
		cfg.Current = target
	}
	if cfg.Current == target {
		cfg.CurrentResult = last
	}
	return compare.OpenSession(cfg)
}

func goals(steps []model.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.Goal
	}
	return out
}
