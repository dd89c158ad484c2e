// Package chain runs an ordered step sequence against one target, feeding
// each step's generated prompt forward as context for the next.
package chain

import (
	"context"
	"fmt"
	"log"

	"github.com/rahul/chainsmith/internal/apperr"
	"github.com/rahul/chainsmith/internal/model"
	"github.com/rahul/chainsmith/internal/observability"
	"github.com/rahul/chainsmith/internal/placeholder"
)

// Generator is the generation service boundary. previous is empty for the
// first step of a chain.
type Generator interface {
	Generate(ctx context.Context, goal, target, previous string) (*model.Result, error)
}

// Executor runs step chains.
type Executor struct {
	Generator Generator
	Logger    *observability.Logger
}

func NewExecutor(gen Generator, logger *observability.Logger) *Executor {
	return &Executor{Generator: gen, Logger: logger}
}

// Runnable returns the steps with non-blank goals, preserving order.
func Runnable(steps []model.Step) []model.Step {
	var out []model.Step
	for _, s := range steps {
		if !s.Blank() {
			out = append(out, s)
		}
	}
	return out
}

// Run executes the chain and returns the last step's result. The first
// failure aborts the chain; no partial result is returned.
func (e *Executor) Run(ctx context.Context, steps []model.Step, values map[string]string, target string) (*model.Result, error) {
	runnable := Runnable(steps)
	if len(runnable) == 0 {
		return nil, apperr.Validation("no step has a goal")
	}
	if err := placeholder.Validate(placeholder.ExtractNames(runnable), values); err != nil {
		return nil, err
	}

	var (
		last     *model.Result
		previous string
	)
	for i, step := range runnable {
		if err := ctx.Err(); err != nil {
			return nil, apperr.Service("chain canceled", err)
		}

		goal := placeholder.Substitute(step.Goal, values)
		e.logStep(target, i, len(runnable), "started")

		res, err := e.Generator.Generate(ctx, goal, target, previous)
		if err != nil {
			e.logStep(target, i, len(runnable), "failed")
			if apperr.KindOf(err) == "" {
				err = apperr.Service(fmt.Sprintf("step %d", i+1), err)
			}
			return nil, err
		}
		if res == nil || res.Prompt == "" {
			e.logStep(target, i, len(runnable), "empty")
			return nil, apperr.Service(apperr.EmptyResponse, nil)
		}

		e.logStep(target, i, len(runnable), "completed")
		previous = res.Prompt
		last = res
	}
	return last, nil
}

func (e *Executor) logStep(target string, idx, total int, status string) {
	if e.Logger == nil {
		log.Printf("[chain %s] step %d/%d %s", target, idx+1, total, status)
		return
	}
	e.Logger.LogStep(target, idx+1, total, status)
}
