package workbench

import (
	"context"

	"github.com/rahul/chainsmith/internal/apperr"
	"github.com/rahul/chainsmith/internal/chain"
	"github.com/rahul/chainsmith/internal/compare"
	"github.com/rahul/chainsmith/internal/governance"
	"github.com/rahul/chainsmith/internal/model"
	"github.com/rahul/chainsmith/internal/placeholder"
)

// guardedRunner evaluates the substituted chain against the policy before
// delegating.
type guardedRunner struct {
	policy governance.PolicyEngine
	next   compare.Runner
}

func (g guardedRunner) Run(ctx context.Context, steps []model.Step, values map[string]string, target string) (*model.Result, error) {
	if err := checkPolicy(ctx, g.policy, steps, values, target); err != nil {
		return nil, err
	}
	return g.next.Run(ctx, steps, values, target)
}

func checkPolicy(ctx context.Context, policy governance.PolicyEngine, steps []model.Step, values map[string]string, target string) error {
	runnable := chain.Runnable(steps)
	goals := make([]string, len(runnable))
	for i, s := range runnable {
		goals[i] = placeholder.Substitute(s.Goal, values)
	}

	d, err := policy.Evaluate(ctx, governance.Request{Target: target, Goals: goals})
	if err != nil {
		return err
	}
	if d.Effect == governance.EffectDeny {
		return apperr.Validation(d.Reason)
	}
	return nil
}
