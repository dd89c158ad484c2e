// Package governance refuses chains before they reach the generation
// service.
package governance

import (
	"context"
	"fmt"
	"regexp"
)

// Effect defines the result of a policy evaluation.
type Effect string

const (
	EffectAllow Effect = "allow"
	EffectDeny  Effect = "deny"
)

// Request is one chain about to run: its target and its goals with
// placeholders already substituted, in step order.
type Request struct {
	Target string
	Goals  []string
}

// Decision is the outcome for a whole chain. Step is the 1-based position
// of the refused goal, or 0 when the target itself is refused.
type Decision struct {
	Effect Effect
	Reason string
	Step   int
}

type PolicyEngine interface {
	Evaluate(ctx context.Context, req Request) (Decision, error)
}

// Rule refuses any goal its pattern matches.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
}

// GoalPolicy blocks targets by identifier and goals by rule.
type GoalPolicy struct {
	blockedTargets map[string]bool
	rules          []Rule
}

func NewGoalPolicy() *GoalPolicy {
	return &GoalPolicy{blockedTargets: make(map[string]bool)}
}

// FromConfig builds a policy from deny patterns and blocked targets. Each
// pattern becomes a rule named after itself.
func FromConfig(patterns, targets []string) (*GoalPolicy, error) {
	p := NewGoalPolicy()
	for _, pat := range patterns {
		if err := p.AddRule(pat, pat); err != nil {
			return nil, err
		}
	}
	for _, t := range targets {
		p.BlockTarget(t)
	}
	return p, nil
}

func (p *GoalPolicy) BlockTarget(id string) {
	p.blockedTargets[id] = true
}

func (p *GoalPolicy) AddRule(name, pattern string) error {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return fmt.Errorf("invalid rule %q: %w", name, err)
	}
	p.rules = append(p.rules, Rule{Name: name, Pattern: re})
	return nil
}

// Rules returns the configured rules in evaluation order.
func (p *GoalPolicy) Rules() []Rule {
	return append([]Rule(nil), p.rules...)
}

func (p *GoalPolicy) Blocks(target string) bool {
	return p.blockedTargets[target]
}

// Evaluate refuses the chain at the first goal any rule matches. Rules are
// tried in the order they were added.
func (p *GoalPolicy) Evaluate(ctx context.Context, req Request) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	if p.blockedTargets[req.Target] {
		return Decision{Effect: EffectDeny, Reason: fmt.Sprintf("target %s is blocked", req.Target)}, nil
	}
	for i, goal := range req.Goals {
		for _, r := range p.rules {
			if r.Pattern.MatchString(goal) {
				return Decision{
					Effect: EffectDeny,
					Reason: fmt.Sprintf("step %d matches rule %s", i+1, r.Name),
					Step:   i + 1,
				}, nil
			}
		}
	}
	return Decision{Effect: EffectAllow}, nil
}
