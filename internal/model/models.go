package model

import (
	"strings"

	"github.com/google/uuid"
)

// Step is one goal template in an ordered multi-step objective.
type Step struct {
	ID   string `json:"id" yaml:"id,omitempty"`
	Goal string `json:"goal" yaml:"goal"`
}

// NewStep returns a step with a fresh identifier.
func NewStep(goal string) Step {
	return Step{ID: uuid.NewString(), Goal: goal}
}

// Blank reports whether the goal has no non-space text.
func (s Step) Blank() bool {
	return strings.TrimSpace(s.Goal) == ""
}

// AnalysisItem explains one construction technique used in a generated prompt.
type AnalysisItem struct {
	Technique string `json:"technique"`
	Reasoning string `json:"reasoning"`
	Excerpt   string `json:"excerpt"`
}

// Result is what the generation service returns for one step.
type Result struct {
	Prompt   string         `json:"prompt"`
	Analysis []AnalysisItem `json:"analysis"`
}

// Clone returns a deep copy so callers can hand results across goroutines.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := &Result{Prompt: r.Prompt}
	if r.Analysis != nil {
		out.Analysis = append([]AnalysisItem(nil), r.Analysis...)
	}
	return out
}

// CloneSteps copies a step sequence.
func CloneSteps(steps []Step) []Step {
	return append([]Step(nil), steps...)
}

// CloneValues copies a placeholder map.
func CloneValues(values map[string]string) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}
