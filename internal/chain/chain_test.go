package chain

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul/chainsmith/internal/apperr"
	"github.com/rahul/chainsmith/internal/model"
)

type call struct {
	Goal, Target, Previous string
}

type scriptedGenerator struct {
	mu      sync.Mutex
	calls   []call
	replies []*model.Result
	errs    []error
}

func (g *scriptedGenerator) Generate(ctx context.Context, goal, target, previous string) (*model.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	i := len(g.calls)
	g.calls = append(g.calls, call{goal, target, previous})
	if i < len(g.errs) && g.errs[i] != nil {
		return nil, g.errs[i]
	}
	if i < len(g.replies) {
		return g.replies[i], nil
	}
	return &model.Result{Prompt: "default"}, nil
}

func TestRun_ThreadsPreviousPrompt(t *testing.T) {
	final := &model.Result{
		Prompt:   "P2",
		Analysis: []model.AnalysisItem{{Technique: "X", Reasoning: "Y", Excerpt: "Z"}},
	}
	gen := &scriptedGenerator{replies: []*model.Result{{Prompt: "P1", Analysis: []model.AnalysisItem{}}, final}}
	ex := NewExecutor(gen, nil)

	res, err := ex.Run(context.Background(), []model.Step{{ID: "1", Goal: "G1"}, {ID: "2", Goal: "G2"}}, nil, "T")
	require.NoError(t, err)

	require.Len(t, gen.calls, 2)
	assert.Equal(t, call{"G1", "T", ""}, gen.calls[0])
	assert.Equal(t, call{"G2", "T", "P1"}, gen.calls[1])
	assert.Equal(t, &model.Result{
		Prompt:   "P2",
		Analysis: []model.AnalysisItem{{Technique: "X", Reasoning: "Y", Excerpt: "Z"}},
	}, res)
}

func TestRun_SkipsBlankStepsAndSubstitutes(t *testing.T) {
	gen := &scriptedGenerator{}
	ex := NewExecutor(gen, nil)

	steps := []model.Step{{Goal: "  "}, {Goal: "Audit {{ APP }}"}, {Goal: ""}}
	_, err := ex.Run(context.Background(), steps, map[string]string{"APP": "Notes"}, "T")
	require.NoError(t, err)

	require.Len(t, gen.calls, 1)
	assert.Equal(t, "Audit Notes", gen.calls[0].Goal)
	assert.Equal(t, "", gen.calls[0].Previous)
}

func TestRun_MissingPlaceholderMakesNoCalls(t *testing.T) {
	gen := &scriptedGenerator{}
	ex := NewExecutor(gen, nil)

	_, err := ex.Run(context.Background(), []model.Step{{Goal: "Reveal X for {{APP}}"}}, map[string]string{"APP": ""}, "T")
	require.Error(t, err)
	name, ok := apperr.PlaceholderOf(err)
	require.True(t, ok)
	assert.Equal(t, "APP", name)
	assert.Empty(t, gen.calls)
}

func TestRun_NoRunnableSteps(t *testing.T) {
	gen := &scriptedGenerator{}
	_, err := NewExecutor(gen, nil).Run(context.Background(), []model.Step{{Goal: " "}}, nil, "T")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Empty(t, gen.calls)
}

func TestRun_AbortsOnFirstFailure(t *testing.T) {
	boom := errors.New("transport down")
	gen := &scriptedGenerator{errs: []error{nil, boom}}
	ex := NewExecutor(gen, nil)

	res, err := ex.Run(context.Background(), []model.Step{{Goal: "a"}, {Goal: "b"}, {Goal: "c"}}, nil, "T")
	assert.Nil(t, res)
	assert.True(t, apperr.IsKind(err, apperr.KindService))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, gen.calls, 2)
}

func TestRun_EmptyPromptIsFailure(t *testing.T) {
	gen := &scriptedGenerator{replies: []*model.Result{{Prompt: "", Analysis: []model.AnalysisItem{}}}}

	res, err := NewExecutor(gen, nil).Run(context.Background(), []model.Step{{Goal: "a"}}, nil, "T")
	assert.Nil(t, res)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindService))
	assert.Equal(t, apperr.EmptyResponse, err.Error())
}

func TestRun_CanceledContextStopsBeforeNextStep(t *testing.T) {
	gen := &scriptedGenerator{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewExecutor(gen, nil).Run(ctx, []model.Step{{Goal: "a"}}, nil, "T")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, gen.calls)
}
