package compare

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahul/chainsmith/internal/apperr"
	"github.com/rahul/chainsmith/internal/catalog"
	"github.com/rahul/chainsmith/internal/model"
	"github.com/rahul/chainsmith/internal/results"
)

type memSelection struct {
	mu      sync.Mutex
	ids     []string
	loadErr error
	saveErr error
	saves   int
}

func (m *memSelection) Load() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return append([]string(nil), m.ids...), nil
}

func (m *memSelection) Save(ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.ids = append([]string(nil), ids...)
	return nil
}

func openTestSession(t *testing.T, runner Runner, sel SelectionStore) *Session {
	t.Helper()
	s, err := OpenSession(SessionConfig{
		Catalog:       catalog.Default(),
		Runner:        runner,
		Selection:     sel,
		Steps:         oneStep,
		Current:       "Gemini",
		CurrentResult: &model.Result{Prompt: "seeded"},
	})
	require.NoError(t, err)
	return s
}

func TestOpenSession_LoadsSelectionAndSeedsCurrent(t *testing.T) {
	sel := &memSelection{ids: []string{"Grok", "Unknown"}}
	s := openTestSession(t, newFakeRunner(), sel)

	assert.Equal(t, []string{"Gemini", "Grok"}, s.Selected())
	st := s.Store().Get("Gemini")
	assert.Equal(t, results.Succeeded, st.Status)
	assert.Equal(t, "seeded", st.Result.Prompt)
}

func TestOpenSession_CorruptSelectionFallsBackToCurrent(t *testing.T) {
	sel := &memSelection{loadErr: errors.New("corrupt")}
	s := openTestSession(t, newFakeRunner(), sel)

	assert.Equal(t, []string{"Gemini"}, s.Selected())
}

func TestOpenSession_UnknownCurrent(t *testing.T) {
	_, err := OpenSession(SessionConfig{Runner: newFakeRunner(), Current: "Nope"})
	assert.Error(t, err)
}

func TestSession_GenerateReusesSeededResult(t *testing.T) {
	runner := newFakeRunner()
	s := openTestSession(t, runner, &memSelection{})
	require.NoError(t, s.Select("GPT-4"))

	b, err := s.Generate(context.Background())
	require.NoError(t, err)
	wait(t, b)

	assert.Equal(t, []string{"GPT-4"}, b.Targets())
	assert.Equal(t, 0, runner.count("Gemini"))
	assert.Equal(t, results.Succeeded, s.Store().Get("GPT-4").Status)
}

func TestSession_DeselectKeepsResult(t *testing.T) {
	runner := newFakeRunner()
	s := openTestSession(t, runner, &memSelection{})
	require.NoError(t, s.Select("Grok"))

	b, err := s.Generate(context.Background())
	require.NoError(t, err)
	wait(t, b)

	s.Deselect("Grok")
	assert.Equal(t, results.Succeeded, s.Store().Get("Grok").Status)

	require.NoError(t, s.Toggle("Grok"))
	b, err = s.Generate(context.Background())
	require.NoError(t, err)
	wait(t, b)
	assert.Equal(t, 1, runner.count("Grok"))
}

func TestSession_Regenerate(t *testing.T) {
	runner := newFakeRunner()
	s := openTestSession(t, runner, &memSelection{})

	b, err := s.Regenerate(context.Background(), "Gemini")
	require.NoError(t, err)
	wait(t, b)

	assert.Equal(t, 1, runner.count("Gemini"))
	assert.Equal(t, "prompt for Gemini", s.Store().Get("Gemini").Result.Prompt)

	_, err = s.Regenerate(context.Background(), "Nope")
	assert.Error(t, err)
}

func TestSession_SelectionPersistence(t *testing.T) {
	sel := &memSelection{}
	s := openTestSession(t, newFakeRunner(), sel)

	s.SelectAll()
	assert.Equal(t, catalog.DefaultTargets, sel.ids)

	s.DeselectAll()
	assert.Empty(t, sel.ids)
	assert.Error(t, s.Select("Nope"))

	require.NoError(t, s.Select("Llama 3"))
	s.Close()
	assert.Equal(t, []string{"Llama 3"}, sel.ids)
	assert.Empty(t, s.Store().Keys())

	saves := sel.saves
	s.Close()
	assert.Equal(t, saves, sel.saves)
}

func TestSession_SaveFailureIsSwallowed(t *testing.T) {
	sel := &memSelection{saveErr: errors.New("disk full")}
	s := openTestSession(t, newFakeRunner(), sel)

	require.NoError(t, s.Select("Grok"))
	s.Close()
	assert.Equal(t, []string{"Gemini", "Grok"}, s.Selected())
}

func TestSession_RegenerateKeepsResultWhenValidationFails(t *testing.T) {
	runner := newFakeRunner()
	s, err := OpenSession(SessionConfig{
		Catalog:       catalog.Default(),
		Runner:        runner,
		Selection:     &memSelection{},
		Steps:         []model.Step{{Goal: "Summarize {{APP}}"}},
		Values:        map[string]string{"APP": ""},
		Current:       "GPT-4",
		CurrentResult: &model.Result{Prompt: "seeded"},
	})
	require.NoError(t, err)

	_, err = s.Regenerate(context.Background(), "GPT-4")
	name, ok := apperr.PlaceholderOf(err)
	require.True(t, ok)
	assert.Equal(t, "APP", name)

	st := s.Store().Get("GPT-4")
	assert.Equal(t, results.Succeeded, st.Status)
	assert.Equal(t, "seeded", st.Result.Prompt)
	assert.Equal(t, 0, runner.count("GPT-4"))
}
