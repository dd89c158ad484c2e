package compare

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/rahul/chainsmith/internal/catalog"
	"github.com/rahul/chainsmith/internal/model"
	"github.com/rahul/chainsmith/internal/observability"
	"github.com/rahul/chainsmith/internal/results"
)

// SelectionStore remembers which targets were selected across sessions.
type SelectionStore interface {
	Load() ([]string, error)
	Save(targets []string) error
}

// SessionConfig describes the comparison to open.
type SessionConfig struct {
	Catalog   *catalog.Catalog
	Runner    Runner
	Selection SelectionStore
	Logger    *observability.Logger
	Options   []Option

	Steps  []model.Step
	Values map[string]string

	// Current is the target the user already generated for outside the
	// comparison; CurrentResult seeds its entry.
	Current       string
	CurrentResult *model.Result
}

// Session is one open comparison. Results live only as long as the
// session; the selection is persisted.
type Session struct {
	catalog   *catalog.Catalog
	selection SelectionStore
	logger    *observability.Logger
	orch      *Orchestrator
	steps     []model.Step
	values    map[string]string

	mu       sync.Mutex
	selected map[string]bool
	closed   bool
}

// OpenSession loads the persisted selection, always adds the current
// target, and seeds the current target's result.
func OpenSession(cfg SessionConfig) (*Session, error) {
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Default()
	}
	if cfg.Current != "" && !cfg.Catalog.Contains(cfg.Current) {
		return nil, fmt.Errorf("unknown target %q", cfg.Current)
	}

	s := &Session{
		catalog:   cfg.Catalog,
		selection: cfg.Selection,
		logger:    cfg.Logger,
		orch:      NewOrchestrator(cfg.Runner, results.NewStore(), cfg.Logger, cfg.Options...),
		steps:     model.CloneSteps(cfg.Steps),
		values:    model.CloneValues(cfg.Values),
		selected:  make(map[string]bool),
	}

	for _, id := range s.loadSelection() {
		if s.catalog.Contains(id) {
			s.selected[id] = true
		}
	}
	if cfg.Current != "" {
		s.selected[cfg.Current] = true
		if cfg.CurrentResult != nil && cfg.CurrentResult.Prompt != "" {
			s.orch.Store.Set(cfg.Current, results.State{Status: results.Succeeded, Result: cfg.CurrentResult.Clone()})
		}
	}
	return s, nil
}

func (s *Session) loadSelection() []string {
	if s.selection == nil {
		return nil
	}
	ids, err := s.selection.Load()
	if err != nil {
		log.Printf("Warning: failed to load target selection: %v", err)
		s.logPersistence("load", err)
		return nil
	}
	return ids
}

// Store exposes the session's result store for display.
func (s *Session) Store() *results.Store {
	return s.orch.Store
}

// Selected returns the selected targets in catalog order.
func (s *Session) Selected() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedLocked()
}

func (s *Session) selectedLocked() []string {
	ids := make([]string, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	return s.catalog.Order(ids)
}

// Toggle flips one target's selection.
func (s *Session) Toggle(target string) error {
	if err := s.catalog.Validate([]string{target}); err != nil {
		return err
	}
	s.update("toggle", func(sel map[string]bool) {
		if sel[target] {
			delete(sel, target)
		} else {
			sel[target] = true
		}
	})
	return nil
}

func (s *Session) Select(targets ...string) error {
	if err := s.catalog.Validate(targets); err != nil {
		return err
	}
	s.update("select", func(sel map[string]bool) {
		for _, t := range targets {
			sel[t] = true
		}
	})
	return nil
}

// Deselect removes targets from the selection. Their results stay cached.
func (s *Session) Deselect(targets ...string) {
	s.update("deselect", func(sel map[string]bool) {
		for _, t := range targets {
			delete(sel, t)
		}
	})
}

func (s *Session) SelectAll() {
	s.update("select_all", func(sel map[string]bool) {
		for _, id := range s.catalog.IDs() {
			sel[id] = true
		}
	})
}

func (s *Session) DeselectAll() {
	s.update("deselect_all", func(sel map[string]bool) {
		for id := range sel {
			delete(sel, id)
		}
	})
}

func (s *Session) update(action string, fn func(map[string]bool)) {
	s.mu.Lock()
	fn(s.selected)
	ids := s.selectedLocked()
	closed := s.closed
	s.mu.Unlock()

	if s.logger != nil {
		s.logger.LogSelection(action, ids)
	}
	if !closed {
		s.save(ids)
	}
}

func (s *Session) save(ids []string) {
	if s.selection == nil {
		return
	}
	if err := s.selection.Save(ids); err != nil {
		log.Printf("Warning: failed to save target selection: %v", err)
		s.logPersistence("save", err)
	}
}

func (s *Session) logPersistence(op string, err error) {
	if s.logger != nil {
		s.logger.LogPersistence(op, err)
	}
}

// Generate runs the chain for every selected target without a cached
// success.
func (s *Session) Generate(ctx context.Context) (*Batch, error) {
	return s.orch.Generate(ctx, s.Selected(), s.steps, s.values)
}

// Regenerate discards target's settled result and runs its chain again.
// A target that is still loading is not relaunched. When the steps do not
// validate, the settled result is kept.
func (s *Session) Regenerate(ctx context.Context, target string) (*Batch, error) {
	if err := s.catalog.Validate([]string{target}); err != nil {
		return nil, err
	}
	if err := s.orch.Validate(s.steps, s.values); err != nil {
		return nil, err
	}
	s.orch.Store.Reset(target)
	return s.orch.Generate(ctx, []string{target}, s.steps, s.values)
}

// InProgress reports whether any batch of this session is still open.
func (s *Session) InProgress() bool {
	return s.orch.InProgress()
}

// Close persists the selection and discards results. Chains still in
// flight run to completion; their late results are not read by anyone.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	ids := s.selectedLocked()
	s.mu.Unlock()

	s.save(ids)
	s.orch.Store.Clear()
}
