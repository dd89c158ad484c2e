// Package results holds the per-target result state of a comparison.
package results

import (
	"sort"
	"sync"

	"github.com/rahul/chainsmith/internal/apperr"
	"github.com/rahul/chainsmith/internal/model"
)

// Status is the lifecycle position of one target's result.
type Status int

const (
	Absent Status = iota
	Loading
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "absent"
	}
}

// State is one target's entry. Result is set only when Succeeded, Err only
// when Failed.
type State struct {
	Status Status
	Result *model.Result
	Err    error
}

// Settled reports whether the state is final.
func (s State) Settled() bool {
	return s.Status == Succeeded || s.Status == Failed
}

// Store maps target identifiers to their current state. All methods are
// safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	states   map[string]State
	onChange func(target string, st State)
}

func NewStore() *Store {
	return &Store{states: make(map[string]State)}
}

// OnChange registers fn to be called after every transition. fn runs
// outside the store lock.
func (s *Store) OnChange(fn func(target string, st State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Get returns the state of target; missing targets are Absent.
func (s *Store) Get(target string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[target]
}

// Set overwrites the state of target.
func (s *Store) Set(target string, st State) {
	s.mu.Lock()
	if st.Status == Absent {
		delete(s.states, target)
	} else {
		s.states[target] = st
	}
	fn := s.onChange
	s.mu.Unlock()
	notify(fn, target, st)
}

// Keys returns the targets that have an entry, sorted.
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.states))
	for k := range s.states {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Snapshot returns a copy of every entry.
func (s *Store) Snapshot() map[string]State {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]State, len(s.states))
	for k, v := range s.states {
		out[k] = v
	}
	return out
}

// Claim moves every eligible target to Loading under a single lock and
// returns the claimed targets in request order. Targets that already
// succeeded or are still loading are skipped, as are duplicates.
func (s *Store) Claim(targets []string) []string {
	s.mu.Lock()
	var claimed []string
	for _, t := range targets {
		switch s.states[t].Status {
		case Succeeded, Loading:
			continue
		}
		s.states[t] = State{Status: Loading}
		claimed = append(claimed, t)
	}
	fn := s.onChange
	s.mu.Unlock()

	for _, t := range claimed {
		notify(fn, t, State{Status: Loading})
	}
	return claimed
}

// Settle records the outcome of one target's chain. A nil error with an
// empty prompt is stored as a failure.
func (s *Store) Settle(target string, res *model.Result, err error) State {
	st := State{Status: Succeeded, Result: res}
	switch {
	case err != nil:
		st = State{Status: Failed, Err: err}
	case res == nil || res.Prompt == "":
		st = State{Status: Failed, Err: apperr.Service(apperr.EmptyResponse, nil)}
	}
	s.Set(target, st)
	return st
}

// Reset clears a settled target so the next Claim regenerates it. Loading
// targets are left untouched; Reset reports whether the entry was cleared.
func (s *Store) Reset(target string) bool {
	s.mu.Lock()
	if s.states[target].Status == Loading {
		s.mu.Unlock()
		return false
	}
	delete(s.states, target)
	fn := s.onChange
	s.mu.Unlock()
	notify(fn, target, State{})
	return true
}

// Clear drops every entry without notifying.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = make(map[string]State)
}

func notify(fn func(string, State), target string, st State) {
	if fn != nil {
		fn(target, st)
	}
}
