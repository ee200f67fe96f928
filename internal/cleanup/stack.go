// Package cleanup keeps an ordered teardown stack. The detect engine pushes
// every watch registration onto it and unwinds it when stopping.
package cleanup

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// Func releases one resource
type Func func() error

type entry struct {
	name string
	fn   Func
}

// Stack runs registered teardown functions in reverse order (LIFO)
type Stack struct {
	mu      sync.Mutex
	entries []entry
	logger  *zerolog.Logger
}

// NewStack creates an empty stack
func NewStack(logger *zerolog.Logger) *Stack {
	return &Stack{logger: logger}
}

// Add pushes a teardown function
func (s *Stack) Add(name string, fn Func) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry{name: name, fn: fn})
}

// AddCloser pushes c.Close
func (s *Stack) AddCloser(name string, c io.Closer) {
	s.Add(name, c.Close)
}

// Release runs and removes the newest function registered under name, for
// resources freed before the stack unwinds. It reports whether one was found.
func (s *Stack) Release(name string) (bool, error) {
	s.mu.Lock()
	idx := -1
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].name == name {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}
	e := s.entries[idx]
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	s.mu.Unlock()

	if err := e.fn(); err != nil {
		return true, fmt.Errorf("release %q: %w", name, err)
	}
	return true, nil
}

// Len returns the number of pending teardown functions
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Run executes every teardown function, newest first, and empties the stack.
// Failures are logged and joined; they never stop the unwind.
func (s *Stack) Run() error {
	s.mu.Lock()
	entries := s.entries
	s.entries = nil
	s.mu.Unlock()

	if len(entries) == 0 {
		return nil
	}

	var errs []error
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		if s.logger != nil {
			s.logger.Debug().Str("resource", e.name).Msg("releasing")
		}

		if err := e.fn(); err != nil {
			errs = append(errs, fmt.Errorf("release %q: %w", e.name, err))
			if s.logger != nil {
				s.logger.Warn().Err(err).Str("resource", e.name).Msg("release failed")
			}
		}
	}

	return errors.Join(errs...)
}

// Discard empties the stack without running anything
func (s *Stack) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}
