// Package store holds the client-side state the views read and write: the
// current user, the workspace selection and the project list. Each Store is
// an observable container; state changes only through reducers.
package store

import "sync"

// Reducer computes the next state from the current one. Reducers must not
// mutate the state they are given.
type Reducer[S any] func(S) S

// Store is an observable state container. It is safe for concurrent use;
// commands that finish on other goroutines may update it.
type Store[S any] struct {
	mu    sync.Mutex
	state S
	subs  map[int]func(S)
	next  int
}

// New creates a store holding initial
func New[S any](initial S) *Store[S] {
	return &Store[S]{state: initial, subs: make(map[int]func(S))}
}

// Get returns the current state
func (s *Store[S]) Get() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Update applies the reducers in order, then notifies subscribers once with
// the resulting state. It returns that state.
func (s *Store[S]) Update(reducers ...Reducer[S]) S {
	s.mu.Lock()
	for _, r := range reducers {
		s.state = r(s.state)
	}
	state := s.state
	subs := make([]func(S), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(state)
	}
	return state
}

// Subscribe registers fn to run after every update and returns a function
// that removes it
func (s *Store[S]) Subscribe(fn func(S)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}
