package store

import "sync"

// Pending sequences in-flight writes per entity. Only the response to the
// most recently issued request is applied; a failure of that request restores
// the last state the backend confirmed. Older requests still in flight when
// the latest one failed keep their entry alive, and their successes are
// applied since they are then the newest state the backend holds.
type Pending[T any] struct {
	mu      sync.Mutex
	seq     uint64
	entries map[string]*pendingEntry[T]
}

type pendingEntry[T any] struct {
	latest    uint64 // token of the most recent request
	inFlight  int
	confirmed T
	applied   uint64 // token of the newest confirmed result
	failed    bool   // the latest request failed
	settled   bool   // the latest request succeeded
}

// NewPending returns an empty tracker
func NewPending[T any]() *Pending[T] {
	return &Pending[T]{entries: make(map[string]*pendingEntry[T])}
}

// Begin records a request for id and returns its token. confirmed is the
// entity's state before any local change; it is kept only when no other
// request for id is in flight.
func (p *Pending[T]) Begin(id string, confirmed T) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.seq++
	e, ok := p.entries[id]
	if !ok {
		e = &pendingEntry[T]{confirmed: confirmed}
		p.entries[id] = e
	}
	e.latest = p.seq
	e.inFlight++
	e.failed = false
	e.settled = false
	return p.seq
}

// done drops the entry once nothing for id is in flight
func (p *Pending[T]) done(id string, e *pendingEntry[T]) {
	e.inFlight--
	if e.inFlight <= 0 {
		delete(p.entries, id)
	}
}

// Settle records a successful response carrying the backend's state. It
// reports whether result should be applied: it belongs to the latest request,
// or the latest request already failed and result is newer than anything
// applied since.
func (p *Pending[T]) Settle(id string, token uint64, result T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[id]
	if !ok {
		return false
	}
	defer p.done(id, e)

	switch {
	case token == e.latest:
		e.settled = true
		e.confirmed, e.applied = result, token
		return true
	case e.settled || token < e.applied:
		return false
	}
	e.confirmed, e.applied = result, token
	return e.failed
}

// Revert records a failed response. When the failed request is the latest it
// returns the last confirmed state to restore.
func (p *Pending[T]) Revert(id string, token uint64) (T, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var zero T
	e, ok := p.entries[id]
	if !ok {
		return zero, false
	}
	defer p.done(id, e)

	if token != e.latest {
		return zero, false
	}
	e.failed = true
	return e.confirmed, true
}

// InFlight reports whether a request for id is outstanding
func (p *Pending[T]) InFlight(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.entries[id]
	return ok
}
