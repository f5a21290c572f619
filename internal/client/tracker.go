package client

import (
	"context"
	"sync"
)

// RequestKey identifies what a request fetches.
type RequestKey struct {
	Endpoint string
	Range    string
}

// Ticket is handed out by Tracker.Begin and travels with the response.
type Ticket struct {
	Slot string
	Key  RequestKey
	Seq  uint64
}

type inflight struct {
	seq    uint64
	key    RequestKey
	cancel context.CancelFunc
	done   bool
}

// Tracker keeps at most one live request per slot. Starting a new request
// for a slot cancels the previous one, and responses carrying an old ticket
// are rejected by Accept.
type Tracker struct {
	mu    sync.Mutex
	seq   uint64
	slots map[string]*inflight
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{slots: make(map[string]*inflight)}
}

// Begin registers a request for slot and returns its context and ticket.
// Any request still running in slot is cancelled.
func (t *Tracker) Begin(parent context.Context, slot string, key RequestKey) (context.Context, Ticket) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.slots[slot]; ok && !prev.done {
		prev.cancel()
	}

	t.seq++
	ctx, cancel := context.WithCancel(parent)
	t.slots[slot] = &inflight{seq: t.seq, key: key, cancel: cancel}
	return ctx, Ticket{Slot: slot, Key: key, Seq: t.seq}
}

// Accept reports whether tk is the newest ticket of its slot. An accepted
// ticket completes the request and releases its context.
func (t *Tracker) Accept(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.slots[tk.Slot]
	if !ok || cur.seq != tk.Seq || cur.done {
		return false
	}
	cur.done = true
	cur.cancel()
	return true
}

// Pending returns the key of the slot's running request.
func (t *Tracker) Pending(slot string) (RequestKey, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, ok := t.slots[slot]
	if !ok || cur.done {
		return RequestKey{}, false
	}
	return cur.key, true
}

// CancelAll aborts every running request.
func (t *Tracker) CancelAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, cur := range t.slots {
		if !cur.done {
			cur.cancel()
			cur.done = true
		}
	}
}
