// Package txn correlates outgoing requests with their eventual replies (or
// timeouts), and hands out the 16-bit transaction ids that make the
// correlation possible.
package txn

import (
	"errors"
	"sync"
	"time"

	"github.com/go-serialio/serialio/internal/wire"
)

// ErrIDInFlight is returned by RegisterForID when the caller-chosen id is
// already pending.
var ErrIDInFlight = errors.New("txn: id already in flight")

// Result is what a pending transaction resolves to: either a reply
// Message, or an error (timeout, transport failure, remote ERROR frame).
type Result struct {
	Message wire.Message
	Err     error
}

// pending tracks one in-flight transaction. completion fires exactly once,
// guarded by once, whichever of "reply arrived" or "timer fired" happens
// first.
type pending struct {
	once  sync.Once
	done  chan Result
	timer *time.Timer
}

// Holder is the transaction table: it assigns ids, tracks pending
// transactions against a per-transaction deadline, and resolves them when
// a reply arrives or the deadline elapses.
//
// A Holder is safe for concurrent use. The id counter wraps at 65536;
// Register skips ids that are still in flight rather than overwriting
// them, matching spec.md's guidance to treat id reuse while a prior
// transaction is outstanding as a programming error to avoid, not a
// protocol violation to reject.
type Holder struct {
	mu      sync.Mutex
	nextID  uint16
	entries map[uint16]*pending
}

// NewHolder returns an empty Holder.
func NewHolder() *Holder {
	return &Holder{entries: make(map[uint16]*pending)}
}

// Register allocates a fresh transaction id, arms a timeout timer for it,
// and returns the id plus a channel that receives exactly one Result:
// either the eventual reply or a timeout error.
//
// onTimeout is called (with the allocated id) if the timer elapses before
// Resolve is called for it; typical use is to synthesize a TimeoutError
// and push it through the returned channel, which Register does via the
// time.AfterFunc callback below.
func (h *Holder) Register(timeout time.Duration, onTimeout func(id uint16) error) (uint16, <-chan Result) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.allocateIDLocked()
	p := &pending{done: make(chan Result, 1)}
	h.entries[id] = p

	p.timer = time.AfterFunc(timeout, func() {
		h.resolve(id, Result{Err: onTimeout(id)})
	})

	return id, p.done
}

// RegisterForID arms a timeout timer for a transaction id the caller has
// already chosen (typically because it already built a wire.Message
// carrying that id), rather than letting Holder allocate one. It returns
// ErrIDInFlight if id is already pending.
func (h *Holder) RegisterForID(id uint16, timeout time.Duration, onTimeout func(id uint16) error) (<-chan Result, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, inFlight := h.entries[id]; inFlight {
		return nil, ErrIDInFlight
	}
	p := &pending{done: make(chan Result, 1)}
	h.entries[id] = p

	p.timer = time.AfterFunc(timeout, func() {
		h.resolve(id, Result{Err: onTimeout(id)})
	})

	return p.done, nil
}

// allocateIDLocked must be called with h.mu held.
func (h *Holder) allocateIDLocked() uint16 {
	for {
		id := h.nextID
		h.nextID = uint16(h.nextID + 1)
		if _, inFlight := h.entries[id]; !inFlight {
			return id
		}
	}
}

// Resolve completes the transaction for id with msg, if it is still
// pending. It is a no-op if id is unknown (already resolved, or a reply
// for a transaction this process never started) or already resolved by a
// concurrent timeout.
func (h *Holder) Resolve(id uint16, msg wire.Message) {
	h.resolve(id, Result{Message: msg})
}

// Fail completes the transaction for id with err, same semantics as
// Resolve otherwise. Used when the transport reports a write or close
// error for a write already queued against this transaction.
func (h *Holder) Fail(id uint16, err error) {
	h.resolve(id, Result{Err: err})
}

func (h *Holder) resolve(id uint16, result Result) {
	h.mu.Lock()
	p, ok := h.entries[id]
	if ok {
		delete(h.entries, id)
	}
	h.mu.Unlock()
	if !ok {
		return
	}

	p.once.Do(func() {
		p.timer.Stop()
		p.done <- result
		close(p.done)
	})
}

// Cancel abandons a transaction without resolving its channel, used when
// a caller gives up waiting (e.g. its own context was canceled) and no
// further send on p.done is wanted. It still stops the timer and frees
// the table slot.
func (h *Holder) Cancel(id uint16) {
	h.mu.Lock()
	p, ok := h.entries[id]
	if ok {
		delete(h.entries, id)
	}
	h.mu.Unlock()
	if ok {
		p.timer.Stop()
	}
}

// FailAll resolves every currently pending transaction with err. Used when
// the underlying transport closes and no reply will ever arrive for
// anything still outstanding.
func (h *Holder) FailAll(err error) {
	h.mu.Lock()
	all := h.entries
	h.entries = make(map[uint16]*pending)
	h.mu.Unlock()

	for _, p := range all {
		p.timer.Stop()
		p.once.Do(func() {
			p.done <- Result{Err: err}
			close(p.done)
		})
	}
}

// Len reports the number of currently pending transactions. Intended for
// metrics and tests.
func (h *Holder) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
