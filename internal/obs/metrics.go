package obs

import "sync/atomic"

// Metrics tracks operational counters for one SerialIO engine instance.
// All fields are safe for concurrent use; a Metrics is shared across the
// engine's transport event loop, write queue worker, and timer
// goroutines.
type Metrics struct {
	FramesParsed         atomic.Uint64 // complete frames handed to the dispatcher
	GarbageBytesDropped  atomic.Uint64 // bytes discarded while resynchronizing; the engine never records it
	FramesAborted        atomic.Uint64 // partial frames abandoned mid-parse; the engine never records it
	TransactionsSent     atomic.Uint64 // requests/pings registered
	TransactionsResolved atomic.Uint64 // inbound REPLY and ERROR frames, whether or not a pending transaction matched
	TransactionsTimedOut atomic.Uint64
	TransactionsFailed   atomic.Uint64 // requests answered with a remote ERROR reply
	ReopenAttempts       atomic.Uint64
	HandlerPanics        atomic.Uint64 // recovered panics from user-supplied callbacks
}

// NewMetrics returns a zero-valued Metrics ready for use.
func NewMetrics() *Metrics { return &Metrics{} }

func (m *Metrics) RecordFrameParsed()         { m.FramesParsed.Add(1) }
func (m *Metrics) RecordGarbageDropped(n int) { m.GarbageBytesDropped.Add(uint64(n)) }
func (m *Metrics) RecordFrameAborted()        { m.FramesAborted.Add(1) }
func (m *Metrics) RecordTransactionSent()     { m.TransactionsSent.Add(1) }
func (m *Metrics) RecordTransactionResolved() { m.TransactionsResolved.Add(1) }
func (m *Metrics) RecordTransactionTimedOut() { m.TransactionsTimedOut.Add(1) }
func (m *Metrics) RecordTransactionFailed()   { m.TransactionsFailed.Add(1) }
func (m *Metrics) RecordReopenAttempt()       { m.ReopenAttempts.Add(1) }
func (m *Metrics) RecordHandlerPanic()        { m.HandlerPanics.Add(1) }

// Snapshot is a point-in-time read of every counter, for introspection
// and tests that want a stable value to assert against instead of racing
// live atomics.
type Snapshot struct {
	FramesParsed         uint64
	GarbageBytesDropped  uint64
	FramesAborted        uint64
	TransactionsSent     uint64
	TransactionsResolved uint64
	TransactionsTimedOut uint64
	TransactionsFailed   uint64
	ReopenAttempts       uint64
	HandlerPanics        uint64
}

// Snapshot reads every counter without coordinating with writers; values
// from the same Snapshot call may reflect slightly different instants
// under concurrent updates, which is acceptable for monitoring use.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		FramesParsed:         m.FramesParsed.Load(),
		GarbageBytesDropped:  m.GarbageBytesDropped.Load(),
		FramesAborted:        m.FramesAborted.Load(),
		TransactionsSent:     m.TransactionsSent.Load(),
		TransactionsResolved: m.TransactionsResolved.Load(),
		TransactionsTimedOut: m.TransactionsTimedOut.Load(),
		TransactionsFailed:   m.TransactionsFailed.Load(),
		ReopenAttempts:       m.ReopenAttempts.Load(),
		HandlerPanics:        m.HandlerPanics.Load(),
	}
}
