// Package serialio implements a request/reply messaging layer over a
// byte-oriented serial transport. It frames variable-length payloads
// into self-delimited messages, recovers framing from garbage and
// partial data, correlates replies to in-flight requests by id,
// serializes outbound writes, enforces per-transaction timeouts, and
// reopens the underlying port after an unexpected close.
package serialio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-serialio/serialio/internal/obs"
	"github.com/go-serialio/serialio/internal/parser"
	"github.com/go-serialio/serialio/internal/sendqueue"
	"github.com/go-serialio/serialio/internal/txn"
)

// SerialIO is the engine: it owns one Transport, the parser that turns
// its byte stream into Messages, the transaction table that correlates
// replies, and the write queue that serializes sends.
type SerialIO struct {
	portPath  string
	baudRate  int
	transport Transport

	timeout        time.Duration
	pingTimeout    time.Duration
	chunkSize      int
	reopenInterval time.Duration

	logger  *obs.Logger
	metrics *obs.Metrics

	parser *parser.Parser
	holder *txn.Holder
	queue  *sendqueue.Queue

	mu sync.RWMutex
	// started is true from a successful Open until the matching Close;
	// open tracks whether the transport is currently connected, which
	// can go false and true again across a reopen while started stays
	// true throughout.
	started    bool
	open       bool
	closing    bool
	cancel     context.CancelFunc
	loopDone   chan struct{}
	queueDone  chan struct{}
	reopenStop chan struct{}

	onMessage MessageHandler
	onOpen    func()
	onClose   func(err error, unexpected bool)
	onDrain   func()
	onError   func(err error)
}

// New constructs a SerialIO bound to portPath, using the real
// go.bug.st/serial-backed Transport unless an Option supplies one (most
// commonly WithTransport in tests).
func New(portPath string, opts ...Option) *SerialIO {
	s := &SerialIO{portPath: portPath}

	for _, opt := range defaultOptions() {
		opt(s)
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = obs.NewNop()
	}
	if s.metrics == nil {
		s.metrics = obs.NewMetrics()
	}
	s.holder = txn.NewHolder()
	s.parser = parser.New(s.handleMessage, parser.WithErrorHandler(s.handleParserError))

	if s.transport == nil {
		s.transport = newSerialTransport(portPath, s.baudRate)
	}

	return s
}

// Metrics returns the engine's metrics instance, e.g. to register it
// with a obs.PrometheusExporter.
func (s *SerialIO) Metrics() *obs.Metrics { return s.metrics }

// Open opens the transport and starts the engine's background
// goroutines. It calls Transport.Open synchronously and returns its
// result; ctx is not consulted.
func (s *SerialIO) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("serialio: already open")
	}

	if err := s.transport.Open(); err != nil {
		s.mu.Unlock()
		return &TransportError{Op: "open", Err: err}
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.loopDone = make(chan struct{})
	s.queueDone = make(chan struct{})
	s.reopenStop = make(chan struct{})
	s.queue = sendqueue.New(s.transport).WithChunkSize(s.chunkSize)
	s.started = true
	s.open = true
	s.closing = false
	s.mu.Unlock()

	go s.runQueue(loopCtx)
	go s.runEventLoop(loopCtx)

	if s.onOpen != nil {
		s.safeCall(func() { s.onOpen() })
	}

	return nil
}

// Close closes the transport and stops all background goroutines. Every
// transaction still waiting on a reply is failed with ErrClosing. Close
// is idempotent.
func (s *SerialIO) Close() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	s.started = false
	s.open = false
	cancel := s.cancel
	close(s.reopenStop)
	s.mu.Unlock()

	cancel()
	err := s.transport.Close()

	s.holder.FailAll(ErrClosing)
	if s.queue != nil {
		s.queue.Close()
	}

	if s.onClose != nil {
		s.safeCall(func() { s.onClose(nil, false) })
	}

	if err != nil {
		return &TransportError{Op: "close", Err: err}
	}
	return nil
}

// IsOpen reports whether the transport is currently open.
func (s *SerialIO) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open
}

// OnMessage registers the handler invoked for each inbound REQUEST.
// Replacing it is safe at any time but not applied atomically with
// respect to a REQUEST already mid-dispatch.
func (s *SerialIO) OnMessage(h MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMessage = h
}

// OnOpen registers a callback fired once right after Open succeeds, and
// again after every successful reopen.
func (s *SerialIO) OnOpen(h func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onOpen = h
}

// OnClose registers a callback fired when the transport closes, either
// because Close was called (unexpected=false) or because the transport
// reported an unsolicited close (unexpected=true, err set if known).
func (s *SerialIO) OnClose(h func(err error, unexpected bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = h
}

// OnDrain registers a callback fired on each EventDrain from the
// transport.
func (s *SerialIO) OnDrain(h func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDrain = h
}

// OnError registers a callback fired on background errors the engine
// would otherwise only log: parser panics, handler panics, reopen
// failures, and transport EventError occurrences.
func (s *SerialIO) OnError(h func(err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onError = h
}

// safeCall recovers a panicking user callback instead of letting it take
// down the calling goroutine (which, for most callers, is the engine's
// own event loop).
func (s *SerialIO) safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.metrics.RecordHandlerPanic()
			s.logger.Errorw("recovered callback panic", "panic", r)
			s.reportError(fmt.Errorf("serialio: callback panicked: %v", r))
		}
	}()
	fn()
}

func (s *SerialIO) reportError(err error) {
	s.mu.RLock()
	h := s.onError
	s.mu.RUnlock()
	if h != nil {
		h(err)
	}
}

func (s *SerialIO) handleParserError(err error) {
	s.logger.Errorw("parser error", "err", err)
	s.reportError(err)
}
