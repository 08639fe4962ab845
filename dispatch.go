package serialio

import (
	"context"
	"fmt"
	"time"

	"github.com/go-serialio/serialio/internal/wire"
)

// runEventLoop is the engine's transport event loop: it owns the
// lifetime of s.transport.Events() for as long as loopCtx is alive.
func (s *SerialIO) runEventLoop(loopCtx context.Context) {
	defer close(s.loopDone)

	for {
		select {
		case ev, ok := <-s.transport.Events():
			if !ok {
				return
			}
			s.handleEvent(loopCtx, ev)
		case <-loopCtx.Done():
			return
		}
	}
}

func (s *SerialIO) handleEvent(loopCtx context.Context, ev Event) {
	switch ev.Kind {
	case EventData:
		s.parser.ParseData(ev.Data)
	case EventOpen:
		s.mu.RLock()
		h := s.onOpen
		s.mu.RUnlock()
		if h != nil {
			s.safeCall(h)
		}
	case EventDrain:
		s.mu.RLock()
		h := s.onDrain
		s.mu.RUnlock()
		if h != nil {
			s.safeCall(h)
		}
	case EventError:
		s.logger.Warnw("transport error event", "err", ev.Err)
		s.reportError(&TransportError{Op: "transport", Err: ev.Err})
	case EventClose:
		s.handleUnexpectedClose(loopCtx, ev.Err)
	}
}

// handleUnexpectedClose runs when the transport itself reports a close
// (as opposed to Close having been called by the user), and starts the
// reopen loop.
func (s *SerialIO) handleUnexpectedClose(loopCtx context.Context, err error) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return
	}
	s.open = false
	h := s.onClose
	reopenStop := s.reopenStop
	s.mu.Unlock()

	s.holder.FailAll(&TransportError{Op: "closed", Err: err})

	if h != nil {
		s.safeCall(func() { h(err, true) })
	}

	go s.reopenLoop(loopCtx, reopenStop)
}

// reopenLoop retries Open every s.reopenInterval until it succeeds, the
// engine is explicitly closed, or loopCtx is canceled.
func (s *SerialIO) reopenLoop(loopCtx context.Context, stop chan struct{}) {
	ticker := time.NewTicker(s.reopenInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-loopCtx.Done():
			return
		case <-ticker.C:
			s.metrics.RecordReopenAttempt()
			if err := s.transport.Open(); err != nil {
				s.logger.Debugw("reopen attempt failed", "err", err)
				s.reportError(&TransportError{Op: "reopen", Err: err})
				continue
			}

			s.mu.Lock()
			s.open = true
			h := s.onOpen
			s.mu.Unlock()
			if h != nil {
				s.safeCall(h)
			}
			return
		}
	}
}

func (s *SerialIO) runQueue(ctx context.Context) {
	defer close(s.queueDone)
	s.queue.Run(ctx)
}

// handleMessage is the parser's sink: it dispatches a fully parsed frame
// by TYPE.
func (s *SerialIO) handleMessage(msg wire.Message) {
	s.metrics.RecordFrameParsed()

	switch msg.Type() {
	case wire.TypeRequest:
		s.dispatchRequest(msg)
	case wire.TypePing:
		s.dispatchPing(msg)
	case wire.TypeReply:
		s.holder.Resolve(msg.ID(), msg)
		s.metrics.RecordTransactionResolved()
	case wire.TypeError:
		s.holder.Resolve(msg.ID(), msg)
		s.metrics.RecordTransactionResolved()
	default:
		s.logger.Warnw("dropping frame with unknown type", "type", msg.Type(), "id", msg.ID())
	}
}

func (s *SerialIO) dispatchRequest(msg wire.Message) {
	s.mu.RLock()
	h := s.onMessage
	s.mu.RUnlock()

	if h == nil {
		s.logger.Debugw("no handler registered, dropping REQUEST", "id", msg.ID())
		return
	}

	id := msg.ID()
	frozen := wire.View(append([]byte(nil), msg.Raw()...))

	var (
		reply []byte
		err   error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				s.metrics.RecordHandlerPanic()
				s.logger.Errorw("message handler panicked", "panic", r, "id", id)
				s.reportError(fmt.Errorf("serialio: message handler panicked: %v", r))
				err = &RemoteError{ID: id, Message: "internal error"}
			}
		}()
		reply, err = h(frozen)
	}()

	if err != nil {
		if sendErr := s.SendErrorReply(id, err); sendErr != nil {
			s.logger.Errorw("failed to send error reply", "id", id, "err", sendErr)
		}
		return
	}
	if sendErr := s.SendReply(id, reply); sendErr != nil {
		s.logger.Errorw("failed to send reply", "id", id, "err", sendErr)
	}
}

// dispatchPing answers a PING with an empty-payload REPLY; PING never
// reaches the user-registered MessageHandler.
func (s *SerialIO) dispatchPing(msg wire.Message) {
	if err := s.SendReply(msg.ID(), nil); err != nil {
		s.logger.Errorw("failed to reply to ping", "id", msg.ID(), "err", err)
	}
}
