package serialio

import (
	"time"

	"github.com/go-serialio/serialio/internal/constants"
	"github.com/go-serialio/serialio/internal/obs"
	"github.com/go-serialio/serialio/internal/wire"
)

// MessageHandler handles an inbound REQUEST. It returns the REPLY
// payload, or an error whose Error() text becomes the ERROR payload sent
// back instead.
type MessageHandler func(wire.Message) ([]byte, error)

// Option configures a SerialIO at construction time.
type Option func(*SerialIO)

// WithBaudRate sets the baud rate used by the default go.bug.st/serial
// transport. Ignored when WithTransport supplies a custom Transport.
func WithBaudRate(baud int) Option {
	return func(s *SerialIO) { s.baudRate = baud }
}

// WithTransport overrides the default real-serial-port Transport, e.g.
// with a transport/pipe.Pipe in tests.
func WithTransport(t Transport) Option {
	return func(s *SerialIO) { s.transport = t }
}

// WithTimeout sets the default reply timeout for SendRequest.
func WithTimeout(d time.Duration) Option {
	return func(s *SerialIO) { s.timeout = d }
}

// WithPingTimeout sets the timeout used by Ping.
func WithPingTimeout(d time.Duration) Option {
	return func(s *SerialIO) { s.pingTimeout = d }
}

// WithChunkSize bounds how many bytes sendInParts writes per Transport
// Write call.
func WithChunkSize(n int) Option {
	return func(s *SerialIO) { s.chunkSize = n }
}

// WithReopenInterval sets the delay between reopen attempts after an
// unexpected close.
func WithReopenInterval(d time.Duration) Option {
	return func(s *SerialIO) { s.reopenInterval = d }
}

// WithLogger installs a structured logger. The default is a no-op
// logger.
func WithLogger(l *obs.Logger) Option {
	return func(s *SerialIO) { s.logger = l }
}

// WithMetrics installs a Metrics instance, letting callers share one
// across multiple SerialIO instances or wire it into a
// obs.PrometheusExporter themselves. The default is a private instance
// only reachable via (*SerialIO).Metrics.
func WithMetrics(m *obs.Metrics) Option {
	return func(s *SerialIO) { s.metrics = m }
}

func defaultOptions() []Option {
	return []Option{
		WithBaudRate(constants.DefaultBaudRate),
		WithTimeout(constants.DefaultTimeout),
		WithPingTimeout(constants.PingTimeout),
		WithChunkSize(constants.DefaultChunkSize),
		WithReopenInterval(constants.ReopenInterval),
	}
}
