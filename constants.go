package serialio

import "github.com/go-serialio/serialio/internal/constants"

// Re-exported so callers configuring Options never need to import
// internal/constants themselves.
const (
	DefaultTimeout   = constants.DefaultTimeout
	PingTimeout      = constants.PingTimeout
	ReopenInterval   = constants.ReopenInterval
	DefaultChunkSize = constants.DefaultChunkSize
	DefaultBaudRate  = constants.DefaultBaudRate
)
