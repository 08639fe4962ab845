package sendqueue

import "errors"

// ErrClosed is returned by Submit for jobs that were queued (or arrive)
// after Close.
var ErrClosed = errors.New("sendqueue: closed")
