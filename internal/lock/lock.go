// Package lock provides the best-effort advisory lock used to reduce,
// not prevent, concurrent re-processing of the same resource. It does
// not serialize blob writes; two processes can still race and the last
// writer wins.
package lock

import (
	"context"
	"time"
)

// Status is the typed outcome of an acquisition attempt.
type Status int

const (
	StatusAcquired Status = iota
	StatusTimedOut
	StatusStorageUnavailable
)

func (s Status) String() string {
	switch s {
	case StatusAcquired:
		return "acquired"
	case StatusTimedOut:
		return "timed_out"
	case StatusStorageUnavailable:
		return "storage_unavailable"
	default:
		return "unknown"
	}
}

// Result carries the acquisition outcome. Token is set only when
// Status is StatusAcquired.
type Result struct {
	Status Status
	Token  string
}

// Locker is the advisory lock service. Acquire polls with bounded
// exponential backoff inside the implementation's wait budget and
// reports the outcome as a typed result, never a nil-token success.
type Locker interface {
	Acquire(ctx context.Context, resource string, ttl time.Duration) Result
	Release(ctx context.Context, token string)
}
