package rate

import (
	"errors"
	"fmt"
	"time"
)

// ErrRateLimited is an exported constant or variable used by the access-control engine.
var ErrRateLimited = errors.New("rate limited")

// LimitedError defines a public type used by the authcore APIs.
//
// LimitedError instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LimitedError struct {
	Action     string
	RetryAfter time.Duration
}

// Error describes the error operation and its observable behavior.
//
// Error does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *LimitedError) Error() string {
	return fmt.Sprintf("rate limited: action %s, retry after %s", e.Action, e.RetryAfter)
}

// Is describes the is operation and its observable behavior.
//
// Is does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *LimitedError) Is(target error) bool {
	return target == ErrRateLimited
}
