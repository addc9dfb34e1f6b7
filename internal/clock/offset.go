package clock

import (
	"context"
	"errors"
	"sync"
	"time"

	"order_desk/internal/domain"
)

// Offset is the venue clock minus the local clock, in milliseconds.
// serverTime = localTime + Offset.
type Offset int64

// Apply shifts a local time onto the venue clock.
func (o Offset) Apply(t time.Time) time.Time {
	return t.Add(o.Duration())
}

// Duration returns the offset as a time.Duration.
func (o Offset) Duration() time.Duration {
	return time.Duration(o) * time.Millisecond
}

// LocalTimeFunc reads the local clock.
type LocalTimeFunc func() time.Time

// RemoteTimeFunc reads the venue clock.
type RemoteTimeFunc func(ctx context.Context) (time.Time, error)

// State of a Resolver.
type State int

const (
	StateUnresolved State = iota
	StateResolved
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnresolved:
		return "UNRESOLVED"
	case StateResolved:
		return "RESOLVED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

var errNotResolved = errors.New("clock offset is not resolved")

// Resolver computes the offset once per session and caches it.
// A failed resolve is terminal; the fetcher is not called again.
type Resolver struct {
	mu         sync.Mutex
	state      State
	offset     Offset
	err        error
	resolvedAt time.Time
}

// NewResolver returns an unresolved Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve fetches the venue time once and stores the offset.
func (r *Resolver) Resolve(ctx context.Context, now LocalTimeFunc, fetch RemoteTimeFunc) (Offset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateResolved:
		return r.offset, nil
	case StateFailed:
		return 0, r.err
	}

	offset, at, err := measure(ctx, now, fetch)
	if err != nil {
		r.state = StateFailed
		r.err = err
		return 0, err
	}

	r.state = StateResolved
	r.offset = offset
	r.resolvedAt = at
	return offset, nil
}

// Refresh re-measures a resolved offset. On failure the previous offset is kept.
func (r *Resolver) Refresh(ctx context.Context, now LocalTimeFunc, fetch RemoteTimeFunc) (Offset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateResolved {
		if r.state == StateFailed {
			return 0, r.err
		}
		return 0, errNotResolved
	}

	offset, at, err := measure(ctx, now, fetch)
	if err != nil {
		return r.offset, err
	}
	r.offset = offset
	r.resolvedAt = at
	return offset, nil
}

// Offset returns the cached offset, or zero when not resolved.
func (r *Resolver) Offset() Offset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.offset
}

// State returns the current state.
func (r *Resolver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the terminal error of a failed resolver.
func (r *Resolver) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Stale reports whether a resolved offset is older than maxAge.
// A non-positive maxAge never goes stale.
func (r *Resolver) Stale(now time.Time, maxAge time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateResolved || maxAge <= 0 {
		return false
	}
	return now.Sub(r.resolvedAt) > maxAge
}

// measure reads local time around a single fetch and uses the midpoint.
func measure(ctx context.Context, now LocalTimeFunc, fetch RemoteTimeFunc) (Offset, time.Time, error) {
	before := now()
	server, err := fetch(ctx)
	if err != nil {
		return 0, time.Time{}, &domain.TimeSyncError{Err: err}
	}
	after := now()

	local := before.Add(after.Sub(before) / 2)
	return Offset(server.UnixMilli() - local.UnixMilli()), after, nil
}
