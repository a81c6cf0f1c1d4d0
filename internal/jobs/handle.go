package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"subforge/internal/services"
)

// Handle is the control-side view of one job run. Cancellation is
// cooperative: Cancel only raises a flag the job polls at unit boundaries.
type Handle struct {
	id      string
	kind    Kind
	subject string

	cancelled atomic.Bool
	events    chan Event
	done      chan struct{}

	mu       sync.Mutex
	state    State
	reason   string
	started  time.Time
	finished time.Time
}

func newHandle(id string, kind Kind, subject string, buffer int) *Handle {
	return &Handle{
		id:      id,
		kind:    kind,
		subject: subject,
		events:  make(chan Event, buffer),
		done:    make(chan struct{}),
		state:   StateIdle,
	}
}

// ID returns the job identifier.
func (h *Handle) ID() string { return h.id }

// Kind returns the job kind.
func (h *Handle) Kind() Kind { return h.kind }

// Subject returns the media path or description the job works on.
func (h *Handle) Subject() string { return h.subject }

// State returns the current lifecycle state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Reason returns the failure or cancellation reason, if any.
func (h *Handle) Reason() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reason
}

// StartedAt returns when the handle entered Running.
func (h *Handle) StartedAt() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.started
}

// FinishedAt returns when the handle reached a terminal state.
func (h *Handle) FinishedAt() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.finished
}

// Live reports whether the handle has not reached a terminal state.
func (h *Handle) Live() bool {
	return !h.State().Terminal()
}

// Cancel requests cooperative cancellation.
func (h *Handle) Cancel() {
	h.cancelled.Store(true)
}

// CancelRequested reports whether Cancel was called.
func (h *Handle) CancelRequested() bool {
	return h.cancelled.Load()
}

// Done is closed once the handle is terminal and its event stream closed.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the handle is done, ctx ends, or timeout elapses. It
// reports whether the handle finished.
func (h *Handle) Wait(ctx context.Context, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-h.done:
		return true
	case <-ctx.Done():
		return false
	case <-timer.C:
		return false
	}
}

func (h *Handle) transition(to State, reason string, at time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.state.canTransition(to) {
		return services.Wrap(services.ErrInvalidRange, "job transition", h.id, fmt.Sprintf("%s -> %s not allowed", h.state, to), nil)
	}
	h.state = to
	h.reason = reason
	if to == StateRunning {
		h.started = at
	} else {
		h.finished = at
	}
	return nil
}
