package workbench

import (
	"context"
	"sync"
	"time"

	"subforge/internal/jobs"
	"subforge/internal/timeline"
)

// NotificationType classifies a workbench notification.
type NotificationType string

const (
	NotifyTimeline NotificationType = "timeline"
	NotifyJob      NotificationType = "job"
	NotifyMedia    NotificationType = "media"
	NotifyModel    NotificationType = "model"
)

// Notification is one delta delivered to presenters.
type Notification struct {
	Sequence  uint64           `json:"seq"`
	Timestamp time.Time        `json:"ts"`
	Type      NotificationType `json:"type"`
	Change    *timeline.Change `json:"change,omitempty"`
	Event     *jobs.Event      `json:"event,omitempty"`
	Media     *MediaState      `json:"media,omitempty"`
	Model     *ModelState      `json:"model,omitempty"`
}

// Presenter receives every published notification synchronously. Present is
// called on the control goroutine and must not call back into the Workbench.
type Presenter interface {
	Present(Notification)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(Notification)

// Present implements Presenter.
func (f PresenterFunc) Present(n Notification) { f(n) }

// Hub keeps recent notifications and wakes waiters when new ones arrive.
type Hub struct {
	mu         sync.Mutex
	cond       *sync.Cond
	capacity   int
	buffer     []Notification
	nextSeq    uint64
	presenters []Presenter
}

// NewHub constructs a bounded notification buffer.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 1024
	}
	h := &Hub{capacity: capacity}
	h.cond = sync.NewCond(&h.mu)
	return h
}

// AddPresenter wires a presenter that receives every published notification.
func (h *Hub) AddPresenter(p Presenter) {
	if h == nil || p == nil {
		return
	}
	h.mu.Lock()
	h.presenters = append(h.presenters, p)
	h.mu.Unlock()
}

// Publish assigns the next sequence number and buffers n.
func (h *Hub) Publish(n Notification) {
	if h == nil {
		return
	}
	h.mu.Lock()
	h.nextSeq++
	n.Sequence = h.nextSeq
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now().UTC()
	}
	if len(h.buffer) == h.capacity {
		copy(h.buffer, h.buffer[1:])
		h.buffer = h.buffer[:h.capacity-1]
	}
	h.buffer = append(h.buffer, n)
	presenters := append([]Presenter(nil), h.presenters...)
	h.cond.Broadcast()
	h.mu.Unlock()

	for _, p := range presenters {
		p.Present(n)
	}
}

// Fetch returns buffered notifications with sequence greater than since.
// When wait is true it blocks until one is available or ctx ends.
func (h *Hub) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]Notification, uint64, error) {
	if h == nil {
		return nil, since, nil
	}
	if limit <= 0 || limit > h.capacity {
		limit = h.capacity
	}

	cancelWait := make(chan struct{})
	if wait && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				h.mu.Lock()
				h.cond.Broadcast()
				h.mu.Unlock()
			case <-cancelWait:
			}
		}()
	}
	defer close(cancelWait)

	h.mu.Lock()
	defer h.mu.Unlock()
	for {
		out, next := h.snapshotLocked(since, limit)
		if len(out) > 0 || !wait {
			return out, next, ctx.Err()
		}
		if err := ctx.Err(); err != nil {
			return nil, next, err
		}
		h.cond.Wait()
	}
}

// Last returns the sequence number of the newest notification.
func (h *Hub) Last() uint64 {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.nextSeq
}

func (h *Hub) snapshotLocked(since uint64, limit int) ([]Notification, uint64) {
	start := len(h.buffer)
	for i, n := range h.buffer {
		if n.Sequence > since {
			start = i
			break
		}
	}
	if start == len(h.buffer) {
		return nil, h.nextSeq
	}
	end := min(start+limit, len(h.buffer))
	out := make([]Notification, end-start)
	copy(out, h.buffer[start:end])
	return out, out[len(out)-1].Sequence
}
