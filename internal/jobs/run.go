package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"subforge/internal/timeline"
)

// ErrCancelled is returned by a job that stopped because its handle was
// cancelled.
var ErrCancelled = errors.New("job cancelled")

// Run is the worker-side view of a job: it polls cancellation and emits
// events onto the job's own channel. Segment and field events are dropped
// once cancellation has been requested.
type Run struct {
	ctx    context.Context
	handle *Handle
	logger *slog.Logger
	now    func() time.Time
	seq    uint64
}

// ID returns the job identifier.
func (r *Run) ID() string { return r.handle.id }

// Logger returns the job-scoped logger.
func (r *Run) Logger() *slog.Logger { return r.logger }

// Cancelled reports whether the handle was cancelled.
func (r *Run) Cancelled() bool {
	return r.handle.CancelRequested()
}

// ProduceSegment emits a SegmentProduced event. It returns false without
// emitting when the job has been cancelled.
func (r *Run) ProduceSegment(seg timeline.Segment) bool {
	if r.Cancelled() {
		return false
	}
	return r.emit(Event{Type: EventSegmentProduced, Segment: &seg, Row: seg.Index - 1})
}

// UpdateField emits a FieldUpdated event addressed by segment identity, with
// row as the fallback when id is zero. It returns false without emitting
// when the job has been cancelled.
func (r *Run) UpdateField(row int, id uint64, field timeline.Field, value string) bool {
	if r.Cancelled() {
		return false
	}
	return r.emit(Event{Type: EventFieldUpdated, Row: row, SegmentID: id, Field: field, Value: value})
}

// Progress emits a Progress event.
func (r *Run) Progress(current, total int) {
	r.emit(Event{Type: EventProgress, Current: current, Total: total})
}

func (r *Run) emit(ev Event) bool {
	r.seq++
	ev.Seq = r.seq
	ev.JobID = r.handle.id
	ev.Kind = r.handle.kind
	ev.Timestamp = r.now()
	select {
	case r.handle.events <- ev:
		return true
	case <-r.ctx.Done():
		return false
	}
}
