package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"subforge/internal/logging"
	"subforge/internal/recognizer"
	"subforge/internal/services"
)

const defaultEventBuffer = 64

// Supervisor owns the live job handles and the loaded recognition model.
// It enforces one live handle per exclusive kind and fans every job's event
// stream into a single channel for the control loop.
type Supervisor struct {
	logger   *slog.Logger
	recorder Recorder
	buffer   int
	now      func() time.Time

	baseCtx    context.Context
	cancelBase context.CancelFunc
	out        chan Event

	mu       sync.Mutex
	live     map[Kind]*Handle
	handles  map[string]*Handle
	model    recognizer.Model
	shutdown bool
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithRecorder persists job lifecycle transitions.
func WithRecorder(recorder Recorder) Option {
	return func(s *Supervisor) {
		s.recorder = recorder
	}
}

// WithEventBuffer sets the per-job and fan-in channel capacity.
func WithEventBuffer(size int) Option {
	return func(s *Supervisor) {
		if size > 0 {
			s.buffer = size
		}
	}
}

// WithClock overrides the time source (used by tests).
func WithClock(now func() time.Time) Option {
	return func(s *Supervisor) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSupervisor constructs a Supervisor.
func NewSupervisor(logger *slog.Logger, opts ...Option) *Supervisor {
	s := &Supervisor{
		logger:  logging.NewComponentLogger(logger, "jobs"),
		buffer:  defaultEventBuffer,
		now:     time.Now,
		live:    make(map[Kind]*Handle),
		handles: make(map[string]*Handle),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.baseCtx, s.cancelBase = context.WithCancel(context.Background())
	s.out = make(chan Event, s.buffer)
	return s
}

// Events returns the merged event stream of all jobs. It is never closed.
func (s *Supervisor) Events() <-chan Event {
	return s.out
}

// Start validates exclusivity, registers a Running handle for job and runs
// it in the background. A second exclusive job of a live kind fails with
// ErrJobBusy; a new audio decode cancels the previous one.
func (s *Supervisor) Start(ctx context.Context, job Job) (*Handle, error) {
	return s.start(ctx, func() (Job, error) { return job, nil })
}

// StartWithModel builds a job around the shared model and registers it
// while the model is held, so UnloadModel and InstallModel see the job as
// live. It fails with ErrResourceUnavailable when no model is loaded.
func (s *Supervisor) StartWithModel(ctx context.Context, build func(recognizer.Model) (Job, error)) (*Handle, error) {
	return s.start(ctx, func() (Job, error) {
		if s.model == nil {
			return nil, services.Wrap(services.ErrResourceUnavailable, "start job", "", "no model loaded", nil)
		}
		return build(s.model)
	})
}

// start runs build under s.mu.
func (s *Supervisor) start(ctx context.Context, build func() (Job, error)) (*Handle, error) {
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		return nil, services.Wrap(services.ErrResourceUnavailable, "start job", "", "supervisor is shutting down", nil)
	}
	job, err := build()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	kind := job.Kind()
	if current := s.live[kind]; current != nil && current.Live() {
		if kind.Exclusive() {
			s.mu.Unlock()
			logging.WarnWithContext(s.logger, "job start rejected", "job_busy",
				logging.String(logging.FieldJobKind, string(kind)),
				logging.String("running_job_id", current.ID()),
				logging.String(logging.FieldErrorHint, services.Hint(services.ErrJobBusy)),
				logging.String(logging.FieldImpact, "new job not started"),
			)
			return nil, services.Wrap(services.ErrJobBusy, "start job", string(kind), "a job of this kind is already running", nil)
		}
		current.Cancel()
		s.logger.Info("replacing running job",
			logging.String(logging.FieldJobKind, string(kind)),
			logging.String("replaced_job_id", current.ID()),
			logging.String(logging.FieldEventType, "job_replaced"),
		)
	}

	handle := newHandle(uuid.NewString(), kind, job.Subject(), s.buffer)
	if err := handle.transition(StateRunning, "", s.now()); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.live[kind] = handle
	s.handles[handle.id] = handle
	s.mu.Unlock()

	runCtx := services.WithJobKind(services.WithJobID(s.baseCtx, handle.id), string(kind))
	if reqID, ok := services.RequestIDFromContext(ctx); ok {
		runCtx = services.WithRequestID(runCtx, reqID)
	}
	logger := logging.WithContext(runCtx, s.logger)
	run := &Run{ctx: runCtx, handle: handle, logger: logger, now: s.now}

	s.record(ctx, handle, true)
	logger.Info("job started",
		logging.String("subject", handle.subject),
		logging.String(logging.FieldEventType, "job_started"),
	)

	go s.forward(handle)
	go s.execute(runCtx, job, run)
	return handle, nil
}

// Cancel requests cancellation of the live job of kind. It returns the
// handle that was signalled, or false when none was live.
func (s *Supervisor) Cancel(kind Kind) (*Handle, bool) {
	s.mu.Lock()
	handle := s.live[kind]
	s.mu.Unlock()
	if handle == nil || !handle.Live() {
		return nil, false
	}
	handle.Cancel()
	s.logger.With(logging.Job(string(kind), handle.ID())...).Info("job cancellation requested",
		logging.String(logging.FieldEventType, "job_cancel_requested"),
	)
	return handle, true
}

// Live returns the live handle of kind, if any.
func (s *Supervisor) Live(kind Kind) (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle := s.live[kind]
	if handle == nil || !handle.Live() {
		return nil, false
	}
	return handle, true
}

// Handle looks up a handle started by this supervisor.
func (s *Supervisor) Handle(id string) (*Handle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	handle, ok := s.handles[id]
	return handle, ok
}

// Running lists every live handle.
func (s *Supervisor) Running() []*Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Handle, 0, len(s.live))
	for _, kind := range Kinds {
		if handle := s.live[kind]; handle != nil && handle.Live() {
			out = append(out, handle)
		}
	}
	return out
}

// Shutdown cancels every live job and waits up to timeout for each. Jobs
// still running afterwards are abandoned and their IDs returned. The loaded
// model is released.
func (s *Supervisor) Shutdown(timeout time.Duration) []string {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()

	var abandoned []string
	for _, handle := range s.Running() {
		handle.Cancel()
		if handle.Wait(context.Background(), timeout) {
			continue
		}
		abandoned = append(abandoned, handle.ID())
		logging.WarnWithContext(s.logger.With(logging.Job(string(handle.Kind()), handle.ID())...), "job abandoned at shutdown", "job_abandoned",
			logging.Duration("timeout", timeout),
			logging.String(logging.FieldErrorHint, "the job did not observe cancellation in time"),
			logging.String(logging.FieldImpact, "job output discarded"),
		)
	}
	s.cancelBase()

	s.mu.Lock()
	model := s.model
	s.model = nil
	s.mu.Unlock()
	if model != nil {
		if err := model.Close(); err != nil {
			s.logger.Warn("model close failed", logging.Error(err))
		}
	}
	return abandoned
}

func (s *Supervisor) forward(handle *Handle) {
	for ev := range handle.events {
		select {
		case s.out <- ev:
		case <-s.baseCtx.Done():
			return
		}
	}
}

func (s *Supervisor) execute(ctx context.Context, job Job, run *Run) {
	handle := run.handle
	defer close(handle.done)
	defer close(handle.events)

	result, err := s.invoke(ctx, job, run)

	var (
		state  State
		reason string
		ev     Event
	)
	switch {
	case err == nil:
		state = StateCompleted
		ev = Event{Type: EventCompleted, Result: &result}
	case errors.Is(err, ErrCancelled) || handle.CancelRequested():
		state = StateCancelled
		reason = fmt.Sprintf("%s cancelled", job.Kind())
		ev = Event{Type: EventCancelled, Reason: reason}
	default:
		state = StateFailed
		reason = fmt.Sprintf("%s failed: %v", job.Kind(), err)
		ev = Event{Type: EventFailed, Reason: reason, Err: err}
	}

	if terr := handle.transition(state, reason, s.now()); terr != nil {
		s.logger.Error("job transition failed", logging.Error(terr))
	}
	s.mu.Lock()
	if s.live[handle.kind] == handle {
		delete(s.live, handle.kind)
	}
	s.mu.Unlock()
	s.record(context.Background(), handle, false)
	s.logTerminal(run.logger, state, reason, err)
	run.emit(ev)
}

func (s *Supervisor) invoke(ctx context.Context, job Job, run *Run) (result Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = services.Wrap(services.ErrExternalFailure, string(job.Kind()), job.Subject(), fmt.Sprintf("panic: %v", r), nil)
		}
	}()
	if v, ok := job.(Validator); ok {
		if err := v.Validate(); err != nil {
			return Result{}, err
		}
	}
	if run.Cancelled() {
		return Result{}, ErrCancelled
	}
	return job.Run(ctx, run)
}

func (s *Supervisor) logTerminal(logger *slog.Logger, state State, reason string, err error) {
	switch state {
	case StateCompleted:
		logger.Info("job completed", logging.String(logging.FieldEventType, "job_completed"))
	case StateCancelled:
		logger.Info("job cancelled", logging.String(logging.FieldEventType, "job_cancelled"))
	default:
		logging.ErrorWithContext(logger, "job failed", "job_failed",
			logging.String("reason", reason),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)),
		)
	}
}

func (s *Supervisor) record(ctx context.Context, handle *Handle, start bool) {
	if s.recorder == nil {
		return
	}
	rec := Record{
		ID:         handle.ID(),
		Kind:       handle.Kind(),
		State:      handle.State(),
		Subject:    handle.Subject(),
		Reason:     handle.Reason(),
		StartedAt:  handle.StartedAt(),
		FinishedAt: handle.FinishedAt(),
	}
	var err error
	if start {
		err = s.recorder.RecordStart(ctx, rec)
	} else {
		err = s.recorder.RecordFinish(ctx, rec)
	}
	if err != nil {
		logging.WarnWithContext(s.logger, "job ledger write failed", "job_ledger_failed",
			logging.String(logging.FieldJobID, handle.ID()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the state directory"),
			logging.String(logging.FieldImpact, "job history incomplete"),
		)
	}
}
