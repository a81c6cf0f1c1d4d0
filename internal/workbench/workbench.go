package workbench

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"subforge/internal/config"
	"subforge/internal/jobs"
	"subforge/internal/logging"
	"subforge/internal/recognizer"
	"subforge/internal/services"
	"subforge/internal/subtitles"
	"subforge/internal/timeline"
)

// ErrStopped is returned by operations issued after Shutdown.
var ErrStopped = errors.New("workbench stopped")

// MediaDecoder decodes waveform envelopes and extracts sub-ranges.
type MediaDecoder interface {
	jobs.EnvelopeDecoder
	jobs.RangeExtractor
}

// Translator is the translation endpoint used by translation jobs.
type Translator interface {
	jobs.Translator
	ListModels(ctx context.Context) ([]string, error)
}

// Deps are the collaborators a Workbench drives.
type Deps struct {
	Supervisor *jobs.Supervisor
	Decoder    MediaDecoder
	Loader     recognizer.Loader
	// Translator may be nil when no endpoint is configured.
	Translator Translator
	Cache      *subtitles.Cache
}

// Workbench is the control loop for one editing session. A single goroutine
// owns the Timeline and media state; every edit runs on it and every job
// event is applied on it in arrival order.
type Workbench struct {
	cfg    *config.Config
	logger *slog.Logger
	deps   Deps
	hub    *Hub

	cmds     chan func()
	quit     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	// Owned by the control goroutine.
	timeline   *timeline.Timeline
	media      MediaState
	generation uint64
	decodeJob  string
	jobGen     map[string]uint64
	settled    map[string]*settlement

	// transcribeJob is the transcription whose segments the Timeline
	// accepts. Opening media or importing subtitles resets it.
	transcribeJob string
}

type settlement struct {
	done  chan struct{}
	event jobs.Event
}

// New constructs a Workbench and starts its control goroutine.
func New(cfg *config.Config, deps Deps, hub *Hub, logger *slog.Logger) *Workbench {
	if hub == nil {
		hub = NewHub(0)
	}
	w := &Workbench{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "workbench"),
		deps:    deps,
		hub:     hub,
		cmds:    make(chan func()),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
		jobGen:  make(map[string]uint64),
		settled: make(map[string]*settlement),
	}
	w.timeline = timeline.New(w.onChange)
	go w.loop()
	return w
}

// Hub returns the notification hub presenters subscribe to.
func (w *Workbench) Hub() *Hub { return w.hub }

// Config returns the configuration the workbench was built with.
func (w *Workbench) Config() *config.Config { return w.cfg }

func (w *Workbench) loop() {
	defer close(w.stopped)
	events := w.deps.Supervisor.Events()
	for {
		select {
		case fn := <-w.cmds:
			fn()
		case ev := <-events:
			w.apply(ev)
		case <-w.quit:
			return
		}
	}
}

// do runs fn on the control goroutine and returns its error.
func (w *Workbench) do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	select {
	case w.cmds <- func() { errc <- fn() }:
	case <-w.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errc:
		return err
	case <-w.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Workbench) onChange(change timeline.Change) {
	w.hub.Publish(Notification{Type: NotifyTimeline, Change: &change})
}

func (w *Workbench) publishMedia() {
	media := w.media
	w.hub.Publish(Notification{Type: NotifyMedia, Media: &media})
}

func (w *Workbench) publishModel() {
	model := w.Model()
	w.hub.Publish(Notification{Type: NotifyModel, Model: &model})
}

// apply folds one job event into the Timeline and forwards it.
func (w *Workbench) apply(ev jobs.Event) {
	gen, tracked := w.jobGen[ev.JobID]
	stale := tracked && gen != w.generation

	switch ev.Type {
	case jobs.EventSegmentProduced:
		if stale || ev.Segment == nil || ev.JobID != w.transcribeJob {
			w.logger.Debug("dropping segment from stale job", logging.String(logging.FieldJobID, ev.JobID))
			break
		}
		w.timeline.Insert(*ev.Segment)
	case jobs.EventFieldUpdated:
		if _, ok := w.timeline.SetField(ev.SegmentID, ev.Row, ev.Field, ev.Value); !ok {
			w.logger.Info("field update dropped; segment no longer exists",
				logging.String(logging.FieldJobID, ev.JobID),
				logging.Int("row", ev.Row+1),
				logging.String("field", string(ev.Field)),
				logging.String(logging.FieldEventType, "field_update_dropped"),
			)
		}
	case jobs.EventCompleted:
		w.applyCompleted(ev, stale)
	case jobs.EventFailed, jobs.EventCancelled:
		if ev.Kind == jobs.KindAudioDecode && ev.JobID == w.decodeJob {
			w.media.Decoding = false
			if ev.Type == jobs.EventFailed {
				w.media.DecodeError = ev.Reason
			}
			w.publishMedia()
		}
	}

	w.hub.Publish(Notification{Type: NotifyJob, Event: &ev})

	if ev.Type.Terminal() {
		delete(w.jobGen, ev.JobID)
		if s, ok := w.settled[ev.JobID]; ok {
			s.event = ev
			close(s.done)
		}
	}
}

func (w *Workbench) applyCompleted(ev jobs.Event, stale bool) {
	if ev.Result == nil || stale {
		return
	}
	switch ev.Kind {
	case jobs.KindAudioDecode:
		if ev.JobID != w.decodeJob || ev.Result.Envelope == nil {
			return
		}
		env := ev.Result.Envelope
		w.media.Decoding = false
		w.media.DecodeError = ""
		w.media.Envelope = env
		w.media.Duration = env.Duration
		w.media.Points = len(env.Points)
		w.publishMedia()
	case jobs.KindTranscription:
		if ev.JobID == w.transcribeJob && ev.Result.OutputPath != "" {
			w.media.SubtitlePath = ev.Result.OutputPath
			w.publishMedia()
		}
	}
}

// track registers a started job for staleness checks and Await.
func (w *Workbench) track(handle *jobs.Handle) {
	w.jobGen[handle.ID()] = w.generation
	w.settled[handle.ID()] = &settlement{done: make(chan struct{})}
}

// Await blocks until the terminal event of a job started through this
// workbench has been applied, and returns it.
func (w *Workbench) Await(ctx context.Context, jobID string) (jobs.Event, error) {
	var s *settlement
	err := w.do(ctx, func() error {
		var ok bool
		if s, ok = w.settled[jobID]; !ok {
			return services.Wrap(services.ErrResourceUnavailable, "await job", jobID, "unknown job", nil)
		}
		return nil
	})
	if err != nil {
		return jobs.Event{}, err
	}
	select {
	case <-s.done:
		return s.event, nil
	case <-ctx.Done():
		return jobs.Event{}, ctx.Err()
	case <-w.stopped:
		return jobs.Event{}, ErrStopped
	}
}

// Snapshot returns a consistent view of the session.
func (w *Workbench) Snapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := w.do(ctx, func() error {
		segments := w.timeline.Segments()
		snap.Segments = make([]timeline.View, len(segments))
		for i, seg := range segments {
			snap.Segments[i] = timeline.ViewOf(seg)
		}
		snap.Media = w.media
		snap.Sequence = w.hub.Last()
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	snap.Model = w.Model()
	snap.Jobs = w.Jobs()
	return snap, nil
}

// Jobs lists the live job handles.
func (w *Workbench) Jobs() []JobView {
	running := w.deps.Supervisor.Running()
	out := make([]JobView, 0, len(running))
	for _, h := range running {
		out = append(out, ViewOfHandle(h))
	}
	return out
}

// Job looks up any job started during this session.
func (w *Workbench) Job(id string) (JobView, bool) {
	h, ok := w.deps.Supervisor.Handle(id)
	if !ok {
		return JobView{}, false
	}
	return ViewOfHandle(h), true
}

// Cancel requests cancellation of the live job of kind. Results the job
// already reported stay in the Timeline.
func (w *Workbench) Cancel(kind jobs.Kind) (JobView, bool) {
	h, ok := w.deps.Supervisor.Cancel(kind)
	if !ok {
		return JobView{}, false
	}
	return ViewOfHandle(h), true
}

// Shutdown cancels every live job, waits up to timeout for each, then stops
// the control goroutine. It returns the IDs of abandoned jobs.
func (w *Workbench) Shutdown(timeout time.Duration) []string {
	// The control loop keeps draining while the supervisor waits.
	abandoned := w.deps.Supervisor.Shutdown(timeout)
	w.stopOnce.Do(func() { close(w.quit) })
	<-w.stopped
	return abandoned
}

func (w *Workbench) busy(op string, kinds ...jobs.Kind) error {
	for _, kind := range kinds {
		if h, ok := w.deps.Supervisor.Live(kind); ok {
			return services.Wrap(services.ErrJobBusy, op, string(kind), "job "+h.ID()+" is running", nil)
		}
	}
	return nil
}
