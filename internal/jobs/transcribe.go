package jobs

import (
	"context"
	"strings"

	"subforge/internal/logging"
	"subforge/internal/recognizer"
	"subforge/internal/services"
	"subforge/internal/subtitles"
	"subforge/internal/timeline"
)

// CacheStore persists a finished transcript next to other cached subtitles.
type CacheStore interface {
	Store(ctx context.Context, mediaPath string, segments []timeline.Segment, mode subtitles.Mode) (string, error)
}

// TranscriptionJob recognizes the whole media file with a model it loads
// and releases itself. Each span becomes a SegmentProduced event; the full
// transcript is cached only when the run was not cancelled.
type TranscriptionJob struct {
	Media   string
	Model   recognizer.ModelRef
	Options recognizer.Options
	Loader  recognizer.Loader
	Cache   CacheStore
}

func (j *TranscriptionJob) Kind() Kind      { return KindTranscription }
func (j *TranscriptionJob) Subject() string { return j.Media }

func (j *TranscriptionJob) Validate() error {
	switch {
	case strings.TrimSpace(j.Media) == "":
		return services.Wrap(services.ErrResourceUnavailable, "transcribe", "", "no media opened", nil)
	case strings.TrimSpace(j.Model.Path) == "":
		return services.Wrap(services.ErrResourceUnavailable, "transcribe", j.Media, "no model selected", nil)
	case j.Loader == nil:
		return services.Wrap(services.ErrResourceUnavailable, "transcribe", j.Media, "recognizer not configured", nil)
	}
	return nil
}

func (j *TranscriptionJob) Run(ctx context.Context, run *Run) (Result, error) {
	model, err := j.Loader.Load(ctx, j.Model)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalFailure, "transcribe", j.Model.Name, "load model", err)
	}
	stream, err := model.Transcribe(ctx, j.Media, j.Options)
	if err != nil {
		closeModel(run, model)
		return Result{}, services.Wrap(services.ErrExternalFailure, "transcribe", j.Media, "start recognition", err)
	}

	var produced []timeline.Segment
	cancelled := false
	for {
		if run.Cancelled() {
			cancelled = true
			break
		}
		span, ok := stream.Next()
		if !ok {
			break
		}
		seg := timeline.Segment{
			Index:    len(produced) + 1,
			StartSec: span.Start,
			EndSec:   span.End,
			Text:     strings.TrimSpace(span.Text),
		}
		if !run.ProduceSegment(seg) {
			cancelled = true
			break
		}
		produced = append(produced, seg)
	}

	if cancelled {
		// Stop the recognizer before draining what it would still produce.
		closeModel(run, model)
		_ = stream.Close()
		return Result{Count: len(produced)}, ErrCancelled
	}
	streamErr := stream.Err()
	_ = stream.Close()
	closeModel(run, model)
	if streamErr != nil {
		return Result{}, services.Wrap(services.ErrExternalFailure, "transcribe", j.Media, "recognition", streamErr)
	}

	result := Result{Count: len(produced)}
	if j.Cache != nil {
		path, err := j.Cache.Store(ctx, j.Media, produced, subtitles.ModeSource)
		if err != nil {
			return Result{}, services.Wrap(services.ErrExternalFailure, "transcribe", j.Media, "write subtitle cache", err)
		}
		result.OutputPath = path
	}
	return result, nil
}

func closeModel(run *Run, model recognizer.Model) {
	if err := model.Close(); err != nil {
		logging.WarnWithContext(run.Logger(), "model release failed", "model_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the recognizer process may need to be stopped manually"),
		)
	}
}
