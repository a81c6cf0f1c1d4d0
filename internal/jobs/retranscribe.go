package jobs

import (
	"context"
	"fmt"
	"os"
	"strings"

	"subforge/internal/recognizer"
	"subforge/internal/services"
	"subforge/internal/timeline"
)

// RangeExtractor writes a sub-range of a media file to a WAV file.
type RangeExtractor interface {
	ExtractRange(ctx context.Context, path string, start, end float64, dest string) error
}

// RetranscribeJob re-recognizes one time range with the shared model and
// replaces the text of a single row. The model is borrowed, never closed.
type RetranscribeJob struct {
	Media     string
	Model     recognizer.Model
	Extractor RangeExtractor
	Options   recognizer.Options
	Row       int
	SegmentID uint64
	StartSec  float64
	EndSec    float64
	// TempDir holds the transient range audio; empty uses os.TempDir.
	TempDir string
}

func (j *RetranscribeJob) Kind() Kind { return KindRetranscription }

func (j *RetranscribeJob) Subject() string {
	return fmt.Sprintf("%s [%.3f-%.3f] row %d", j.Media, j.StartSec, j.EndSec, j.Row+1)
}

func (j *RetranscribeJob) Validate() error {
	if !(j.EndSec > j.StartSec) || j.StartSec < 0 {
		return services.Wrap(services.ErrInvalidRange, "retranscribe", j.Media,
			fmt.Sprintf("end %.3f must be after start %.3f", j.EndSec, j.StartSec), nil)
	}
	if j.Model == nil {
		return services.Wrap(services.ErrResourceUnavailable, "retranscribe", j.Media, "no model loaded", nil)
	}
	if j.Extractor == nil || strings.TrimSpace(j.Media) == "" {
		return services.Wrap(services.ErrResourceUnavailable, "retranscribe", j.Media, "no media opened", nil)
	}
	return nil
}

func (j *RetranscribeJob) Run(ctx context.Context, run *Run) (Result, error) {
	tmp, err := os.CreateTemp(j.TempDir, "subforge-range-*.wav")
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalFailure, "retranscribe", j.Media, "create temp audio", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(tmpPath)

	if err := j.Extractor.ExtractRange(ctx, j.Media, j.StartSec, j.EndSec, tmpPath); err != nil {
		return Result{}, err
	}
	if run.Cancelled() {
		return Result{}, ErrCancelled
	}

	stream, err := j.Model.Transcribe(ctx, tmpPath, j.Options)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalFailure, "retranscribe", j.Media, "start recognition", err)
	}
	spans, err := recognizer.Collect(stream)
	_ = stream.Close()
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalFailure, "retranscribe", j.Media, "recognition", err)
	}

	if !run.UpdateField(j.Row, j.SegmentID, timeline.FieldText, JoinSpans(spans)) {
		return Result{}, ErrCancelled
	}
	return Result{Count: 1}, nil
}

// JoinSpans concatenates span texts with single spaces, or returns
// recognizer.NoSpeech when nothing was recognized.
func JoinSpans(spans []recognizer.Span) string {
	parts := make([]string, 0, len(spans))
	for _, span := range spans {
		if text := strings.TrimSpace(span.Text); text != "" {
			parts = append(parts, text)
		}
	}
	if len(parts) == 0 {
		return recognizer.NoSpeech
	}
	return strings.Join(parts, " ")
}
