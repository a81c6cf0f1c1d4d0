package jobs

import (
	"context"
	"strings"

	"subforge/internal/media/decoder"
	"subforge/internal/services"
)

// EnvelopeDecoder decodes a media file into a waveform envelope.
type EnvelopeDecoder interface {
	DecodeEnvelope(ctx context.Context, path string) (decoder.Envelope, error)
}

// AudioDecodeJob decodes the opened media for the waveform view. Opening new
// media replaces any decode still running.
type AudioDecodeJob struct {
	Media   string
	Decoder EnvelopeDecoder
}

func (j *AudioDecodeJob) Kind() Kind      { return KindAudioDecode }
func (j *AudioDecodeJob) Subject() string { return j.Media }

func (j *AudioDecodeJob) Validate() error {
	if strings.TrimSpace(j.Media) == "" {
		return services.Wrap(services.ErrResourceUnavailable, "decode audio", "", "no media opened", nil)
	}
	if j.Decoder == nil {
		return services.Wrap(services.ErrResourceUnavailable, "decode audio", j.Media, "decoder not configured", nil)
	}
	return nil
}

func (j *AudioDecodeJob) Run(ctx context.Context, run *Run) (Result, error) {
	envelope, err := j.Decoder.DecodeEnvelope(ctx, j.Media)
	if err != nil {
		return Result{}, services.Wrap(services.ErrExternalFailure, "decode audio", j.Media, "", err)
	}
	// A replaced decode must not publish its envelope.
	if run.Cancelled() {
		return Result{}, ErrCancelled
	}
	run.Logger().Debug("waveform decoded",
		"duration_seconds", envelope.Duration,
		"points", len(envelope.Points),
	)
	return Result{Envelope: &envelope, Count: len(envelope.Points)}, nil
}
