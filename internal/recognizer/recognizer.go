// Package recognizer defines the speech recognition collaborator contract:
// a loadable model that turns an audio input into an ordered, forward-only
// stream of timed text spans.
package recognizer

import (
	"context"
	"errors"
)

// NoSpeech is the text used when recognition over a range yields nothing.
const NoSpeech = "[no speech]"

// ErrStreamClosed is returned by Next after Close.
var ErrStreamClosed = errors.New("span stream closed")

// Span is one recognized unit of speech.
type Span struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Options carries recognizer parameters for one transcription call.
type Options struct {
	BeamSize        int    `json:"beam_size"`
	VADMinSilenceMS int    `json:"vad_min_silence_ms,omitempty"`
	Language        string `json:"language,omitempty"`
	WordTimestamps  bool   `json:"word_timestamps"`
	InitialPrompt   string `json:"initial_prompt,omitempty"`
}

// ModelRef identifies a model on disk and the device to run it on.
type ModelRef struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Device string `json:"device"`
}

// Stream yields spans in order. Next returns false when the stream is
// exhausted or failed; Err distinguishes the two. A Stream is not
// restartable.
type Stream interface {
	Next() (Span, bool)
	Err() error
	Close() error
}

// Model is a loaded recognition model. A Model serves one Transcribe call
// at a time; the returned Stream must be closed before the next call.
type Model interface {
	Ref() ModelRef
	Transcribe(ctx context.Context, audioPath string, opts Options) (Stream, error)
	Close() error
}

// Loader loads models independently of any job.
type Loader interface {
	Load(ctx context.Context, ref ModelRef) (Model, error)
}

// Collect drains a stream into a slice.
func Collect(stream Stream) ([]Span, error) {
	var spans []Span
	for {
		span, ok := stream.Next()
		if !ok {
			break
		}
		spans = append(spans, span)
	}
	return spans, stream.Err()
}
