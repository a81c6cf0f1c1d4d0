package testsupport

import (
	"context"
	"sync"

	"subforge/internal/recognizer"
)

// StaticModel is an in-memory recognizer.Model that replays fixed spans.
// When Gate is set, each span after the first waits for a receive on Gate
// before it is yielded, letting tests interleave cancellation.
type StaticModel struct {
	Spans []recognizer.Span
	Err   error
	Gate  chan struct{}

	mu     sync.Mutex
	ref    recognizer.ModelRef
	closed bool
	calls  []string
}

// Ref implements recognizer.Model.
func (m *StaticModel) Ref() recognizer.ModelRef {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ref
}

// Transcribe implements recognizer.Model.
func (m *StaticModel) Transcribe(_ context.Context, audioPath string, _ recognizer.Options) (recognizer.Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, recognizer.ErrStreamClosed
	}
	m.calls = append(m.calls, audioPath)
	if m.Err != nil {
		return nil, m.Err
	}
	return &sliceStream{spans: append([]recognizer.Span(nil), m.Spans...), gate: m.Gate}, nil
}

// Close implements recognizer.Model.
func (m *StaticModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close was called.
func (m *StaticModel) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Calls returns the audio paths passed to Transcribe.
func (m *StaticModel) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type sliceStream struct {
	spans  []recognizer.Span
	gate   chan struct{}
	pos    int
	closed bool
}

func (s *sliceStream) Next() (recognizer.Span, bool) {
	if s.closed || s.pos >= len(s.spans) {
		return recognizer.Span{}, false
	}
	if s.gate != nil && s.pos > 0 {
		<-s.gate
	}
	span := s.spans[s.pos]
	s.pos++
	return span, true
}

func (s *sliceStream) Err() error { return nil }

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}

// StaticLoader hands out a fixed model.
type StaticLoader struct {
	Model *StaticModel
	Err   error
}

// Load implements recognizer.Loader.
func (l StaticLoader) Load(_ context.Context, ref recognizer.ModelRef) (recognizer.Model, error) {
	if l.Err != nil {
		return nil, l.Err
	}
	l.Model.mu.Lock()
	l.Model.ref = ref
	l.Model.mu.Unlock()
	return l.Model, nil
}
