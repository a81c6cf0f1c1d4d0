package fasterwhisper

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"subforge/internal/logging"
	"subforge/internal/recognizer"
	"subforge/internal/services"
)

var timeAfter = time.After

// errHelperExited reports that the helper closed stdout unexpectedly.
var errHelperExited = errors.New("recognizer helper exited")

type request struct {
	Op    string `json:"op"`
	Audio string `json:"audio,omitempty"`
	recognizer.Options
}

type event struct {
	Event    string  `json:"event"`
	Start    float64 `json:"start"`
	End      float64 `json:"end"`
	Text     string  `json:"text"`
	Message  string  `json:"message"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
}

// Model is a loaded faster-whisper model served by a helper process.
type Model struct {
	ref    recognizer.ModelRef
	logger *slog.Logger

	stdin   io.WriteCloser
	lines   *bufio.Scanner
	stopper func() error

	busy      chan struct{}
	closeOnce sync.Once
	closeErr  error
	closed    chan struct{}
}

func newModel(ref recognizer.ModelRef, stdin io.WriteCloser, stdout io.Reader, stop func() error, logger *slog.Logger) *Model {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &Model{
		ref:     ref,
		logger:  logging.NewComponentLogger(logger, "fasterwhisper"),
		stdin:   stdin,
		lines:   scanner,
		stopper: stop,
		busy:    make(chan struct{}, 1),
		closed:  make(chan struct{}),
	}
}

// Ref implements recognizer.Model.
func (m *Model) Ref() recognizer.ModelRef { return m.ref }

func (m *Model) awaitReady(ctx context.Context) error {
	result := make(chan error, 1)
	go func() {
		ev, err := m.readEvent()
		switch {
		case err != nil:
			result <- err
		case ev.Event == "ready":
			result <- nil
		case ev.Event == "error":
			result <- errors.New(ev.Message)
		default:
			result <- fmt.Errorf("unexpected helper event %q before ready", ev.Event)
		}
	}()
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Model) readEvent() (event, error) {
	for m.lines.Scan() {
		line := strings.TrimSpace(m.lines.Text())
		if line == "" {
			continue
		}
		var ev event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			m.logger.Debug("ignoring non-json helper output", logging.String("line", line))
			continue
		}
		return ev, nil
	}
	if err := m.lines.Err(); err != nil {
		return event{}, err
	}
	return event{}, errHelperExited
}

// Transcribe implements recognizer.Model. Only one stream may be open at a
// time; a second call waits until the first stream is closed or ctx ends.
func (m *Model) Transcribe(ctx context.Context, audioPath string, opts recognizer.Options) (recognizer.Stream, error) {
	select {
	case <-m.closed:
		return nil, services.Wrap(services.ErrResourceUnavailable, "transcribe", m.ref.Name, "model is closed", nil)
	default:
	}
	select {
	case m.busy <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-m.closed:
		return nil, services.Wrap(services.ErrResourceUnavailable, "transcribe", m.ref.Name, "model is closed", nil)
	}

	payload, err := json.Marshal(request{Op: "transcribe", Audio: audioPath, Options: opts})
	if err == nil {
		_, err = m.stdin.Write(append(payload, '\n'))
	}
	if err != nil {
		<-m.busy
		return nil, services.Wrap(services.ErrExternalFailure, "transcribe", audioPath, "send request", err)
	}
	return &stream{model: m, audio: audioPath}, nil
}

// Close implements recognizer.Model. It asks the helper to quit and reaps
// the process; safe to call more than once.
func (m *Model) Close() error {
	m.closeOnce.Do(func() {
		close(m.closed)
		if payload, err := json.Marshal(request{Op: "quit"}); err == nil {
			_, _ = m.stdin.Write(append(payload, '\n'))
		}
		_ = m.stdin.Close()
		if m.stopper != nil {
			m.closeErr = m.stopper()
		}
		m.logger.Info("recognizer model unloaded",
			logging.String(logging.FieldEventType, "model_unloaded"),
			logging.String("model", m.ref.Name),
		)
	})
	return m.closeErr
}

type stream struct {
	model    *Model
	audio    string
	finished bool
	released bool
	err      error
}

func (s *stream) Next() (recognizer.Span, bool) {
	for !s.finished {
		ev, err := s.model.readEvent()
		if err != nil {
			s.fail(err)
			break
		}
		switch ev.Event {
		case "segment":
			return recognizer.Span{Start: ev.Start, End: ev.End, Text: strings.TrimSpace(ev.Text)}, true
		case "done":
			s.finished = true
		case "error":
			s.fail(errors.New(ev.Message))
		case "info":
			s.model.logger.Debug("recognition started",
				logging.String("audio", s.audio),
				logging.String("language", ev.Language),
				logging.Float64("duration_seconds", ev.Duration),
			)
		}
	}
	return recognizer.Span{}, false
}

func (s *stream) fail(err error) {
	s.finished = true
	s.err = services.Wrap(services.ErrExternalFailure, "recognize", s.audio, "", err)
}

func (s *stream) Err() error { return s.err }

// Close drains any remaining events so the helper is ready for the next
// request, then releases the model.
func (s *stream) Close() error {
	if s.released {
		return nil
	}
	for !s.finished {
		if _, ok := s.Next(); !ok {
			break
		}
	}
	s.released = true
	<-s.model.busy
	return nil
}
