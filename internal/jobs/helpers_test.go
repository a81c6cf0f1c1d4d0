package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"subforge/internal/jobs"
	"subforge/internal/media/decoder"
)

const waitTimeout = 5 * time.Second

// drainUntil reads supervisor events until done returns true for one of
// them, returning every event seen.
func drainUntil(t *testing.T, sup *jobs.Supervisor, done func(jobs.Event) bool) []jobs.Event {
	t.Helper()
	var seen []jobs.Event
	deadline := time.After(waitTimeout)
	for {
		select {
		case ev := <-sup.Events():
			seen = append(seen, ev)
			if done(ev) {
				return seen
			}
		case <-deadline:
			t.Fatalf("timed out waiting for event; seen %v", seen)
			return nil
		}
	}
}

func terminalOf(id string) func(jobs.Event) bool {
	return func(ev jobs.Event) bool { return ev.JobID == id && ev.Type.Terminal() }
}

func eventsOf(events []jobs.Event, id string, typ jobs.EventType) []jobs.Event {
	var out []jobs.Event
	for _, ev := range events {
		if ev.JobID == id && ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func last(events []jobs.Event) jobs.Event {
	return events[len(events)-1]
}

// gatedTranslator blocks every request until a token arrives on release.
type gatedTranslator struct {
	started chan string
	release chan struct{}

	mu   sync.Mutex
	fail map[string]error
}

func newGatedTranslator() *gatedTranslator {
	return &gatedTranslator{
		started: make(chan string, 16),
		release: make(chan struct{}, 16),
		fail:    map[string]error{},
	}
}

func (g *gatedTranslator) Complete(ctx context.Context, prompt string) (string, error) {
	g.started <- prompt
	select {
	case <-g.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	g.mu.Lock()
	err := g.fail[prompt]
	g.mu.Unlock()
	if err != nil {
		return "", err
	}
	return `"` + prompt + `-tr."`, nil
}

func (g *gatedTranslator) releaseAll(n int) {
	for range n {
		g.release <- struct{}{}
	}
}

func (g *gatedTranslator) awaitStart(t *testing.T) string {
	t.Helper()
	select {
	case prompt := <-g.started:
		return prompt
	case <-time.After(waitTimeout):
		t.Fatal("translator was not called")
		return ""
	}
}

// gatedDecoder blocks DecodeEnvelope per media path until released.
type gatedDecoder struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
}

func (d *gatedDecoder) gate(path string) chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.gates == nil {
		d.gates = map[string]chan struct{}{}
	}
	if d.gates[path] == nil {
		d.gates[path] = make(chan struct{})
	}
	return d.gates[path]
}

func (d *gatedDecoder) DecodeEnvelope(ctx context.Context, path string) (decoder.Envelope, error) {
	select {
	case <-d.gate(path):
	case <-ctx.Done():
		return decoder.Envelope{}, ctx.Err()
	}
	if path == "broken.mkv" {
		return decoder.Envelope{}, errors.New("invalid data found when processing input")
	}
	return decoder.Envelope{Duration: 2, Points: []decoder.Point{{Time: 0}, {Time: 0.064}}}, nil
}

type extractorFunc func(ctx context.Context, path string, start, end float64, dest string) error

func (f extractorFunc) ExtractRange(ctx context.Context, path string, start, end float64, dest string) error {
	return f(ctx, path, start, end, dest)
}

type memoryRecorder struct {
	mu       sync.Mutex
	started  []jobs.Record
	finished []jobs.Record
}

func (r *memoryRecorder) RecordStart(_ context.Context, rec jobs.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started = append(r.started, rec)
	return nil
}

func (r *memoryRecorder) RecordFinish(_ context.Context, rec jobs.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, rec)
	return nil
}

func (r *memoryRecorder) snapshot() ([]jobs.Record, []jobs.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]jobs.Record(nil), r.started...), append([]jobs.Record(nil), r.finished...)
}
