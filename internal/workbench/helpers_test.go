package workbench_test

import (
	"context"
	"errors"
	"os"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"subforge/internal/config"
	"subforge/internal/jobs"
	"subforge/internal/logging"
	"subforge/internal/media/decoder"
	"subforge/internal/recognizer"
	"subforge/internal/subtitles"
	"subforge/internal/testsupport"
	"subforge/internal/workbench"
)

const waitTimeout = 5 * time.Second

type fakeDecoder struct {
	gate chan struct{}

	mu     sync.Mutex
	ranges [][2]float64
}

func (d *fakeDecoder) DecodeEnvelope(_ context.Context, _ string) (decoder.Envelope, error) {
	return decoder.Envelope{
		Duration:   12.5,
		SampleRate: decoder.SampleRate,
		ChunkSize:  decoder.ChunkSize,
		Points:     []decoder.Point{{Time: 0, Min: -0.5, Max: 0.5, RMS: 0.2}, {Time: 0.064, Min: -0.1, Max: 0.1, RMS: 0.05}},
	}, nil
}

func (d *fakeDecoder) ExtractRange(ctx context.Context, _ string, start, end float64, dest string) error {
	if d.gate != nil {
		select {
		case <-d.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	d.mu.Lock()
	d.ranges = append(d.ranges, [2]float64{start, end})
	d.mu.Unlock()
	return os.WriteFile(dest, []byte("RIFF"), 0o644)
}

func (d *fakeDecoder) Ranges() [][2]float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][2]float64(nil), d.ranges...)
}

// gatedTranslator blocks every request until a token arrives on release and
// answers with "<source>-tr".
type gatedTranslator struct {
	started chan string
	release chan struct{}
}

func newGatedTranslator() *gatedTranslator {
	return &gatedTranslator{started: make(chan string, 16), release: make(chan struct{}, 16)}
}

func (g *gatedTranslator) Complete(ctx context.Context, prompt string) (string, error) {
	g.started <- prompt
	select {
	case <-g.release:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return prompt + "-tr", nil
}

func (g *gatedTranslator) ListModels(context.Context) ([]string, error) {
	return []string{"gpt-test"}, nil
}

type bench struct {
	cfg        *config.Config
	wb         *workbench.Workbench
	decoder    *fakeDecoder
	model      *testsupport.StaticModel
	translator *gatedTranslator
	media      string
}

type benchOption func(*bench, *workbench.Deps)

func withoutTranslator() benchOption {
	return func(_ *bench, deps *workbench.Deps) { deps.Translator = nil }
}

func withLoader(loader recognizer.Loader) benchOption {
	return func(_ *bench, deps *workbench.Deps) { deps.Loader = loader }
}

func newBench(t *testing.T, opts ...benchOption) *bench {
	t.Helper()
	cfg := testsupport.NewConfig(t, testsupport.WithModel("tiny"))
	cfg.Recognizer.Model = "tiny"
	// Templates reduced to the bare text keep translator answers predictable.
	cfg.Translation.StandardPrompts = map[string]string{"default": "{text}"}
	cfg.Translation.ContextualPrompts = map[string]string{"default": "{context}|{text}"}

	b := &bench{
		cfg:        cfg,
		decoder:    &fakeDecoder{},
		model:      &testsupport.StaticModel{},
		translator: newGatedTranslator(),
		media:      filepath.Join(testsupport.BaseDir(cfg), "Show S01E01.mkv"),
	}
	testsupport.WriteFile(t, b.media, "media")

	logger := logging.NewNop()
	deps := workbench.Deps{
		Supervisor: jobs.NewSupervisor(logger),
		Decoder:    b.decoder,
		Loader:     testsupport.StaticLoader{Model: b.model},
		Translator: b.translator,
		Cache:      subtitles.NewCache(cfg.Paths.CacheDir, logger),
	}
	for _, opt := range opts {
		opt(b, &deps)
	}
	b.wb = workbench.New(cfg, deps, nil, logger)
	t.Cleanup(func() { b.wb.Shutdown(time.Second) })
	return b
}

func (b *bench) writeSRT(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(testsupport.BaseDir(b.cfg), name)
	testsupport.WriteFile(t, path, content)
	return path
}

const fourRows = "1\n00:00:01,000 --> 00:00:02,000\none\n\n" +
	"2\n00:00:02,000 --> 00:00:03,000\ntwo\n\n" +
	"3\n00:00:03,000 --> 00:00:04,000\nthree\n\n" +
	"4\n00:00:04,000 --> 00:00:05,000\nfour\n\n"

func (b *bench) importRows(t *testing.T) {
	t.Helper()
	if _, err := b.wb.Import(context.Background(), b.writeSRT(t, "rows.srt", fourRows)); err != nil {
		t.Fatalf("Import: %v", err)
	}
}

func (b *bench) await(t *testing.T, id string) jobs.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	ev, err := b.wb.Await(ctx, id)
	if err != nil {
		t.Fatalf("Await %s: %v", id, err)
	}
	return ev
}

func (b *bench) texts(t *testing.T) (texts, translations []string) {
	t.Helper()
	segments, err := b.wb.Segments(context.Background())
	if err != nil {
		t.Fatalf("Segments: %v", err)
	}
	for _, seg := range segments {
		texts = append(texts, seg.Text)
		translations = append(translations, seg.Translation)
	}
	return texts, translations
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func spans(texts ...string) []recognizer.Span {
	out := make([]recognizer.Span, len(texts))
	for i, text := range texts {
		out[i] = recognizer.Span{Start: float64(i), End: float64(i) + 0.9, Text: " " + text + " "}
	}
	return out
}

func expectMarker(t *testing.T, err, marker error) {
	t.Helper()
	if !errors.Is(err, marker) {
		t.Fatalf("expected %v, got %v", marker, err)
	}
}

func numbered(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s %d", prefix, i+1)
	}
	return out
}

// freshLoader hands out a new model per load; the i-th load replays runs[i],
// and later loads repeat the last run.
type freshLoader struct {
	runs [][]recognizer.Span

	mu    sync.Mutex
	loads int
}

func (l *freshLoader) Load(_ context.Context, _ recognizer.ModelRef) (recognizer.Model, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	run := l.runs[min(l.loads, len(l.runs)-1)]
	l.loads++
	return &testsupport.StaticModel{Spans: run}, nil
}

// loopHold parks the control goroutine inside a presenter on the first
// matching notification until released, so work can queue behind it.
type loopHold struct {
	held     chan struct{}
	released chan struct{}
	armed    atomic.Bool
	once     sync.Once
}

func holdLoop(t *testing.T, b *bench, match func(workbench.Notification) bool) *loopHold {
	t.Helper()
	h := &loopHold{held: make(chan struct{}), released: make(chan struct{})}
	h.armed.Store(true)
	b.wb.Hub().AddPresenter(workbench.PresenterFunc(func(n workbench.Notification) {
		if !match(n) || !h.armed.CompareAndSwap(true, false) {
			return
		}
		close(h.held)
		<-h.released
	}))
	t.Cleanup(h.release)
	return h
}

func (h *loopHold) wait(t *testing.T) {
	t.Helper()
	select {
	case <-h.held:
	case <-time.After(waitTimeout):
		t.Fatal("control loop was never held")
	}
}

func (h *loopHold) release() {
	h.once.Do(func() { close(h.released) })
}

func segmentProduced(n workbench.Notification) bool {
	return n.Type == workbench.NotifyJob && n.Event != nil && n.Event.Type == jobs.EventSegmentProduced
}

func timelineChanged(n workbench.Notification) bool {
	return n.Type == workbench.NotifyTimeline
}

// transcriptionSettled reports whether id is terminal and no transcription
// is live.
func transcriptionSettled(b *bench, id string) bool {
	view, ok := b.wb.Job(id)
	if !ok || !view.State.Terminal() {
		return false
	}
	for _, live := range b.wb.Jobs() {
		if live.Kind == jobs.KindTranscription {
			return false
		}
	}
	return true
}
