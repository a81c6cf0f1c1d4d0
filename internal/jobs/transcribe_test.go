package jobs_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"subforge/internal/jobs"
	"subforge/internal/recognizer"
	"subforge/internal/services"
	"subforge/internal/subtitles"
	"subforge/internal/testsupport"
)

func threeSpans() []recognizer.Span {
	return []recognizer.Span{
		{Start: 0, End: 1.5, Text: " Hello"},
		{Start: 1.5, End: 3, Text: "world "},
		{Start: 3, End: 4.25, Text: "again"},
	}
}

func TestTranscriptionStreamsSegmentsAndWritesCache(t *testing.T) {
	cacheDir := t.TempDir()
	model := &testsupport.StaticModel{Spans: threeSpans()}
	sup := jobs.NewSupervisor(nil)

	handle, err := sup.Start(context.Background(), &jobs.TranscriptionJob{
		Media:  "/videos/Show S01E01.mkv",
		Model:  recognizer.ModelRef{Name: "small", Path: "/models/small", Device: "cpu"},
		Loader: testsupport.StaticLoader{Model: model},
		Cache:  subtitles.NewCache(cacheDir, nil),
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	events := drainUntil(t, sup, terminalOf(handle.ID()))

	produced := eventsOf(events, handle.ID(), jobs.EventSegmentProduced)
	if len(produced) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(produced))
	}
	for i, ev := range produced {
		if ev.Segment.Index != i+1 {
			t.Fatalf("segment %d has ordinal %d", i, ev.Segment.Index)
		}
	}
	if produced[0].Segment.Text != "Hello" || produced[2].Segment.EndSec != 4.25 {
		t.Fatalf("unexpected first/last segment %+v %+v", produced[0].Segment, produced[2].Segment)
	}

	final := last(events)
	if final.Type != jobs.EventCompleted {
		t.Fatalf("expected completion, got %+v", final)
	}
	want := filepath.Join(cacheDir, "Show S01E01.srt")
	if final.Result.OutputPath != want {
		t.Fatalf("output path = %q, want %q", final.Result.OutputPath, want)
	}
	segs, err := subtitles.ParseFile(want)
	if err != nil || len(segs) != 3 || segs[1].Text != "world" {
		t.Fatalf("cache contents = %+v, %v", segs, err)
	}
	if !model.Closed() {
		t.Fatal("transcription must release its model")
	}
	if calls := model.Calls(); len(calls) != 1 || calls[0] != "/videos/Show S01E01.mkv" {
		t.Fatalf("unexpected transcribe calls %v", calls)
	}
}

func TestTranscriptionCancelStopsEmissionAndSkipsCache(t *testing.T) {
	cacheDir := t.TempDir()
	gate := make(chan struct{})
	model := &testsupport.StaticModel{Spans: threeSpans(), Gate: gate}
	sup := jobs.NewSupervisor(nil)

	handle, err := sup.Start(context.Background(), &jobs.TranscriptionJob{
		Media:  "/videos/clip.mp4",
		Model:  recognizer.ModelRef{Name: "small", Path: "/models/small"},
		Loader: testsupport.StaticLoader{Model: model},
		Cache:  subtitles.NewCache(cacheDir, nil),
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	events := drainUntil(t, sup, func(ev jobs.Event) bool { return ev.Type == jobs.EventSegmentProduced })
	handle.Cancel()
	close(gate)
	events = append(events, drainUntil(t, sup, terminalOf(handle.ID()))...)

	if produced := eventsOf(events, handle.ID(), jobs.EventSegmentProduced); len(produced) != 1 {
		t.Fatalf("expected 1 segment before cancellation, got %d", len(produced))
	}
	if last(events).Type != jobs.EventCancelled {
		t.Fatalf("expected cancelled, got %+v", last(events))
	}
	if _, err := os.Stat(filepath.Join(cacheDir, "clip.srt")); !os.IsNotExist(err) {
		t.Fatalf("cache must not be written on cancel, stat err=%v", err)
	}
	if !model.Closed() {
		t.Fatal("cancelled transcription must release its model")
	}
}

func TestTranscriptionLoadFailure(t *testing.T) {
	sup := jobs.NewSupervisor(nil)
	handle, err := sup.Start(context.Background(), &jobs.TranscriptionJob{
		Media:  "/videos/clip.mp4",
		Model:  recognizer.ModelRef{Name: "large", Path: "/models/large"},
		Loader: testsupport.StaticLoader{Err: errors.New("CUDA out of memory")},
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	final := last(drainUntil(t, sup, terminalOf(handle.ID())))
	if final.Type != jobs.EventFailed || !errors.Is(final.Err, services.ErrExternalFailure) {
		t.Fatalf("expected external failure, got %+v", final)
	}
}

func TestTranscriptionRequiresModel(t *testing.T) {
	sup := jobs.NewSupervisor(nil)
	handle, err := sup.Start(context.Background(), &jobs.TranscriptionJob{
		Media:  "/videos/clip.mp4",
		Loader: testsupport.StaticLoader{Model: &testsupport.StaticModel{}},
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	final := last(drainUntil(t, sup, terminalOf(handle.ID())))
	if !errors.Is(final.Err, services.ErrResourceUnavailable) {
		t.Fatalf("expected resource unavailable, got %+v", final)
	}
}
