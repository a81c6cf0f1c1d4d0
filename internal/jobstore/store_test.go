package jobstore_test

import (
	"context"
	"testing"
	"time"

	"subforge/internal/jobs"
	"subforge/internal/jobstore"
	"subforge/internal/testsupport"
)

func record(id string, kind jobs.Kind, state jobs.State, started time.Time) jobs.Record {
	return jobs.Record{ID: id, Kind: kind, State: state, Subject: "episode.mkv", StartedAt: started}
}

func TestRecordStartAndFinish(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rec := record("job-1", jobs.KindTranscription, jobs.StateRunning, started)
	if err := store.RecordStart(ctx, rec); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}

	got, err := store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.State != jobs.StateRunning || !got.FinishedAt.IsZero() {
		t.Fatalf("unexpected running record: %#v", got)
	}

	rec.State = jobs.StateFailed
	rec.Reason = "transcription failed: boom"
	rec.FinishedAt = started.Add(90 * time.Second)
	if err := store.RecordFinish(ctx, rec); err != nil {
		t.Fatalf("RecordFinish: %v", err)
	}

	got, err = store.Get(ctx, "job-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.State != jobs.StateFailed || got.Reason != rec.Reason {
		t.Fatalf("unexpected finished record: %#v", got)
	}
	if !got.StartedAt.Equal(started) || !got.FinishedAt.Equal(rec.FinishedAt) {
		t.Fatalf("timestamps not preserved: %#v", got)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	got, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
}

func TestRecordFinishWithoutStartInserts(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now()
	rec := record("orphan", jobs.KindTranslation, jobs.StateCompleted, now)
	rec.FinishedAt = now
	if err := store.RecordFinish(ctx, rec); err != nil {
		t.Fatalf("RecordFinish: %v", err)
	}
	got, err := store.Get(ctx, "orphan")
	if err != nil || got == nil {
		t.Fatalf("Get: %v %#v", err, got)
	}
	if got.Kind != jobs.KindTranslation || got.State != jobs.StateCompleted {
		t.Fatalf("unexpected record: %#v", got)
	}
}

func TestListOrdersNewestFirstAndFilters(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	runs := []jobs.Record{
		record("a", jobs.KindTranscription, jobs.StateCompleted, base),
		record("b", jobs.KindTranslation, jobs.StateCompleted, base.Add(time.Minute)),
		record("c", jobs.KindTranslation, jobs.StateCancelled, base.Add(2*time.Minute)),
	}
	for _, rec := range runs {
		rec.FinishedAt = rec.StartedAt.Add(time.Second)
		if err := store.RecordFinish(ctx, rec); err != nil {
			t.Fatalf("RecordFinish %s: %v", rec.ID, err)
		}
	}

	all, err := store.List(ctx, jobstore.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 || all[0].ID != "c" || all[2].ID != "a" {
		t.Fatalf("unexpected order: %#v", all)
	}

	translations, err := store.List(ctx, jobstore.Filter{Kind: jobs.KindTranslation, Limit: 1})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(translations) != 1 || translations[0].ID != "c" {
		t.Fatalf("unexpected filtered result: %#v", translations)
	}

	completed, err := store.List(ctx, jobstore.Filter{State: jobs.StateCompleted})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(completed) != 2 {
		t.Fatalf("expected 2 completed runs, got %d", len(completed))
	}
}

func TestMarkInterruptedFailsRunningRows(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	now := time.Now()

	if err := store.RecordStart(ctx, record("live", jobs.KindRetranscription, jobs.StateRunning, now)); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	done := record("done", jobs.KindTranscription, jobs.StateCompleted, now)
	done.FinishedAt = now
	if err := store.RecordFinish(ctx, done); err != nil {
		t.Fatalf("RecordFinish: %v", err)
	}

	n, err := store.MarkInterrupted(ctx, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("MarkInterrupted: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 interrupted run, got %d", n)
	}
	got, _ := store.Get(ctx, "live")
	if got.State != jobs.StateFailed || got.Reason != jobstore.InterruptedReason {
		t.Fatalf("unexpected interrupted record: %#v", got)
	}
	other, _ := store.Get(ctx, "done")
	if other.State != jobs.StateCompleted {
		t.Fatalf("completed run should be untouched: %#v", other)
	}
}

func TestPruneAndClearKeepRunningRows(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	old := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, rec := range []jobs.Record{
		record("old", jobs.KindTranslation, jobs.StateCompleted, old),
		record("recent", jobs.KindTranslation, jobs.StateCompleted, recent),
	} {
		rec.FinishedAt = rec.StartedAt.Add(time.Second)
		if err := store.RecordFinish(ctx, rec); err != nil {
			t.Fatalf("RecordFinish: %v", err)
		}
	}
	if err := store.RecordStart(ctx, record("running", jobs.KindTranscription, jobs.StateRunning, old)); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}

	n, err := store.Prune(ctx, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 pruned run, got %d", n)
	}

	n, err = store.Clear(ctx)
	if err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 cleared run, got %d", n)
	}
	remaining, err := store.List(ctx, jobstore.Filter{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != "running" {
		t.Fatalf("unexpected remaining runs: %#v", remaining)
	}
}

func TestReopenKeepsHistory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	first, err := jobstore.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := first.RecordStart(ctx, record("persisted", jobs.KindTranscription, jobs.StateRunning, time.Now())); err != nil {
		t.Fatalf("RecordStart: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second := testsupport.MustOpenStore(t, cfg)
	if second.Path() != cfg.DatabasePath() {
		t.Fatalf("unexpected path %q", second.Path())
	}
	got, err := second.Get(ctx, "persisted")
	if err != nil || got == nil {
		t.Fatalf("expected persisted run, got %#v err=%v", got, err)
	}
}
