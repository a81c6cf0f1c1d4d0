package jobs_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"subforge/internal/jobs"
	"subforge/internal/services"
	"subforge/internal/timeline"
	"subforge/internal/translation"
)

func translationJob(tr jobs.Translator, rows ...int) *jobs.TranslationJob {
	texts := []string{"a", "b", "c", "d"}
	reqs := make([]translation.Request, 0, len(rows))
	for _, row := range rows {
		reqs = append(reqs, translation.Request{Row: row, SegmentID: uint64(row + 100), Text: texts[row]})
	}
	return &jobs.TranslationJob{
		Requests:   reqs,
		Texts:      texts,
		Prompter:   translation.Prompter{Template: "{text}"},
		Translator: tr,
	}
}

func TestTranslationCompletesInOrder(t *testing.T) {
	sup := jobs.NewSupervisor(nil)
	tr := newGatedTranslator()
	tr.releaseAll(3)

	handle, err := sup.Start(context.Background(), translationJob(tr, 2, 0, 1))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	events := drainUntil(t, sup, terminalOf(handle.ID()))
	updates := eventsOf(events, handle.ID(), jobs.EventFieldUpdated)
	if len(updates) != 3 {
		t.Fatalf("expected 3 field updates, got %d", len(updates))
	}
	for i, wantRow := range []int{2, 0, 1} {
		ev := updates[i]
		if ev.Row != wantRow || ev.SegmentID != uint64(wantRow+100) || ev.Field != timeline.FieldTranslation {
			t.Fatalf("update %d = %+v", i, ev)
		}
	}
	if updates[0].Value != "c-tr" {
		t.Fatalf("expected cleaned translation, got %q", updates[0].Value)
	}
	progress := eventsOf(events, handle.ID(), jobs.EventProgress)
	if len(progress) != 3 || progress[2].Current != 3 || progress[2].Total != 3 {
		t.Fatalf("unexpected progress events %v", progress)
	}
	final := last(events)
	if final.Type != jobs.EventCompleted || final.Result == nil || final.Result.Count != 3 {
		t.Fatalf("unexpected terminal event %+v", final)
	}
	if handle.State() != jobs.StateCompleted {
		t.Fatalf("unexpected state %s", handle.State())
	}
	for i := 1; i < len(events); i++ {
		if events[i].Seq != events[i-1].Seq+1 {
			t.Fatalf("events out of order: %v", events)
		}
	}
}

func TestTranslationCancelAfterSecondRow(t *testing.T) {
	sup := jobs.NewSupervisor(nil)
	tr := newGatedTranslator()

	handle, err := sup.Start(context.Background(), translationJob(tr, 0, 1, 2, 3))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	var events []jobs.Event
	for _, row := range []int{0, 1} {
		tr.awaitStart(t)
		tr.releaseAll(1)
		events = append(events, drainUntil(t, sup, func(ev jobs.Event) bool {
			return ev.Type == jobs.EventFieldUpdated && ev.Row == row
		})...)
	}

	if _, ok := sup.Cancel(jobs.KindTranslation); !ok {
		t.Fatal("expected a live translation to cancel")
	}
	tr.releaseAll(4)
	events = append(events, drainUntil(t, sup, terminalOf(handle.ID()))...)

	updates := eventsOf(events, handle.ID(), jobs.EventFieldUpdated)
	if len(updates) != 2 || updates[0].Row != 0 || updates[1].Row != 1 {
		t.Fatalf("expected updates for rows 0 and 1 only, got %v", updates)
	}
	if final := last(events); final.Type != jobs.EventCancelled {
		t.Fatalf("expected cancelled terminal event, got %+v", final)
	}
	if handle.State() != jobs.StateCancelled {
		t.Fatalf("unexpected state %s", handle.State())
	}
}

func TestTranslationDiscardsResponseArrivingAfterCancel(t *testing.T) {
	sup := jobs.NewSupervisor(nil)
	tr := newGatedTranslator()

	handle, err := sup.Start(context.Background(), translationJob(tr, 0, 1))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if prompt := tr.awaitStart(t); prompt != "a" {
		t.Fatalf("unexpected first prompt %q", prompt)
	}
	handle.Cancel()
	tr.releaseAll(2)

	events := drainUntil(t, sup, terminalOf(handle.ID()))
	if updates := eventsOf(events, handle.ID(), jobs.EventFieldUpdated); len(updates) != 0 {
		t.Fatalf("expected in-flight response discarded, got %v", updates)
	}
	if last(events).Type != jobs.EventCancelled {
		t.Fatalf("expected cancelled, got %v", last(events))
	}
}

func TestTranslationFailureKeepsEarlierRows(t *testing.T) {
	sup := jobs.NewSupervisor(nil)
	tr := newGatedTranslator()
	tr.fail["b"] = errors.New("http 500: upstream")
	tr.releaseAll(4)

	handle, err := sup.Start(context.Background(), translationJob(tr, 0, 1, 2))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	events := drainUntil(t, sup, terminalOf(handle.ID()))
	updates := eventsOf(events, handle.ID(), jobs.EventFieldUpdated)
	if len(updates) != 1 || updates[0].Row != 0 {
		t.Fatalf("expected only row 0 updated, got %v", updates)
	}
	final := last(events)
	if final.Type != jobs.EventFailed || !errors.Is(final.Err, services.ErrExternalFailure) {
		t.Fatalf("expected external failure, got %+v", final)
	}
	if !strings.Contains(final.Reason, "translation failed") || !strings.Contains(final.Reason, "row 2") {
		t.Fatalf("reason should name the job and row: %q", final.Reason)
	}
}

func TestSecondTranslationIsRejectedWhileFirstRuns(t *testing.T) {
	sup := jobs.NewSupervisor(nil)
	tr := newGatedTranslator()

	first, err := sup.Start(context.Background(), translationJob(tr, 0, 1))
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	tr.awaitStart(t)

	if _, err := sup.Start(context.Background(), translationJob(tr, 2)); !errors.Is(err, services.ErrJobBusy) {
		t.Fatalf("expected ErrJobBusy, got %v", err)
	}

	tr.releaseAll(2)
	events := drainUntil(t, sup, terminalOf(first.ID()))
	if updates := eventsOf(events, first.ID(), jobs.EventFieldUpdated); len(updates) != 2 {
		t.Fatalf("first job should keep applying events, got %v", updates)
	}

	tr.releaseAll(1)
	second, err := sup.Start(context.Background(), translationJob(tr, 3))
	if err != nil {
		t.Fatalf("expected start after completion, got %v", err)
	}
	drainUntil(t, sup, terminalOf(second.ID()))
}

func TestTranslationValidateRejectsUnknownRow(t *testing.T) {
	sup := jobs.NewSupervisor(nil)
	job := translationJob(newGatedTranslator(), 0)
	job.Requests[0].Row = 9
	handle, err := sup.Start(context.Background(), job)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	events := drainUntil(t, sup, terminalOf(handle.ID()))
	if final := last(events); final.Type != jobs.EventFailed || !errors.Is(final.Err, services.ErrInvalidRange) {
		t.Fatalf("expected invalid range failure, got %+v", final)
	}
}
