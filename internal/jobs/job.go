package jobs

import (
	"context"
	"time"
)

// Job is one unit of background work. Run executes on its own goroutine and
// must never touch the Timeline; it reports through the Run helpers.
type Job interface {
	Kind() Kind
	// Subject names what the job works on, for logs and the job ledger.
	Subject() string
	Run(ctx context.Context, run *Run) (Result, error)
}

// Validator is implemented by jobs with preconditions that are checked
// before any work starts.
type Validator interface {
	Validate() error
}

// Record is one job lifecycle entry persisted by a Recorder.
type Record struct {
	ID         string
	Kind       Kind
	State      State
	Subject    string
	Reason     string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Recorder persists job lifecycle transitions.
type Recorder interface {
	RecordStart(ctx context.Context, rec Record) error
	RecordFinish(ctx context.Context, rec Record) error
}
