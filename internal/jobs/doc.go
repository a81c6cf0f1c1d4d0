// Package jobs runs the background work of the workbench: waveform decode,
// full transcription, range retranscription and translation.
//
// A Supervisor starts each Job on its own goroutine behind a Handle. Jobs
// never touch the Timeline; they emit Events on a per-job channel which the
// Supervisor merges, in per-job order, into Events() for the control loop.
// At most one job per exclusive kind is live; starting another fails with
// services.ErrJobBusy. Cancellation is cooperative and polled at each
// produced segment or translated row.
//
// The Supervisor also owns the shared recognition model used by
// retranscription and refuses to unload it while a model-holding job runs.
package jobs
