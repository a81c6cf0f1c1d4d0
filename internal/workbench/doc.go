// Package workbench is the control loop of an editing session.
//
// A Workbench owns the subtitle Timeline, the opened media and the job
// supervisor. One goroutine executes every edit and applies every job event,
// so the Timeline is never touched concurrently. Changes are published to a
// Hub that presenters (the CLI progress view, the HTTP event stream) read.
package workbench
