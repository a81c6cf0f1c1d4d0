// Package main implements the subforge command-line interface.
//
// Batch commands (transcribe, retranscribe, translate) drive the same
// workbench the HTTP surface exposes, printing job progress to the
// terminal and writing subtitle files when the job completes. The
// segments subcommands edit SRT files in place under an advisory lock, and
// serve starts the HTTP control surface for an editor front end.
package main
