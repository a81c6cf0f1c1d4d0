// Package fasterwhisper runs faster-whisper models in a resident Python
// helper process.
//
// The helper script is embedded in the binary and written to a temp file at
// load time. Requests and results travel as JSON lines over the helper's
// stdin and stdout, so one loaded model serves many transcription calls and
// segments stream back as they are recognized.
package fasterwhisper
