// Package decoder turns media files into what the workbench needs from them:
// the duration, a waveform envelope for the timeline view, and transient
// WAV excerpts for range retranscription.
//
// Decoding shells out to ffmpeg and ffprobe. The raw f32le sample stream is
// reduced on the fly by ComputeEnvelope so the full waveform is never held
// in memory.
package decoder
