// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe and Parse decodes its payload. Result helpers expose
// the audio stream count and the media duration used to size the waveform
// and check cached subtitles.
package ffprobe
