package ffprobe

import (
	"math"
	"testing"
)

func TestParseAndHelpers(t *testing.T) {
	payload := []byte(`{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "h264"},
    {"index": 1, "codec_type": "audio", "codec_name": "aac", "channels": 2,
     "tags": {"language": "ENG"}, "disposition": {"default": 1}}
  ],
  "format": {"filename": "clip.mp4", "nb_streams": 2, "duration": "123.45"}
}`)
	result, err := Parse(payload)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if result.AudioStreamCount() != 1 || !result.HasAudio() {
		t.Fatalf("expected one audio stream, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 123.45 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if lang := result.Streams[1].Language(); lang != "eng" {
		t.Fatalf("unexpected language %q", lang)
	}
	if result.Streams[1].Disposition["default"] != 1 {
		t.Fatalf("expected default disposition")
	}
}

func TestDurationFallsBackToAudioStream(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio", Duration: "10.5"},
			{CodecType: "audio", Duration: "12.25"},
			{CodecType: "video", Duration: "99"},
		},
	}
	if got := result.DurationSeconds(); got != 12.25 {
		t.Fatalf("expected 12.25, got %v", got)
	}
}

func TestDurationInvalidIsNaN(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected NaN, got %v", result.DurationSeconds())
	}
	if result.HasAudio() {
		t.Fatal("expected no audio")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestArgsEndWithPath(t *testing.T) {
	args := Args("/tmp/a b.mkv")
	if args[len(args)-1] != "/tmp/a b.mkv" || args[len(args)-2] != "--" {
		t.Fatalf("unexpected args %v", args)
	}
}
