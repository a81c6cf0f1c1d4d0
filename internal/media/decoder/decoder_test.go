package decoder

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"slices"
	"testing"

	"subforge/internal/media/ffprobe"
	"subforge/internal/services"
)

func samples(values ...float32) []byte {
	buf := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func TestComputeEnvelopeSummarizesChunks(t *testing.T) {
	data := samples(-1, 1, 0, 0, 0.5, 0.5, 0.5, 0.5, 0.9)
	points, err := ComputeEnvelope(bytes.NewReader(data), 4, 4)
	if err != nil {
		t.Fatalf("ComputeEnvelope: %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("expected trailing partial chunk dropped, got %d points", len(points))
	}
	first := points[0]
	if first.Time != 0 || first.Min != -1 || first.Max != 1 {
		t.Fatalf("unexpected first point %+v", first)
	}
	if want := float32(math.Sqrt(0.5)); math.Abs(float64(first.RMS-want)) > 1e-6 {
		t.Fatalf("rms = %v, want %v", first.RMS, want)
	}
	second := points[1]
	if second.Time != 1 || second.Min != 0.5 || second.Max != 0.5 || second.RMS != 0.5 {
		t.Fatalf("unexpected second point %+v", second)
	}
}

func TestComputeEnvelopeShortInput(t *testing.T) {
	points, err := ComputeEnvelope(bytes.NewReader(samples(0.1, 0.2)), SampleRate, ChunkSize)
	if err != nil {
		t.Fatalf("ComputeEnvelope: %v", err)
	}
	if len(points) != 0 {
		t.Fatalf("expected no points, got %d", len(points))
	}
}

func fakeProbe(result ffprobe.Result, err error) func(context.Context, string, string) (ffprobe.Result, error) {
	return func(context.Context, string, string) (ffprobe.Result, error) {
		return result, err
	}
}

func audioResult(duration string) ffprobe.Result {
	return ffprobe.Result{
		Streams: []ffprobe.Stream{{Index: 0, CodecType: "video"}, {Index: 1, CodecType: "audio"}},
		Format:  ffprobe.Format{Duration: duration},
	}
}

func TestDecodeEnvelopeUsesSelectedStream(t *testing.T) {
	d := New("ff", "fp", "", nil)
	d.WithProbe(fakeProbe(audioResult("3.5"), nil))
	var gotArgs []string
	d.WithStreamOpener(func(_ context.Context, name string, args ...string) (io.ReadCloser, error) {
		if name != "ff" {
			t.Fatalf("unexpected binary %q", name)
		}
		gotArgs = args
		return io.NopCloser(bytes.NewReader(make([]byte, 4*ChunkSize*3))), nil
	})

	env, err := d.DecodeEnvelope(context.Background(), "movie.mkv")
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	if env.Duration != 3.5 || len(env.Points) != 3 {
		t.Fatalf("unexpected envelope duration=%v points=%d", env.Duration, len(env.Points))
	}
	idx := slices.Index(gotArgs, "-map")
	if idx < 0 || gotArgs[idx+1] != "0:1" {
		t.Fatalf("expected -map 0:1 in %v", gotArgs)
	}
	if gotArgs[len(gotArgs)-1] != "-" {
		t.Fatalf("expected stdout output, got %v", gotArgs)
	}
}

type failingCloser struct{ io.Reader }

func (failingCloser) Close() error { return errors.New("exit status 1: invalid data") }

func TestDecodeEnvelopeReportsFfmpegFailure(t *testing.T) {
	d := New("", "", "", nil)
	d.WithProbe(fakeProbe(audioResult("1"), nil))
	d.WithStreamOpener(func(context.Context, string, ...string) (io.ReadCloser, error) {
		return failingCloser{bytes.NewReader(nil)}, nil
	})
	_, err := d.DecodeEnvelope(context.Background(), "bad.mkv")
	if !errors.Is(err, services.ErrExternalFailure) {
		t.Fatalf("expected external failure, got %v", err)
	}
}

func TestProbeRejectsMediaWithoutAudio(t *testing.T) {
	d := New("", "", "", nil)
	d.WithProbe(fakeProbe(ffprobe.Result{Streams: []ffprobe.Stream{{CodecType: "video"}}}, nil))
	if _, err := d.Probe(context.Background(), "silent.mkv"); !errors.Is(err, services.ErrExternalFailure) {
		t.Fatalf("expected external failure, got %v", err)
	}
}

func TestExtractRange(t *testing.T) {
	d := New("ff", "", "", nil)
	d.WithProbe(fakeProbe(audioResult("10"), nil))
	var gotArgs []string
	d.WithCommandRunner(func(_ context.Context, _ string, args ...string) error {
		gotArgs = args
		return nil
	})
	if err := d.ExtractRange(context.Background(), "in.mp4", 1.25, 2.5, "/tmp/out.wav"); err != nil {
		t.Fatalf("ExtractRange: %v", err)
	}
	want := []string{"-ss", "1.250", "-to", "2.500", "-i", "in.mp4", "-map", "0:1"}
	if idx := slices.Index(gotArgs, "-ss"); idx < 0 || !slices.Equal(gotArgs[idx:idx+len(want)], want) {
		t.Fatalf("unexpected args %v", gotArgs)
	}
	if gotArgs[len(gotArgs)-1] != "/tmp/out.wav" {
		t.Fatalf("expected destination last, got %v", gotArgs)
	}
}

func TestExtractRangeRejectsInvertedRange(t *testing.T) {
	d := New("", "", "", nil)
	d.WithCommandRunner(func(context.Context, string, ...string) error {
		t.Fatal("ffmpeg must not run")
		return nil
	})
	if err := d.ExtractRange(context.Background(), "in.mp4", 2, 2, "out.wav"); !errors.Is(err, services.ErrInvalidRange) {
		t.Fatalf("expected invalid range, got %v", err)
	}
}
