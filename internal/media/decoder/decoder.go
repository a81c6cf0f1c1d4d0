package decoder

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os/exec"
	"strings"

	"subforge/internal/logging"
	"subforge/internal/media/audio"
	"subforge/internal/media/ffprobe"
	"subforge/internal/services"
)

// Decoder wraps the ffmpeg and ffprobe binaries.
type Decoder struct {
	ffmpegBinary  string
	ffprobeBinary string
	language      string
	logger        *slog.Logger

	probe         func(ctx context.Context, binary, path string) (ffprobe.Result, error)
	commandRunner func(ctx context.Context, name string, args ...string) error
	streamOpener  func(ctx context.Context, name string, args ...string) (io.ReadCloser, error)
}

// New constructs a Decoder. language is the recognizer language preference
// used to choose between multiple audio streams ("" or "auto" for none).
func New(ffmpegBinary, ffprobeBinary, language string, logger *slog.Logger) *Decoder {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Decoder{
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: ffprobeBinary,
		language:      language,
		logger:        logger.With(logging.String(logging.FieldComponent, "decoder")),
		probe:         ffprobe.Inspect,
		commandRunner: runCommand,
		streamOpener:  openStream,
	}
}

// WithProbe overrides the ffprobe invocation (used by tests).
func (d *Decoder) WithProbe(probe func(ctx context.Context, binary, path string) (ffprobe.Result, error)) {
	d.probe = probe
}

// WithCommandRunner overrides ffmpeg invocations that write files.
func (d *Decoder) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	d.commandRunner = runner
}

// WithStreamOpener overrides ffmpeg invocations that stream to stdout.
func (d *Decoder) WithStreamOpener(opener func(ctx context.Context, name string, args ...string) (io.ReadCloser, error)) {
	d.streamOpener = opener
}

// Probe returns the media duration in seconds.
func (d *Decoder) Probe(ctx context.Context, path string) (float64, error) {
	result, _, err := d.inspect(ctx, path)
	if err != nil {
		return 0, err
	}
	return durationOf(result), nil
}

// DecodeEnvelope decodes the whole file to mono 16 kHz float samples and
// summarizes them into an Envelope.
func (d *Decoder) DecodeEnvelope(ctx context.Context, path string) (Envelope, error) {
	result, selection, err := d.inspect(ctx, path)
	if err != nil {
		return Envelope{}, err
	}
	d.logger.Debug("decoding waveform",
		logging.String("media", path),
		logging.String("stream", selection.PrimaryLabel()),
	)

	stream, err := d.streamOpener(ctx, d.ffmpegBinary, DecodeArgs(path, selection.MapArg())...)
	if err != nil {
		return Envelope{}, services.Wrap(services.ErrExternalFailure, "decode", path, "start ffmpeg", err)
	}
	points, readErr := ComputeEnvelope(stream, SampleRate, ChunkSize)
	closeErr := stream.Close()
	if readErr != nil {
		return Envelope{}, services.Wrap(services.ErrExternalFailure, "decode", path, "read samples", readErr)
	}
	if closeErr != nil {
		return Envelope{}, services.Wrap(services.ErrExternalFailure, "decode", path, "ffmpeg decode", closeErr)
	}
	return Envelope{
		Duration:   durationOf(result),
		SampleRate: SampleRate,
		ChunkSize:  ChunkSize,
		Points:     points,
	}, nil
}

// ExtractRange writes [start, end) of the selected audio stream to dest as
// 16 kHz mono PCM WAV.
func (d *Decoder) ExtractRange(ctx context.Context, path string, start, end float64, dest string) error {
	if start < 0 || end <= start {
		return services.Wrap(services.ErrInvalidRange, "extract", path, fmt.Sprintf("invalid range %.3f-%.3f", start, end), nil)
	}
	_, selection, err := d.inspect(ctx, path)
	if err != nil {
		return err
	}
	if err := d.commandRunner(ctx, d.ffmpegBinary, ExtractArgs(path, selection.MapArg(), start, end, dest)...); err != nil {
		return services.Wrap(services.ErrExternalFailure, "extract", path, "ffmpeg extract", err)
	}
	return nil
}

func (d *Decoder) inspect(ctx context.Context, path string) (ffprobe.Result, audio.Selection, error) {
	result, err := d.probe(ctx, d.ffprobeBinary, path)
	if err != nil {
		return ffprobe.Result{}, audio.Selection{}, services.Wrap(services.ErrExternalFailure, "probe", path, "ffprobe failed", err)
	}
	selection := audio.Select(result.Streams, d.language)
	if !selection.Found() {
		return ffprobe.Result{}, audio.Selection{}, services.Wrap(services.ErrExternalFailure, "probe", path, "no audio stream", nil)
	}
	return result, selection, nil
}

func durationOf(result ffprobe.Result) float64 {
	duration := result.DurationSeconds()
	if math.IsNaN(duration) || duration < 0 {
		return 0
	}
	return duration
}

// DecodeArgs returns the ffmpeg arguments streaming f32le samples to stdout.
func DecodeArgs(path, mapArg string) []string {
	args := []string{"-nostdin", "-hide_banner", "-loglevel", "error", "-i", path}
	if mapArg != "" {
		args = append(args, "-map", mapArg)
	}
	return append(args, "-vn", "-sn", "-dn", "-f", "f32le", "-acodec", "pcm_f32le", "-ac", "1", "-ar", "16000", "-")
}

// ExtractArgs returns the ffmpeg arguments writing one range to a WAV file.
func ExtractArgs(path, mapArg string, start, end float64, dest string) []string {
	args := []string{
		"-y", "-nostdin", "-hide_banner", "-loglevel", "error",
		"-ss", formatSeconds(start),
		"-to", formatSeconds(end),
		"-i", path,
	}
	if mapArg != "" {
		args = append(args, "-map", mapArg)
	}
	return append(args, "-vn", "-sn", "-dn", "-ac", "1", "-ar", "16000", "-c:a", "pcm_s16le", dest)
}

func formatSeconds(value float64) string {
	return fmt.Sprintf("%.3f", value)
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// processStream exposes a running command's stdout; Close waits for exit.
type processStream struct {
	io.ReadCloser
	cmd    *exec.Cmd
	stderr *bytes.Buffer
}

func (p *processStream) Close() error {
	// Drain so ffmpeg is not blocked writing to a full pipe.
	_, _ = io.Copy(io.Discard, p.ReadCloser)
	err := p.cmd.Wait()
	if err != nil {
		if msg := strings.TrimSpace(p.stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
	}
	return err
}

func openStream(ctx context.Context, name string, args ...string) (io.ReadCloser, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	stderr := &bytes.Buffer{}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &processStream{ReadCloser: stdout, cmd: cmd, stderr: stderr}, nil
}
