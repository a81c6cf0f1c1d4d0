package fasterwhisper

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"

	"subforge/internal/logging"
	"subforge/internal/recognizer"
	"subforge/internal/services"
)

//go:embed assets/recognizer_server.py
var serverScript []byte

// Loader starts one helper process per loaded model.
type Loader struct {
	cfg    Config
	logger *slog.Logger
}

// NewLoader constructs a loader.
func NewLoader(cfg Config, logger *slog.Logger) *Loader {
	return &Loader{cfg: cfg, logger: logging.NewComponentLogger(logger, "fasterwhisper")}
}

// Load spawns the helper, waits for the model to report ready, and returns
// the live model. The helper stays resident until Close.
func (l *Loader) Load(ctx context.Context, ref recognizer.ModelRef) (recognizer.Model, error) {
	if strings.TrimSpace(ref.Path) == "" {
		return nil, services.Wrap(services.ErrResourceUnavailable, "load model", ref.Name, "model path required", nil)
	}
	device := ref.Device
	if device == "" {
		device = "auto"
	}

	script, err := writeScript()
	if err != nil {
		return nil, services.Wrap(services.ErrExternalFailure, "load model", ref.Name, "write helper script", err)
	}

	cmd := exec.Command(l.cfg.python(), script, "--model", ref.Path, "--device", device) //nolint:gosec
	cmd.Env = os.Environ()
	stderr := &tailBuffer{limit: stderrTail}
	cmd.Stderr = stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		_ = os.Remove(script)
		return nil, services.Wrap(services.ErrExternalFailure, "load model", ref.Name, "open stdin", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		_ = os.Remove(script)
		return nil, services.Wrap(services.ErrExternalFailure, "load model", ref.Name, "open stdout", err)
	}
	if err := cmd.Start(); err != nil {
		_ = os.Remove(script)
		return nil, services.Wrap(services.ErrExternalFailure, "load model", ref.Name, "start "+l.cfg.python(), err)
	}

	proc := &process{cmd: cmd, stderr: stderr, script: script}
	model := newModel(ref, stdin, stdout, proc.stop, l.logger)

	loadCtx, cancel := context.WithTimeout(ctx, l.cfg.startTimeout())
	defer cancel()
	if err := model.awaitReady(loadCtx); err != nil {
		_ = model.Close()
		if tail := stderr.String(); tail != "" {
			err = fmt.Errorf("%w: %s", err, tail)
		}
		return nil, services.Wrap(services.ErrExternalFailure, "load model", ref.Name, "", err)
	}

	l.logger.Info("recognizer model loaded",
		logging.String(logging.FieldEventType, "model_loaded"),
		logging.String("model", ref.Name),
		logging.String("device", device),
		logging.Int("pid", cmd.Process.Pid),
	)
	return model, nil
}

func writeScript() (string, error) {
	file, err := os.CreateTemp("", "subforge-recognizer-*.py")
	if err != nil {
		return "", err
	}
	if _, err := file.Write(serverScript); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return "", err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", err
	}
	return file.Name(), nil
}

type process struct {
	cmd    *exec.Cmd
	stderr *tailBuffer
	script string
}

// stop waits briefly for a graceful exit after stdin closes, then kills.
func (p *process) stop() error {
	defer os.Remove(p.script)
	done := make(chan error, 1)
	go func() { done <- p.cmd.Wait() }()
	select {
	case err := <-done:
		return err
	case <-timeAfter(stopTimeout):
		_ = p.cmd.Process.Kill()
		return <-done
	}
}

type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, p...)
	if over := len(b.buf) - b.limit; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(string(b.buf))
}

var _ io.Writer = (*tailBuffer)(nil)
