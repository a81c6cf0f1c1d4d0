package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"subforge/internal/config"
	"subforge/internal/deps"
	"subforge/internal/services/llm"
)

// CheckLLM verifies that the chat-completion endpoint is reachable and the
// key is valid. It uses a 30-second timeout and a single attempt.
func CheckLLM(ctx context.Context, name string, cfg llm.Config) Result {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(cfg, llm.WithRetryMaxAttempts(1))
	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeLLMError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckTranslation checks the configured translation endpoint. A missing
// key means translation is off, which is not a failure.
func CheckTranslation(ctx context.Context, cfg *config.Config) Result {
	const name = "Translation endpoint"
	if strings.TrimSpace(cfg.Translation.APIKey) == "" {
		return Result{Name: name, Passed: true, Detail: "Not configured (translation disabled)"}
	}
	result := CheckLLM(ctx, name, TranslationLLM(cfg))
	if result.Passed {
		result.Detail = fmt.Sprintf("%s (%s)", cfg.Translation.BaseURL, cfg.Translation.Model)
	}
	return result
}

// TranslationLLM maps the translation section to a client config.
func TranslationLLM(cfg *config.Config) llm.Config {
	return llm.Config{
		APIKey:         cfg.Translation.APIKey,
		BaseURL:        cfg.Translation.BaseURL,
		Model:          cfg.Translation.Model,
		TimeoutSeconds: cfg.Translation.TimeoutSeconds,
	}
}

// CheckModel verifies the default recognition model directory exists.
func CheckModel(cfg *config.Config) Result {
	const name = "Recognition model"
	model := strings.TrimSpace(cfg.Recognizer.Model)
	if model == "" {
		return Result{Name: name, Passed: true, Detail: "No default model (choose one per run)"}
	}
	path := cfg.ModelPath(model)
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: model directory not found)", path)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s on %s", model, cfg.Recognizer.Device)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external programs subforge drives: ffmpeg
// for audio, ffprobe for media inspection, and a Python interpreter able to
// import faster_whisper for recognition.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	statuses := deps.CheckBinaries([]deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Media.FFmpegBinary,
			Description: "Required for waveform decoding and range extraction",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.Media.FFprobeBinary,
			Description: "Required for media inspection",
		},
	})
	return append(statuses, deps.CheckPythonModule(ctx, cfg.Recognizer.Python, "faster_whisper", "Required for transcription"))
}

// summarizeLLMError produces a human-readable summary for endpoint health check failures.
func summarizeLLMError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
