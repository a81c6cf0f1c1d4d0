package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	CacheDir  string `toml:"cache_dir"`
	ModelsDir string `toml:"models_dir"`
	LogDir    string `toml:"log_dir"`
	StateDir  string `toml:"state_dir"`
}

// Media names the external decoding tools.
type Media struct {
	FFmpegBinary  string `toml:"ffmpeg_binary"`
	FFprobeBinary string `toml:"ffprobe_binary"`
}

// Recognizer contains speech recognition settings.
type Recognizer struct {
	Python          string `toml:"python"`
	Model           string `toml:"model"`
	Device          string `toml:"device"`
	BeamSize        int    `toml:"beam_size"`
	VADMinSilenceMS int    `toml:"vad_min_silence_ms"`
	Language        string `toml:"language"`
	WordTimestamps  bool   `toml:"word_timestamps"`
	InitialPrompt   string `toml:"initial_prompt"`
}

// Translation contains chat-completion endpoint settings and prompt templates.
type Translation struct {
	BaseURL           string            `toml:"base_url"`
	APIKey            string            `toml:"api_key"`
	Model             string            `toml:"model"`
	TimeoutSeconds    int               `toml:"timeout_seconds"`
	RetryAttempts     int               `toml:"retry_attempts"`
	ContextLines      int               `toml:"context_lines"`
	TargetLanguage    string            `toml:"target_language"`
	StandardPrompts   map[string]string `toml:"standard_prompts"`
	ContextualPrompts map[string]string `toml:"contextual_prompts"`
	ActiveStandard    string            `toml:"active_standard"`
	ActiveContextual  string            `toml:"active_contextual"`
}

// Jobs contains background job supervision settings.
type Jobs struct {
	ShutdownTimeoutMS int `toml:"shutdown_timeout_ms"`
	EventBuffer       int `toml:"event_buffer"`
}

// API contains HTTP control surface settings.
type API struct {
	Bind           string   `toml:"bind"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for subforge.
//
// Configuration sections by subsystem:
//   - Paths: cache, model, log, and state directories
//   - Media: ffmpeg/ffprobe binaries
//   - Recognizer: speech recognition parameters
//   - Translation: chat-completion endpoint and prompt templates
//   - Jobs: shutdown wait and event buffering
//   - API: HTTP bind address and CORS origins
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	Media       Media       `toml:"media"`
	Recognizer  Recognizer  `toml:"recognizer"`
	Translation Translation `toml:"translation"`
	Jobs        Jobs        `toml:"jobs"`
	API         API         `toml:"api"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the cache, log, and state directories.
// The models directory is only read, so it is left alone.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.CacheDir, c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the job ledger database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.StateDir, "subforge.db")
}

// ShutdownTimeout returns the per-handle wait applied on shutdown.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.Jobs.ShutdownTimeoutMS) * time.Millisecond
}

// StandardPrompt returns the active standard translation template.
func (c *Config) StandardPrompt() string {
	return c.Translation.StandardPrompts[c.Translation.ActiveStandard]
}

// ContextualPrompt returns the active contextual translation template.
func (c *Config) ContextualPrompt() string {
	return c.Translation.ContextualPrompts[c.Translation.ActiveContextual]
}

// ModelPath resolves a model name to its directory under the models dir.
// Absolute paths pass through unchanged.
func (c *Config) ModelPath(name string) string {
	name = strings.TrimSpace(name)
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Paths.ModelsDir, name)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
