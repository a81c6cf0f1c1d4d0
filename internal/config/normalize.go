package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeMedia()
	c.normalizeRecognizer()
	c.normalizeTranslation()
	c.normalizeJobs()
	c.normalizeAPI()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		name     string
		value    *string
		fallback string
	}{
		{"paths.cache_dir", &c.Paths.CacheDir, defaultCacheDir},
		{"paths.models_dir", &c.Paths.ModelsDir, defaultModelsDir},
		{"paths.log_dir", &c.Paths.LogDir, defaultLogDir},
		{"paths.state_dir", &c.Paths.StateDir, defaultStateDir},
	}
	for _, field := range fields {
		if strings.TrimSpace(*field.value) == "" {
			*field.value = field.fallback
		}
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.name, err)
		}
		*field.value = expanded
	}
	return nil
}

func (c *Config) normalizeMedia() {
	c.Media.FFmpegBinary = strings.TrimSpace(c.Media.FFmpegBinary)
	if c.Media.FFmpegBinary == "" {
		c.Media.FFmpegBinary = defaultFFmpegBinary
	}
	c.Media.FFprobeBinary = strings.TrimSpace(c.Media.FFprobeBinary)
	if c.Media.FFprobeBinary == "" {
		c.Media.FFprobeBinary = defaultFFprobeBinary
	}
}

func (c *Config) normalizeRecognizer() {
	c.Recognizer.Python = strings.TrimSpace(c.Recognizer.Python)
	if c.Recognizer.Python == "" {
		c.Recognizer.Python = defaultPython
	}
	c.Recognizer.Model = strings.TrimSpace(c.Recognizer.Model)
	c.Recognizer.Device = strings.ToLower(strings.TrimSpace(c.Recognizer.Device))
	if c.Recognizer.Device == "" {
		c.Recognizer.Device = defaultDevice
	}
	c.Recognizer.Language = strings.ToLower(strings.TrimSpace(c.Recognizer.Language))
	if c.Recognizer.Language == "" {
		c.Recognizer.Language = defaultRecognizerLang
	}
	if c.Recognizer.BeamSize <= 0 {
		c.Recognizer.BeamSize = defaultBeamSize
	}
}

func (c *Config) normalizeTranslation() {
	c.Translation.APIKey = strings.TrimSpace(c.Translation.APIKey)
	if c.Translation.APIKey == "" {
		if value, ok := os.LookupEnv("SUBFORGE_API_KEY"); ok {
			c.Translation.APIKey = strings.TrimSpace(value)
		} else if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok {
			c.Translation.APIKey = strings.TrimSpace(value)
		}
	}
	c.Translation.BaseURL = strings.TrimRight(strings.TrimSpace(c.Translation.BaseURL), "/")
	if c.Translation.BaseURL == "" {
		c.Translation.BaseURL = defaultTranslationURL
	}
	c.Translation.Model = strings.TrimSpace(c.Translation.Model)
	if c.Translation.Model == "" {
		c.Translation.Model = defaultTranslationModel
	}
	if c.Translation.TimeoutSeconds <= 0 {
		c.Translation.TimeoutSeconds = defaultTranslationTO
	}
	if c.Translation.RetryAttempts <= 0 {
		c.Translation.RetryAttempts = defaultRetryAttempts
	}
	c.Translation.TargetLanguage = strings.TrimSpace(c.Translation.TargetLanguage)
	if c.Translation.TargetLanguage == "" {
		c.Translation.TargetLanguage = defaultTargetLanguage
	}
	if len(c.Translation.StandardPrompts) == 0 {
		c.Translation.StandardPrompts = map[string]string{defaultPromptName: DefaultStandardPrompt}
	}
	if len(c.Translation.ContextualPrompts) == 0 {
		c.Translation.ContextualPrompts = map[string]string{defaultPromptName: DefaultContextualPrompt}
	}
	c.Translation.ActiveStandard = strings.TrimSpace(c.Translation.ActiveStandard)
	if c.Translation.ActiveStandard == "" {
		c.Translation.ActiveStandard = defaultPromptName
	}
	c.Translation.ActiveContextual = strings.TrimSpace(c.Translation.ActiveContextual)
	if c.Translation.ActiveContextual == "" {
		c.Translation.ActiveContextual = defaultPromptName
	}
}

func (c *Config) normalizeJobs() {
	if c.Jobs.ShutdownTimeoutMS <= 0 {
		c.Jobs.ShutdownTimeoutMS = defaultShutdownTimeoutMS
	}
	if c.Jobs.EventBuffer <= 0 {
		c.Jobs.EventBuffer = defaultEventBuffer
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	origins := make([]string, 0, len(c.API.AllowedOrigins))
	for _, origin := range c.API.AllowedOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	c.API.AllowedOrigins = origins
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
