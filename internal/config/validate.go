package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateRecognizer(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateRecognizer() error {
	switch c.Recognizer.Device {
	case "cpu", "cuda", "auto":
	default:
		return fmt.Errorf("recognizer.device must be cpu, cuda, or auto (got %q)", c.Recognizer.Device)
	}
	if c.Recognizer.VADMinSilenceMS < 0 {
		return errors.New("recognizer.vad_min_silence_ms must be zero or positive")
	}
	return nil
}

func (c *Config) validateTranslation() error {
	if !strings.HasPrefix(c.Translation.BaseURL, "http://") && !strings.HasPrefix(c.Translation.BaseURL, "https://") {
		return fmt.Errorf("translation.base_url must be an http(s) URL (got %q)", c.Translation.BaseURL)
	}
	if c.Translation.ContextLines < 0 {
		return errors.New("translation.context_lines must be zero or positive")
	}
	if _, ok := c.Translation.StandardPrompts[c.Translation.ActiveStandard]; !ok {
		return fmt.Errorf("translation.active_standard %q does not name a standard_prompts entry", c.Translation.ActiveStandard)
	}
	if _, ok := c.Translation.ContextualPrompts[c.Translation.ActiveContextual]; !ok {
		return fmt.Errorf("translation.active_contextual %q does not name a contextual_prompts entry", c.Translation.ActiveContextual)
	}
	for name, tmpl := range c.Translation.StandardPrompts {
		if !strings.Contains(tmpl, "{text}") {
			return fmt.Errorf("translation.standard_prompts.%s must contain {text}", name)
		}
	}
	for name, tmpl := range c.Translation.ContextualPrompts {
		if !strings.Contains(tmpl, "{text}") || !strings.Contains(tmpl, "{context}") {
			return fmt.Errorf("translation.contextual_prompts.%s must contain {context} and {text}", name)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}
