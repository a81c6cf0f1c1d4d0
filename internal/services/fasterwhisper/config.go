package fasterwhisper

import "time"

const (
	// DefaultPython is the interpreter used when none is configured.
	DefaultPython = "python3"
	// DefaultStartTimeout bounds how long model loading may take.
	DefaultStartTimeout = 5 * time.Minute
	// stopTimeout bounds how long Close waits for a graceful exit.
	stopTimeout = 5 * time.Second
	// stderrTail is how many bytes of helper stderr are kept for errors.
	stderrTail = 4096
)

// Config holds helper process settings.
type Config struct {
	Python       string
	StartTimeout time.Duration
}

func (c Config) python() string {
	if c.Python == "" {
		return DefaultPython
	}
	return c.Python
}

func (c Config) startTimeout() time.Duration {
	if c.StartTimeout <= 0 {
		return DefaultStartTimeout
	}
	return c.StartTimeout
}
