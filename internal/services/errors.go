package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRange        = errors.New("invalid range")
	ErrJobBusy             = errors.New("job busy")
	ErrResourceUnavailable = errors.New("resource unavailable")
	ErrExternalFailure     = errors.New("external failure")
	ErrParseFailure        = errors.New("parse failure")
	ErrConfiguration       = errors.New("configuration error")
)

// Wrap builds an error message that includes operation context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, operation, subject, message string, err error) error {
	detail := buildDetail(operation, subject, message)
	if marker == nil {
		marker = ErrExternalFailure
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Hint maps an error to a short remediation hint suitable for the error_hint
// log field and user facing messages.
func Hint(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidRange):
		return "check the selected rows and time range"
	case errors.Is(err, ErrJobBusy):
		return "wait for the running job to finish or cancel it"
	case errors.Is(err, ErrResourceUnavailable):
		return "open media and load a model first"
	case errors.Is(err, ErrParseFailure):
		return "verify the file is a well formed SRT document"
	case errors.Is(err, ErrConfiguration):
		return "review the configuration file"
	default:
		return "check external tool output and network connectivity"
	}
}

func buildDetail(operation, subject, message string) string {
	parts := make([]string, 0, 3)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if subject = strings.TrimSpace(subject); subject != "" {
		parts = append(parts, subject)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "operation failed"
	}
	return strings.Join(parts, ": ")
}
