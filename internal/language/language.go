package language

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Auto marks recognizer language auto-detection.
const Auto = "auto"

// words maps common English language names to tags so settings may say
// "english" instead of "en".
var words = map[string]string{
	"english":    "en",
	"spanish":    "es",
	"french":     "fr",
	"german":     "de",
	"italian":    "it",
	"portuguese": "pt",
	"japanese":   "ja",
	"korean":     "ko",
	"chinese":    "zh",
	"russian":    "ru",
	"arabic":     "ar",
	"hindi":      "hi",
	"dutch":      "nl",
	"polish":     "pl",
	"swedish":    "sv",
}

// Parse resolves a language tag, 3-letter code, or English name into a
// BCP 47 tag.
func Parse(value string) (language.Tag, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" {
		return language.Und, fmt.Errorf("empty language")
	}
	if code, ok := words[trimmed]; ok {
		trimmed = code
	}
	tag, err := language.Parse(trimmed)
	if err != nil {
		return language.Und, fmt.Errorf("parse language %q: %w", value, err)
	}
	return tag, nil
}

// RecognizerCode converts a configured recognizer language into the ISO 639-1
// code the speech model expects. "auto" and blank return "" to request
// detection.
func RecognizerCode(value string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" || trimmed == Auto {
		return "", nil
	}
	tag, err := Parse(trimmed)
	if err != nil {
		return "", err
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return "", fmt.Errorf("language %q has no base language", value)
	}
	return base.String(), nil
}

// DisplayName returns the English name of a language tag, e.g. "zh-Hans"
// becomes "Simplified Chinese". Unrecognized input is returned uppercased.
func DisplayName(value string) string {
	if strings.TrimSpace(value) == "" {
		return "Unknown"
	}
	tag, err := Parse(value)
	if err != nil {
		return strings.ToUpper(strings.TrimSpace(value))
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return tag.String()
}
