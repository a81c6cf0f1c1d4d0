package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"subforge/internal/config"
	"subforge/internal/subtitles"
	"subforge/internal/timecode"
)

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// parseIndices expands a 1-based row selection such as "1,3-5" into 0-based
// rows in the order written.
func parseIndices(value string) ([]int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	var rows []int
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		first, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil || first < 1 {
			return nil, fmt.Errorf("invalid row %q", part)
		}
		last := first
		if isRange {
			last, err = strconv.Atoi(strings.TrimSpace(hi))
			if err != nil || last < first {
				return nil, fmt.Errorf("invalid row range %q", part)
			}
		}
		for i := first; i <= last; i++ {
			rows = append(rows, i-1)
		}
	}
	return rows, nil
}

func parseIndex(value string) (int, error) {
	index, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || index < 1 {
		return 0, fmt.Errorf("invalid row %q (rows start at 1)", value)
	}
	return index - 1, nil
}

func resolvePath(value string) (string, error) {
	path, err := config.ExpandPath(strings.TrimSpace(value))
	if err != nil {
		return "", err
	}
	return filepath.Abs(path)
}

func isSubtitleFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".srt")
}

// derivedOutput names the file written next to input for mode, e.g.
// "episode.srt" -> "episode.bilingual.srt".
func derivedOutput(input string, mode subtitles.Mode) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + "." + string(mode) + ".srt"
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// parseSeconds accepts plain seconds ("12.5") or an SRT timestamp.
func parseSeconds(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if seconds, err := strconv.ParseFloat(value, 64); err == nil {
		return seconds, nil
	}
	if seconds, ok := timecode.ParseStrict(value); ok {
		return seconds, nil
	}
	return 0, fmt.Errorf("invalid time %q", value)
}
