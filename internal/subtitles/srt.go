package subtitles

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"subforge/internal/services"
	"subforge/internal/timecode"
	"subforge/internal/timeline"
)

// Mode selects which text fields an export writes.
type Mode string

const (
	// ModeSource writes only the recognized source text.
	ModeSource Mode = "source"
	// ModeTranslation writes the translation, falling back to source text.
	ModeTranslation Mode = "translation"
	// ModeBilingual writes the translation line above the source text.
	ModeBilingual Mode = "bilingual"
	// ModeCache is bilingual only when both fields are present.
	ModeCache Mode = "cache"
)

// ParseMode maps a user supplied mode name to a Mode.
func ParseMode(value string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(value))) {
	case ModeSource, "original", "":
		return ModeSource, nil
	case ModeTranslation, "translated":
		return ModeTranslation, nil
	case ModeBilingual, "dual":
		return ModeBilingual, nil
	case ModeCache:
		return ModeCache, nil
	default:
		return "", fmt.Errorf("unknown subtitle mode %q (want source, translation, or bilingual)", value)
	}
}

type srtCue struct {
	index int
	start float64
	end   float64
	lines []string
}

// Parse reads SRT content into segments. A block whose first two text lines
// are both non-empty is read as bilingual: the first line is the translation
// and the remaining lines are the source text. Malformed timestamps degrade
// to zero; content with no recognizable block fails with ErrParseFailure.
func Parse(r io.Reader) ([]timeline.Segment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, services.Wrap(services.ErrParseFailure, "parse srt", "", "read input", err)
	}
	cues := parseSRTCues(string(data))
	if len(cues) == 0 {
		if strings.TrimSpace(string(data)) == "" {
			return nil, nil
		}
		return nil, services.Wrap(services.ErrParseFailure, "parse srt", "", "no subtitle blocks found", nil)
	}

	segments := make([]timeline.Segment, 0, len(cues))
	for _, cue := range cues {
		seg := timeline.Segment{Index: cue.index, StartSec: cue.start, EndSec: cue.end}
		if len(cue.lines) > 1 && cue.lines[0] != "" && cue.lines[1] != "" {
			seg.Translation = cue.lines[0]
			seg.Text = strings.Join(cue.lines[1:], "\n")
		} else {
			seg.Text = strings.Join(cue.lines, "\n")
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// ParseFile reads and parses an SRT file.
func ParseFile(path string) ([]timeline.Segment, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(services.ErrParseFailure, "parse srt", path, "open file", err)
	}
	defer file.Close()
	return Parse(file)
}

func parseSRTCues(content string) []srtCue {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	var cues []srtCue
	for _, block := range strings.Split(content, "\n\n") {
		lines := strings.Split(strings.Trim(block, "\n"), "\n")
		if len(lines) < 2 {
			continue
		}
		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			continue
		}
		start, end, ok := strings.Cut(lines[1], "-->")
		if !ok {
			continue
		}
		text := strings.TrimSpace(strings.Join(lines[2:], "\n"))
		var textLines []string
		if text != "" {
			textLines = strings.Split(text, "\n")
		}
		cues = append(cues, srtCue{
			index: index,
			start: timecode.Parse(start),
			end:   timecode.Parse(end),
			lines: textLines,
		})
	}
	return cues
}

// Render formats segments as SRT text using the given mode. Blocks are
// numbered by position, not by the stored ordinal.
func Render(segments []timeline.Segment, mode Mode) string {
	var buf bytes.Buffer
	_ = Write(&buf, segments, mode)
	return buf.String()
}

// Write streams segments as SRT blocks to w.
func Write(w io.Writer, segments []timeline.Segment, mode Mode) error {
	bw := bufio.NewWriter(w)
	for i, seg := range segments {
		fmt.Fprintf(bw, "%d\n%s --> %s\n%s\n\n", i+1, seg.StartTime(), seg.EndTime(), blockText(seg, mode))
	}
	return bw.Flush()
}

func blockText(seg timeline.Segment, mode Mode) string {
	text := strings.TrimSpace(seg.Text)
	translation := strings.TrimSpace(seg.Translation)
	switch mode {
	case ModeTranslation:
		if translation != "" {
			return translation
		}
		return text
	case ModeBilingual:
		if translation != "" {
			return strings.TrimSpace(translation + "\n" + text)
		}
		return text
	case ModeCache:
		if translation != "" && text != "" {
			return translation + "\n" + text
		}
		return text
	default:
		return text
	}
}
