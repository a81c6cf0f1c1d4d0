package audio

import (
	"strconv"
	"strings"

	"subforge/internal/media/ffprobe"
)

// Selection describes the audio stream chosen for decoding.
type Selection struct {
	Primary      ffprobe.Stream
	PrimaryIndex int
	Candidates   int
}

// Found reports whether any audio stream was selected.
func (s Selection) Found() bool {
	return s.PrimaryIndex >= 0
}

// MapArg returns the ffmpeg -map value for the selected stream, or "" when
// nothing was selected.
func (s Selection) MapArg() string {
	if !s.Found() {
		return ""
	}
	return "0:" + strconv.Itoa(s.PrimaryIndex)
}

// PrimaryLabel returns a human-readable summary of the selected stream.
func (s Selection) PrimaryLabel() string {
	if !s.Found() {
		return ""
	}
	return formatStreamSummary(s.Primary)
}

// Select picks the audio stream to feed the recognizer. Streams tagged with
// the preferred language win, then the default-flagged stream, then the
// first audio stream. An empty preference skips the language step.
func Select(streams []ffprobe.Stream, preferredLanguage string) Selection {
	candidates := buildCandidates(streams, normalizePreference(preferredLanguage))
	if len(candidates) == 0 {
		return Selection{PrimaryIndex: -1}
	}
	best := candidates[0]
	bestScore := score(best)
	for _, cand := range candidates[1:] {
		if s := score(cand); s > bestScore {
			best = cand
			bestScore = s
		}
	}
	return Selection{
		Primary:      best.stream,
		PrimaryIndex: best.stream.Index,
		Candidates:   len(candidates),
	}
}

type candidate struct {
	stream          ffprobe.Stream
	order           int
	languageMatches bool
	defaultFlagged  bool
	commentary      bool
}

func score(cand candidate) float64 {
	total := 0.0
	if cand.languageMatches {
		total += 100
	}
	if cand.defaultFlagged {
		total += 10
	}
	// Commentary tracks talk over the dialogue.
	if cand.commentary {
		total -= 50
	}
	total -= float64(cand.order) * 0.1
	return total
}

func buildCandidates(streams []ffprobe.Stream, preferred string) []candidate {
	result := make([]candidate, 0, len(streams))
	order := 0
	for _, stream := range streams {
		if !stream.IsAudio() {
			continue
		}
		lang := stream.Language()
		cand := candidate{
			stream:         stream,
			order:          order,
			defaultFlagged: stream.Disposition["default"] == 1,
			commentary:     stream.Disposition["comment"] == 1 || strings.Contains(normalizeTitle(stream.Tags), "commentary"),
		}
		if preferred != "" && lang != "" {
			cand.languageMatches = strings.HasPrefix(lang, preferred)
		}
		result = append(result, cand)
		order++
	}
	return result
}

// normalizePreference reduces a recognizer language to the two-letter prefix
// that matches both ISO 639-1 and 639-2 tags ("en" matches "eng").
func normalizePreference(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || value == "auto" {
		return ""
	}
	if i := strings.IndexAny(value, "-_"); i > 0 {
		value = value[:i]
	}
	if len(value) > 2 {
		value = value[:2]
	}
	return value
}

func normalizeTitle(tags map[string]string) string {
	for _, key := range []string{"title", "TITLE", "handler_name", "HANDLER_NAME"} {
		if value, ok := tags[key]; ok {
			return strings.ToLower(strings.TrimSpace(value))
		}
	}
	return ""
}

func formatStreamSummary(stream ffprobe.Stream) string {
	parts := make([]string, 0, 4)
	if lang := stream.Language(); lang != "" {
		parts = append(parts, lang)
	}
	codec := stream.CodecLong
	if codec == "" {
		codec = stream.CodecName
	}
	if codec != "" {
		parts = append(parts, codec)
	}
	if stream.Channels > 0 {
		parts = append(parts, strconv.Itoa(stream.Channels)+"ch")
	}
	if title := strings.TrimSpace(stream.Tags["title"]); title != "" {
		parts = append(parts, title)
	}
	if len(parts) == 0 {
		return "audio"
	}
	return strings.Join(parts, " | ")
}
