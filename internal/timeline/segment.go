package timeline

import (
	"strings"

	"subforge/internal/timecode"
)

// Field names a text-bearing Segment attribute that jobs may update.
type Field string

const (
	FieldText        Field = "text"
	FieldTranslation Field = "translation"
)

// Segment is one subtitle unit. ID is a stable identity assigned by the
// Timeline; Index is the 1-based display ordinal and changes on reindex.
type Segment struct {
	ID          uint64  `json:"id"`
	Index       int     `json:"index"`
	StartSec    float64 `json:"start_sec"`
	EndSec      float64 `json:"end_sec"`
	Text        string  `json:"text"`
	Translation string  `json:"translation"`
}

// StartTime returns the formatted start timestamp.
func (s Segment) StartTime() string { return timecode.Format(s.StartSec) }

// EndTime returns the formatted end timestamp.
func (s Segment) EndTime() string { return timecode.Format(s.EndSec) }

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 { return s.EndSec - s.StartSec }

// Bilingual reports whether both source text and translation are present.
func (s Segment) Bilingual() bool {
	return strings.TrimSpace(s.Text) != "" && strings.TrimSpace(s.Translation) != ""
}

// View is the presentation shape of a Segment with derived timestamps.
type View struct {
	Segment
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

// ViewOf derives the formatted timestamps for a segment.
func ViewOf(s Segment) View {
	return View{Segment: s, StartTime: s.StartTime(), EndTime: s.EndTime()}
}

func (s *Segment) field(f Field) (*string, bool) {
	switch f {
	case FieldText:
		return &s.Text, true
	case FieldTranslation:
		return &s.Translation, true
	default:
		return nil, false
	}
}
