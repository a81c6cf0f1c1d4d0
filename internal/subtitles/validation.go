package subtitles

import (
	"fmt"
	"strings"

	"subforge/internal/timeline"
)

// durationSlack tolerates cues that run slightly past the probed media end.
const durationSlack = 2.0

// Validate reports structural issues in a parsed subtitle set. An empty
// slice means the set is clean. mediaSeconds may be zero when unknown.
func Validate(segments []timeline.Segment, mediaSeconds float64) []string {
	if len(segments) == 0 {
		return []string{"empty_subtitle_file"}
	}
	var issues []string
	for i, seg := range segments {
		row := i + 1
		if seg.StartSec >= seg.EndSec {
			issues = append(issues, fmt.Sprintf("inverted_bounds: block %d [%s --> %s]", row, seg.StartTime(), seg.EndTime()))
		}
		if i > 0 && seg.StartSec < segments[i-1].StartSec {
			issues = append(issues, fmt.Sprintf("out_of_order: block %d starts before block %d", row, row-1))
		}
		if strings.TrimSpace(seg.Text) == "" && strings.TrimSpace(seg.Translation) == "" {
			issues = append(issues, fmt.Sprintf("empty_text: block %d", row))
		}
	}
	if mediaSeconds > 0 {
		last := segments[len(segments)-1].EndSec
		if last > mediaSeconds+durationSlack {
			issues = append(issues, fmt.Sprintf("duration_mismatch: last cue ends at %.1fs, media is %.1fs", last, mediaSeconds))
		}
	}
	return issues
}
