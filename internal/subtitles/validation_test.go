package subtitles

import (
	"strings"
	"testing"

	"subforge/internal/timeline"
)

func TestValidateCleanSet(t *testing.T) {
	segs := []timeline.Segment{
		{StartSec: 1, EndSec: 2, Text: "one"},
		{StartSec: 2, EndSec: 3, Translation: "deux"},
	}
	if issues := Validate(segs, 3); len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
}

func TestValidateReportsIssues(t *testing.T) {
	segs := []timeline.Segment{
		{StartSec: 5, EndSec: 4, Text: "backwards"},
		{StartSec: 1, EndSec: 2, Text: "  "},
		{StartSec: 2, EndSec: 30, Text: "long"},
	}
	issues := Validate(segs, 10)
	joined := strings.Join(issues, "\n")
	for _, want := range []string{"inverted_bounds: block 1", "out_of_order: block 2", "empty_text: block 2", "duration_mismatch"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("missing %q in %v", want, issues)
		}
	}
}

func TestValidateEmpty(t *testing.T) {
	issues := Validate(nil, 0)
	if len(issues) != 1 || issues[0] != "empty_subtitle_file" {
		t.Fatalf("unexpected issues: %v", issues)
	}
}

func TestValidateUnknownDurationSkipsMismatch(t *testing.T) {
	segs := []timeline.Segment{{StartSec: 100, EndSec: 200, Text: "late"}}
	if issues := Validate(segs, 0); len(issues) != 0 {
		t.Fatalf("expected no issues, got %v", issues)
	}
}
