// Package timeline holds the ordered subtitle segment collection and the
// structural edit operations that keep it consistent.
//
// A Timeline is not safe for concurrent use. It is owned by a single control
// goroutine; background jobs describe their changes as events that the owner
// applies here.
package timeline

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"subforge/internal/services"
)

// MinSplitDuration is the shortest segment that may be split, in seconds.
const MinSplitDuration = 0.1

// ChangeKind classifies a Timeline notification.
type ChangeKind string

const (
	ChangeAdded   ChangeKind = "added"
	ChangeUpdated ChangeKind = "updated"
	ChangeRemoved ChangeKind = "removed"
	ChangeReset   ChangeKind = "reset"
)

// Change describes one delta for presentation observers. Row is the 0-based
// position the change applies to; Reset carries no row. Reindexed is set when
// ordinals after the change were reassigned.
type Change struct {
	Kind      ChangeKind `json:"kind"`
	Row       int        `json:"row"`
	Segment   Segment    `json:"segment"`
	Reindexed bool       `json:"reindexed"`
}

// Observer receives Timeline changes synchronously on the owning goroutine.
type Observer func(Change)

// Timeline is the ordered, invariant-preserving collection of Segments.
type Timeline struct {
	segments []Segment
	nextID   uint64
	observer Observer
}

// New returns an empty Timeline. The observer may be nil.
func New(observer Observer) *Timeline {
	return &Timeline{observer: observer}
}

// Len returns the number of segments.
func (t *Timeline) Len() int { return len(t.segments) }

// Segment returns the segment at row.
func (t *Timeline) Segment(row int) (Segment, bool) {
	if row < 0 || row >= len(t.segments) {
		return Segment{}, false
	}
	return t.segments[row], true
}

// Segments returns a copy of all segments in order.
func (t *Timeline) Segments() []Segment {
	return slices.Clone(t.segments)
}

// Texts returns the source text of every segment, in order.
func (t *Timeline) Texts() []string {
	out := make([]string, len(t.segments))
	for i, seg := range t.segments {
		out[i] = seg.Text
	}
	return out
}

// RowOf returns the current position of the segment with the given ID.
func (t *Timeline) RowOf(id uint64) (int, bool) {
	for i, seg := range t.segments {
		if seg.ID == id {
			return i, true
		}
	}
	return -1, false
}

// Insert appends a segment at the end and assigns the next ordinal and a
// fresh ID. Timing comes from an external producer and is stored as given.
func (t *Timeline) Insert(seg Segment) Segment {
	seg.ID = t.allocID()
	seg.Index = len(t.segments) + 1
	t.segments = append(t.segments, seg)
	t.notify(Change{Kind: ChangeAdded, Row: len(t.segments) - 1, Segment: seg})
	return seg
}

// ReplaceAll swaps the whole sequence and re-derives ordinals 1..N.
func (t *Timeline) ReplaceAll(segments []Segment) {
	t.segments = make([]Segment, len(segments))
	for i, seg := range segments {
		seg.ID = t.allocID()
		t.segments[i] = seg
	}
	t.Reindex()
	t.notify(Change{Kind: ChangeReset, Row: -1})
}

// Clear removes every segment.
func (t *Timeline) Clear() {
	t.ReplaceAll(nil)
}

// Split divides the segment at row at its time midpoint. Text and
// translation are split independently at their own rune midpoints.
func (t *Timeline) Split(row int) error {
	seg, ok := t.Segment(row)
	if !ok {
		return rowError("split", row, len(t.segments))
	}
	if seg.Duration() < MinSplitDuration {
		return services.Wrap(services.ErrInvalidRange, "split", fmt.Sprintf("row %d", row),
			fmt.Sprintf("duration %.3fs is shorter than %.1fs", seg.Duration(), MinSplitDuration), nil)
	}

	mid := seg.StartSec + seg.Duration()/2
	firstText, secondText := splitHalf(seg.Text)
	firstTrans, secondTrans := splitHalf(seg.Translation)

	first := seg
	first.EndSec = mid
	first.Text = firstText
	first.Translation = firstTrans

	second := Segment{
		ID:          t.allocID(),
		StartSec:    mid,
		EndSec:      seg.EndSec,
		Text:        secondText,
		Translation: secondTrans,
	}

	t.segments[row] = first
	t.segments = slices.Insert(t.segments, row+1, second)
	t.Reindex()
	t.notify(Change{Kind: ChangeUpdated, Row: row, Segment: t.segments[row]})
	t.notify(Change{Kind: ChangeAdded, Row: row + 1, Segment: t.segments[row+1], Reindexed: true})
	return nil
}

// Merge joins contiguous ascending rows into the first one. The result spans
// from the first start to the last end; texts are joined with single spaces.
func (t *Timeline) Merge(rows []int) error {
	if len(rows) < 2 {
		return services.Wrap(services.ErrInvalidRange, "merge", "", "select at least two rows", nil)
	}
	for i, row := range rows {
		if row < 0 || row >= len(t.segments) {
			return rowError("merge", row, len(t.segments))
		}
		if i > 0 && row != rows[i-1]+1 {
			return services.Wrap(services.ErrInvalidRange, "merge", fmt.Sprintf("rows %v", rows), "rows must be contiguous and ascending", nil)
		}
	}

	first, last := rows[0], rows[len(rows)-1]
	texts := make([]string, 0, len(rows))
	translations := make([]string, 0, len(rows))
	for _, row := range rows {
		texts = append(texts, t.segments[row].Text)
		translations = append(translations, t.segments[row].Translation)
	}

	merged := t.segments[first]
	merged.EndSec = t.segments[last].EndSec
	merged.Text = joinTrimmed(texts)
	merged.Translation = joinTrimmed(translations)

	removed := slices.Clone(t.segments[first+1 : last+1])
	t.segments[first] = merged
	t.segments = slices.Delete(t.segments, first+1, last+1)
	t.Reindex()

	t.notify(Change{Kind: ChangeUpdated, Row: first, Segment: t.segments[first]})
	for i := len(removed) - 1; i >= 0; i-- {
		t.notify(Change{Kind: ChangeRemoved, Row: first + 1 + i, Segment: removed[i], Reindexed: i == 0})
	}
	return nil
}

// Delete removes the segment at row.
func (t *Timeline) Delete(row int) error {
	seg, ok := t.Segment(row)
	if !ok {
		return rowError("delete", row, len(t.segments))
	}
	t.segments = slices.Delete(t.segments, row, row+1)
	t.Reindex()
	t.notify(Change{Kind: ChangeRemoved, Row: row, Segment: seg, Reindexed: true})
	return nil
}

// UpdateRegion sets new timing for the segment at row, typically after a
// region drag on a visual timeline. Ordinals and order are untouched.
func (t *Timeline) UpdateRegion(row int, startSec, endSec float64) error {
	if row < 0 || row >= len(t.segments) {
		return rowError("update region", row, len(t.segments))
	}
	if err := validateBounds("update region", startSec, endSec); err != nil {
		return err
	}
	t.segments[row].StartSec = startSec
	t.segments[row].EndSec = endSec
	t.notify(Change{Kind: ChangeUpdated, Row: row, Segment: t.segments[row]})
	return nil
}

// Edit replaces the timing and text fields of the segment at row.
func (t *Timeline) Edit(row int, startSec, endSec float64, text, translation string) error {
	if row < 0 || row >= len(t.segments) {
		return rowError("edit", row, len(t.segments))
	}
	if err := validateBounds("edit", startSec, endSec); err != nil {
		return err
	}
	seg := &t.segments[row]
	seg.StartSec = startSec
	seg.EndSec = endSec
	seg.Text = text
	seg.Translation = translation
	t.notify(Change{Kind: ChangeUpdated, Row: row, Segment: *seg})
	return nil
}

// SetField writes a text-bearing field of the segment identified by id. The
// lookup is by identity so the write lands on the intended segment even if
// structural edits moved it since the producing job started. A zero id falls
// back to row. It returns the row written, or false if the segment no longer
// exists.
func (t *Timeline) SetField(id uint64, row int, field Field, value string) (int, bool) {
	if id != 0 {
		var ok bool
		if row, ok = t.RowOf(id); !ok {
			return -1, false
		}
	} else if row < 0 || row >= len(t.segments) {
		return -1, false
	}
	target, ok := t.segments[row].field(field)
	if !ok {
		return -1, false
	}
	*target = value
	t.notify(Change{Kind: ChangeUpdated, Row: row, Segment: t.segments[row]})
	return row, true
}

// Reindex reassigns Index = position + 1 for every segment.
func (t *Timeline) Reindex() {
	for i := range t.segments {
		t.segments[i].Index = i + 1
	}
}

// Check verifies the ordinal, ordering, and duration invariants.
func (t *Timeline) Check() error {
	for i, seg := range t.segments {
		if seg.Index != i+1 {
			return fmt.Errorf("row %d: index %d, want %d", i, seg.Index, i+1)
		}
		if seg.StartSec < 0 || seg.StartSec >= seg.EndSec {
			return fmt.Errorf("row %d: invalid bounds [%v, %v]", i, seg.StartSec, seg.EndSec)
		}
		if i > 0 && seg.StartSec < t.segments[i-1].StartSec {
			return fmt.Errorf("row %d: start %v precedes previous start %v", i, seg.StartSec, t.segments[i-1].StartSec)
		}
	}
	return nil
}

func (t *Timeline) allocID() uint64 {
	t.nextID++
	return t.nextID
}

func (t *Timeline) notify(change Change) {
	if t.observer != nil {
		t.observer(change)
	}
}

func validateBounds(op string, startSec, endSec float64) error {
	if startSec < 0 || endSec <= startSec {
		return services.Wrap(services.ErrInvalidRange, op, fmt.Sprintf("[%.3f, %.3f]", startSec, endSec), "start must be non-negative and before end", nil)
	}
	return nil
}

func rowError(op string, row, length int) error {
	return services.Wrap(services.ErrInvalidRange, op, fmt.Sprintf("row %d", row), fmt.Sprintf("timeline has %d rows", length), nil)
}

// splitHalf cuts s at its rune midpoint, trimming trailing space from the
// first half and leading space from the second.
func splitHalf(s string) (string, string) {
	runes := []rune(s)
	mid := len(runes) / 2
	return strings.TrimRightFunc(string(runes[:mid]), unicode.IsSpace),
		strings.TrimLeftFunc(string(runes[mid:]), unicode.IsSpace)
}

func joinTrimmed(parts []string) string {
	return strings.TrimSpace(strings.Join(parts, " "))
}
