package workbench

import (
	"context"

	"subforge/internal/timeline"
)

// Split divides the row at its midpoint.
func (w *Workbench) Split(ctx context.Context, row int) error {
	return w.do(ctx, func() error { return w.timeline.Split(row) })
}

// Merge joins contiguous rows into the first of them.
func (w *Workbench) Merge(ctx context.Context, rows []int) error {
	return w.do(ctx, func() error { return w.timeline.Merge(rows) })
}

// Delete removes one row.
func (w *Workbench) Delete(ctx context.Context, row int) error {
	return w.do(ctx, func() error { return w.timeline.Delete(row) })
}

// UpdateRegion applies new bounds reported by a timeline view.
func (w *Workbench) UpdateRegion(ctx context.Context, row int, startSec, endSec float64) error {
	return w.do(ctx, func() error { return w.timeline.UpdateRegion(row, startSec, endSec) })
}

// RowEdit is a full replacement of one row's editable fields.
type RowEdit struct {
	StartSec    float64 `json:"start_sec"`
	EndSec      float64 `json:"end_sec"`
	Text        string  `json:"text"`
	Translation string  `json:"translation"`
}

// EditRow replaces the timing and texts of one row.
func (w *Workbench) EditRow(ctx context.Context, row int, edit RowEdit) (timeline.Segment, error) {
	var seg timeline.Segment
	err := w.do(ctx, func() error {
		if err := w.timeline.Edit(row, edit.StartSec, edit.EndSec, edit.Text, edit.Translation); err != nil {
			return err
		}
		seg, _ = w.timeline.Segment(row)
		return nil
	})
	return seg, err
}
