package workbench

import (
	"time"

	"subforge/internal/jobs"
	"subforge/internal/media/decoder"
	"subforge/internal/timeline"
)

// MediaState describes the opened media file.
type MediaState struct {
	Path        string  `json:"path"`
	Duration    float64 `json:"duration"`
	Decoding    bool    `json:"decoding"`
	DecodeError string  `json:"decode_error,omitempty"`
	Points      int     `json:"points"`

	// Envelope is served separately; it is too large for every notification.
	Envelope *decoder.Envelope `json:"-"`

	// SubtitlePath is the subtitle file last loaded or written for the media.
	SubtitlePath string `json:"subtitle_path,omitempty"`
}

// Opened reports whether a media file is open.
func (m MediaState) Opened() bool { return m.Path != "" }

// ModelState describes the shared recognition model.
type ModelState struct {
	Loaded bool   `json:"loaded"`
	Name   string `json:"name,omitempty"`
	Device string `json:"device,omitempty"`
}

// JobView is the presentation shape of a job handle.
type JobView struct {
	ID         string     `json:"id"`
	Kind       jobs.Kind  `json:"kind"`
	State      jobs.State `json:"state"`
	Subject    string     `json:"subject"`
	Reason     string     `json:"reason,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt time.Time  `json:"finished_at,omitzero"`
}

// ViewOfHandle snapshots a handle.
func ViewOfHandle(h *jobs.Handle) JobView {
	return JobView{
		ID:         h.ID(),
		Kind:       h.Kind(),
		State:      h.State(),
		Subject:    h.Subject(),
		Reason:     h.Reason(),
		StartedAt:  h.StartedAt(),
		FinishedAt: h.FinishedAt(),
	}
}

// Snapshot is a consistent view of the workbench taken on the control
// goroutine.
type Snapshot struct {
	Media    MediaState      `json:"media"`
	Model    ModelState      `json:"model"`
	Segments []timeline.View `json:"segments"`
	Jobs     []JobView       `json:"jobs"`
	Sequence uint64          `json:"seq"`
}
