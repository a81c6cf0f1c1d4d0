package jobs

import (
	"fmt"
	"strings"
	"time"

	"subforge/internal/media/decoder"
	"subforge/internal/services"
	"subforge/internal/timeline"
)

// Kind identifies a class of background job.
type Kind string

const (
	KindAudioDecode     Kind = "audio_decode"
	KindTranscription   Kind = "transcription"
	KindRetranscription Kind = "retranscription"
	KindTranslation     Kind = "translation"
)

// Kinds lists every job kind in display order.
var Kinds = []Kind{KindAudioDecode, KindTranscription, KindRetranscription, KindTranslation}

// ParseKind resolves a kind name.
func ParseKind(value string) (Kind, error) {
	normalized := Kind(strings.ToLower(strings.TrimSpace(value)))
	for _, kind := range Kinds {
		if kind == normalized {
			return kind, nil
		}
	}
	return "", services.Wrap(services.ErrInvalidRange, "job kind", value, "unknown job kind", nil)
}

// Exclusive reports whether at most one live job of this kind is allowed.
// A new audio decode replaces the previous one instead.
func (k Kind) Exclusive() bool {
	return k != KindAudioDecode
}

// UsesModel reports whether jobs of this kind hold a recognition model.
func (k Kind) UsesModel() bool {
	return k == KindTranscription || k == KindRetranscription
}

// State is the lifecycle state of a job handle.
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

func (s State) canTransition(to State) bool {
	switch s {
	case StateIdle:
		return to == StateRunning
	case StateRunning:
		return to.Terminal()
	default:
		return false
	}
}

// EventType classifies an Event.
type EventType string

const (
	EventSegmentProduced EventType = "segment_produced"
	EventFieldUpdated    EventType = "field_updated"
	EventProgress        EventType = "progress"
	EventCompleted       EventType = "completed"
	EventFailed          EventType = "failed"
	EventCancelled       EventType = "cancelled"
)

// Terminal reports whether the event ends its job's stream.
func (t EventType) Terminal() bool {
	return t == EventCompleted || t == EventFailed || t == EventCancelled
}

// Result is the payload of a Completed event.
type Result struct {
	OutputPath string            `json:"output_path,omitempty"`
	Envelope   *decoder.Envelope `json:"envelope,omitempty"`
	Count      int               `json:"count"`
}

// Event is one message from a job to the control loop. Events of one job
// arrive in emission order; Seq starts at 1 per job.
type Event struct {
	Seq       uint64            `json:"seq"`
	JobID     string            `json:"job_id"`
	Kind      Kind              `json:"kind"`
	Type      EventType         `json:"type"`
	Segment   *timeline.Segment `json:"segment,omitempty"`
	Row       int               `json:"row"`
	SegmentID uint64            `json:"segment_id,omitempty"`
	Field     timeline.Field    `json:"field,omitempty"`
	Value     string            `json:"value,omitempty"`
	Current   int               `json:"current,omitempty"`
	Total     int               `json:"total,omitempty"`
	Result    *Result           `json:"result,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Err       error             `json:"-"`
	Timestamp time.Time         `json:"timestamp"`
}

func (e Event) String() string {
	switch e.Type {
	case EventSegmentProduced:
		if e.Segment != nil {
			return fmt.Sprintf("%s %s #%d %s", e.Kind, e.Type, e.Segment.Index, e.Segment.StartTime())
		}
	case EventFieldUpdated:
		return fmt.Sprintf("%s %s row=%d field=%s", e.Kind, e.Type, e.Row, e.Field)
	case EventProgress:
		return fmt.Sprintf("%s %s %d/%d", e.Kind, e.Type, e.Current, e.Total)
	case EventFailed, EventCancelled:
		return fmt.Sprintf("%s %s: %s", e.Kind, e.Type, e.Reason)
	}
	return fmt.Sprintf("%s %s", e.Kind, e.Type)
}
