package translation

// Request identifies one line queued for translation.
type Request struct {
	Row       int    `json:"row"`
	SegmentID uint64 `json:"segment_id"`
	Text      string `json:"text"`
}
