package logging

// ProgressSampler suppresses repetitive progress logs for long jobs. It emits
// the first report, every report that crosses a percentage bucket boundary,
// and the final report.
type ProgressSampler struct {
	bucketSize float64
	lastBucket int
}

// NewProgressSampler constructs a sampler that emits when the percent crosses
// bucket boundaries (default 10%).
func NewProgressSampler(bucketSize float64) *ProgressSampler {
	if bucketSize <= 0 {
		bucketSize = 10
	}
	return &ProgressSampler{bucketSize: bucketSize, lastBucket: -1}
}

// ShouldLog reports whether a current/total progress report should be logged.
// A non-positive total means the amount of work is unknown; those reports are
// sampled on the raw counter instead.
func (s *ProgressSampler) ShouldLog(current, total int) bool {
	if s == nil {
		return true
	}
	var bucket int
	if total > 0 {
		percent := float64(current) / float64(total) * 100
		if percent > 100 {
			percent = 100
		}
		bucket = int(percent / s.bucketSize)
	} else {
		bucket = current / int(s.bucketSize)
	}
	if bucket > s.lastBucket {
		s.lastBucket = bucket
		return true
	}
	return total > 0 && current == total && s.lastBucket < int(100/s.bucketSize)
}

// Reset clears the sampler state (e.g. when a new job starts).
func (s *ProgressSampler) Reset() {
	if s == nil {
		return
	}
	s.lastBucket = -1
}
