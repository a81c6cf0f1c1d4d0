// Package timecode converts between fractional seconds and SRT-style
// "HH:MM:SS,mmm" timestamps.
package timecode

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Format renders seconds as HH:MM:SS,mmm. The value is first rounded to the
// nearest microsecond and the sub-second part is then truncated to whole
// milliseconds. Hours are not wrapped, so values of 100h or more produce a
// wider hour field. Negative and non-finite inputs render as zero.
func Format(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds <= 0 {
		return "00:00:00,000"
	}
	micros := int64(math.Round(seconds * 1e6))
	millis := micros / 1000
	hours := millis / 3_600_000
	millis %= 3_600_000
	minutes := millis / 60_000
	millis %= 60_000
	secs := millis / 1000
	millis %= 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// Parse converts "HH:MM:SS,mmm" (":" or "," separated) into seconds. Malformed
// input yields 0 rather than an error so a damaged timestamp degrades to the
// start of the timeline instead of aborting a whole import.
func Parse(value string) float64 {
	seconds, ok := ParseStrict(value)
	if !ok {
		return 0
	}
	return seconds
}

// ParseStrict is Parse with an explicit success flag.
func ParseStrict(value string) (float64, bool) {
	fields := strings.FieldsFunc(strings.TrimSpace(value), func(r rune) bool {
		return r == ':' || r == ','
	})
	if len(fields) != 4 {
		return 0, false
	}
	parts := make([]int64, 4)
	for i, field := range fields {
		n, err := strconv.ParseInt(strings.TrimSpace(field), 10, 64)
		if err != nil || n < 0 {
			return 0, false
		}
		parts[i] = n
	}
	millis := (parts[0]*3600+parts[1]*60+parts[2])*1000 + parts[3]
	return float64(millis) / 1000, true
}
