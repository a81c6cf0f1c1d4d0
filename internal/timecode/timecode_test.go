package timecode

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"zero", 0, "00:00:00,000"},
		{"fractional", 3.5, "00:00:03,500"},
		{"hour boundary", 3661.25, "01:01:01,250"},
		{"truncates sub millisecond", 1.2349, "00:00:01,234"},
		{"rounds microseconds first", 0.0009999999, "00:00:00,001"},
		{"float noise", 2.3, "00:00:02,300"},
		{"wide hours", 360000, "100:00:00,000"},
		{"negative", -5, "00:00:00,000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.seconds); got != tt.want {
				t.Fatalf("Format(%v) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		value string
		want  float64
	}{
		{"00:00:03,500", 3.5},
		{"01:01:01,250", 3661.25},
		{"00:00:01:500", 1.5},
		{" 00:01:00,000 ", 60},
		{"garbage", 0},
		{"00:00,500", 0},
		{"aa:00:01,000", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := Parse(tt.value); got != tt.want {
			t.Fatalf("Parse(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, ms := range []int64{0, 1, 999, 1000, 59_999, 3_599_999, 86_400_123} {
		seconds := float64(ms) / 1000
		if got := Parse(Format(seconds)); got != seconds {
			t.Fatalf("round trip of %v ms gave %v", ms, got)
		}
	}
}
