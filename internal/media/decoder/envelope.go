package decoder

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"math"
)

const (
	// SampleRate is the mono sample rate requested from ffmpeg.
	SampleRate = 16000
	// ChunkSize is the number of samples summarized by one envelope point.
	ChunkSize = 1024
)

// Point summarizes one chunk of samples.
type Point struct {
	Time float64 `json:"time"`
	Min  float32 `json:"min"`
	Max  float32 `json:"max"`
	RMS  float32 `json:"rms"`
}

// Envelope is the decoded waveform summary of a media file.
type Envelope struct {
	Duration   float64 `json:"duration"`
	SampleRate int     `json:"sample_rate"`
	ChunkSize  int     `json:"chunk_size"`
	Points     []Point `json:"points"`
}

// Empty reports whether no full chunk of audio was decoded.
func (e Envelope) Empty() bool {
	return len(e.Points) == 0
}

// ComputeEnvelope reads little-endian float32 samples from r and summarizes
// each full chunk. A trailing partial chunk is dropped.
func ComputeEnvelope(r io.Reader, sampleRate, chunkSize int) ([]Point, error) {
	if sampleRate <= 0 {
		sampleRate = SampleRate
	}
	if chunkSize <= 0 {
		chunkSize = ChunkSize
	}
	reader := bufio.NewReaderSize(r, chunkSize*4)
	buf := make([]byte, chunkSize*4)
	step := float64(chunkSize) / float64(sampleRate)
	points := make([]Point, 0, 256)
	for {
		_, err := io.ReadFull(reader, buf)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return points, nil
		}
		if err != nil {
			return points, err
		}
		points = append(points, summarize(buf, float64(len(points))*step))
	}
}

func summarize(buf []byte, at float64) Point {
	minVal := float32(math.Inf(1))
	maxVal := float32(math.Inf(-1))
	var sumSquares float64
	n := len(buf) / 4
	for i := 0; i < n; i++ {
		sample := math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
		if sample < minVal {
			minVal = sample
		}
		if sample > maxVal {
			maxVal = sample
		}
		sumSquares += float64(sample) * float64(sample)
	}
	return Point{
		Time: at,
		Min:  minVal,
		Max:  maxVal,
		RMS:  float32(math.Sqrt(sumSquares / float64(n))),
	}
}
