package recognizer_test

import (
	"context"
	"testing"

	"subforge/internal/recognizer"
	"subforge/internal/testsupport"
)

func TestCollectDrainsStream(t *testing.T) {
	model := &testsupport.StaticModel{Spans: []recognizer.Span{
		{Start: 0, End: 1, Text: "a"},
		{Start: 1, End: 2, Text: "b"},
	}}
	stream, err := model.Transcribe(context.Background(), "clip.wav", recognizer.Options{})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	defer stream.Close()
	spans, err := recognizer.Collect(stream)
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(spans) != 2 || spans[1].Text != "b" {
		t.Fatalf("unexpected spans %+v", spans)
	}
}
