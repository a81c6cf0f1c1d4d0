package translation

import "testing"

func TestContextWindowMarksCurrentLine(t *testing.T) {
	texts := []string{"zero", "one", "two", "three", "four"}
	got := ContextWindow(texts, 2, 1)
	want := "one\n>> two\nthree"
	if got != want {
		t.Fatalf("ContextWindow = %q, want %q", got, want)
	}
}

func TestContextWindowClampsAtEdges(t *testing.T) {
	texts := []string{"a", "b", "c"}
	tests := []struct {
		i, w int
		want string
	}{
		{0, 3, ">> a\nb\nc"},
		{2, 1, "b\n>> c"},
		{1, 0, ">> b"},
		{1, -2, ">> b"},
	}
	for _, tc := range tests {
		if got := ContextWindow(texts, tc.i, tc.w); got != tc.want {
			t.Fatalf("ContextWindow(%d,%d) = %q, want %q", tc.i, tc.w, got, tc.want)
		}
	}
	if got := ContextWindow(nil, 0, 2); got != "" {
		t.Fatalf("expected empty window, got %q", got)
	}
}

func TestRenderStandard(t *testing.T) {
	p := Prompter{Template: "To {language}: {text} {context}", Language: "Simplified Chinese"}
	got := p.Render([]string{"x", "Hello"}, 1, "Hello")
	if got != "To Simplified Chinese: Hello {context}" {
		t.Fatalf("unexpected prompt %q", got)
	}
}

func TestRenderContextual(t *testing.T) {
	p := Prompter{Template: "[{context}] {text}", Contextual: true, Window: 1}
	texts := []string{"a", "b", "c", "d"}
	got := p.Render(texts, 0, "a")
	if got != "[>> a\nb] a" {
		t.Fatalf("unexpected prompt %q", got)
	}
}

func TestRenderLeavesPlaceholdersInsideText(t *testing.T) {
	p := Prompter{Template: "{context}|{text}", Contextual: true}
	got := p.Render([]string{"say {text}"}, 0, "say {text}")
	if got != ">> say {text}|say {text}" {
		t.Fatalf("unexpected prompt %q", got)
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{`  "你好，世界。"  `, "你好 世界"},
		{"「引用」的《书》", "引用的书"},
		{"Hello,   world!!  How are you?", "Hello world How are you"},
		{"It's fine", "Its fine"},
		{"  \n ", ""},
		{"（注）好的！", "注好的"},
	}
	for _, tc := range tests {
		if got := Clean(tc.raw); got != tc.want {
			t.Fatalf("Clean(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
