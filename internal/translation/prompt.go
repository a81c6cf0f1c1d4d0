package translation

import (
	"strings"
)

// Placeholders recognised in prompt templates.
const (
	PlaceholderText     = "{text}"
	PlaceholderContext  = "{context}"
	PlaceholderLanguage = "{language}"

	// CurrentLineMarker prefixes the line being translated inside a context window.
	CurrentLineMarker = ">> "
)

// Prompter renders translation prompts from a template.
type Prompter struct {
	Template   string
	Contextual bool
	// Window is the number of neighbouring lines on each side included in
	// contextual prompts.
	Window int
	// Language is the human-readable target language name.
	Language string
}

// Render builds the prompt for the line at position i of texts. text is the
// line's own source text; texts is the full source column used for context
// lookups.
func (p Prompter) Render(texts []string, i int, text string) string {
	pairs := []string{
		PlaceholderText, text,
		PlaceholderLanguage, p.Language,
	}
	if p.Contextual {
		pairs = append(pairs, PlaceholderContext, ContextWindow(texts, i, p.Window))
	}
	// Single pass so placeholder-like text inside a subtitle is left alone.
	return strings.NewReplacer(pairs...).Replace(p.Template)
}

// ContextWindow joins texts[max(0,i-w) : min(n,i+w+1)] with newlines,
// prefixing the line at i with CurrentLineMarker.
func ContextWindow(texts []string, i, w int) string {
	if w < 0 {
		w = 0
	}
	start := max(0, i-w)
	end := min(len(texts), i+w+1)
	if start >= end {
		return ""
	}
	var b strings.Builder
	for pos := start; pos < end; pos++ {
		if pos > start {
			b.WriteByte('\n')
		}
		if pos == i {
			b.WriteString(CurrentLineMarker)
		}
		b.WriteString(texts[pos])
	}
	return b.String()
}
