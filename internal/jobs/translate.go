package jobs

import (
	"context"
	"strconv"
	"strings"

	"subforge/internal/services"
	"subforge/internal/timeline"
	"subforge/internal/translation"
)

// Translator returns one completion for a rendered prompt.
type Translator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// TranslationJob translates the requested rows in order. Cancellation is
// checked before each request and again once it returns, so a response
// that arrives after cancellation is discarded.
type TranslationJob struct {
	Requests   []translation.Request
	Texts      []string
	Prompter   translation.Prompter
	Translator Translator
}

func (j *TranslationJob) Kind() Kind { return KindTranslation }

func (j *TranslationJob) Subject() string {
	return strconv.Itoa(len(j.Requests)) + " rows"
}

func (j *TranslationJob) Validate() error {
	if j.Translator == nil {
		return services.Wrap(services.ErrConfiguration, "translate", "", "translation endpoint not configured", nil)
	}
	if strings.TrimSpace(j.Prompter.Template) == "" {
		return services.Wrap(services.ErrConfiguration, "translate", "", "prompt template is empty", nil)
	}
	for _, req := range j.Requests {
		if req.Row < 0 || req.Row >= len(j.Texts) {
			return services.Wrap(services.ErrInvalidRange, "translate", "", "row "+strconv.Itoa(req.Row+1)+" out of range", nil)
		}
	}
	return nil
}

func (j *TranslationJob) Run(ctx context.Context, run *Run) (Result, error) {
	total := len(j.Requests)
	for i, req := range j.Requests {
		if run.Cancelled() {
			return Result{Count: i}, ErrCancelled
		}
		prompt := j.Prompter.Render(j.Texts, req.Row, req.Text)
		raw, err := j.Translator.Complete(ctx, prompt)
		if run.Cancelled() {
			return Result{Count: i}, ErrCancelled
		}
		if err != nil {
			return Result{Count: i}, services.Wrap(services.ErrExternalFailure, "translate", "row "+strconv.Itoa(req.Row+1), "", err)
		}
		if !run.UpdateField(req.Row, req.SegmentID, timeline.FieldTranslation, translation.Clean(raw)) {
			return Result{Count: i}, ErrCancelled
		}
		run.Progress(i+1, total)
	}
	return Result{Count: total}, nil
}
