package workbench

import (
	"context"
	"fmt"
	"strings"

	"subforge/internal/jobs"
	"subforge/internal/language"
	"subforge/internal/recognizer"
	"subforge/internal/services"
	"subforge/internal/translation"
)

// TranscriptionRequest selects the model for a full transcription. Blank
// fields use the configured defaults.
type TranscriptionRequest struct {
	Model  string `json:"model"`
	Device string `json:"device"`
}

// StartTranscription clears the Timeline and transcribes the opened media
// with a model loaded for this job alone. Segments stream into the Timeline
// as they are recognized.
func (w *Workbench) StartTranscription(ctx context.Context, req TranscriptionRequest) (JobView, error) {
	ref, err := w.ModelRef(req.Model, req.Device)
	if err != nil {
		return JobView{}, err
	}
	opts, err := w.recognizerOptions(true)
	if err != nil {
		return JobView{}, err
	}

	var view JobView
	err = w.do(ctx, func() error {
		if !mediaExists(w.media.Path) {
			return services.Wrap(services.ErrResourceUnavailable, "transcribe", w.media.Path, "no media opened", nil)
		}
		job := &jobs.TranscriptionJob{
			Media:   w.media.Path,
			Model:   ref,
			Options: opts,
			Loader:  w.deps.Loader,
		}
		if w.deps.Cache != nil {
			job.Cache = w.deps.Cache
		}
		if err := job.Validate(); err != nil {
			return err
		}
		handle, err := w.deps.Supervisor.Start(ctx, job)
		if err != nil {
			return err
		}
		w.track(handle)
		w.transcribeJob = handle.ID()
		w.timeline.Clear()
		view = ViewOfHandle(handle)
		return nil
	})
	return view, err
}

// Range overrides the time bounds of a retranscription.
type Range struct {
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
}

// StartRetranscription re-recognizes one row with the shared model. The
// row's own bounds are used unless span is given. Only the row's text is
// replaced.
func (w *Workbench) StartRetranscription(ctx context.Context, row int, span *Range) (JobView, error) {
	opts, err := w.recognizerOptions(false)
	if err != nil {
		return JobView{}, err
	}

	var view JobView
	err = w.do(ctx, func() error {
		seg, ok := w.timeline.Segment(row)
		if !ok {
			return services.Wrap(services.ErrInvalidRange, "retranscribe", "", fmt.Sprintf("row %d out of range", row+1), nil)
		}
		if !mediaExists(w.media.Path) {
			return services.Wrap(services.ErrResourceUnavailable, "retranscribe", w.media.Path, "no media opened", nil)
		}
		start, end := seg.StartSec, seg.EndSec
		if span != nil {
			start, end = span.StartSec, span.EndSec
		}
		handle, err := w.deps.Supervisor.StartWithModel(ctx, func(model recognizer.Model) (jobs.Job, error) {
			job := &jobs.RetranscribeJob{
				Media:     w.media.Path,
				Model:     model,
				Extractor: w.deps.Decoder,
				Options:   opts,
				Row:       row,
				SegmentID: seg.ID,
				StartSec:  start,
				EndSec:    end,
			}
			if err := job.Validate(); err != nil {
				return nil, err
			}
			return job, nil
		})
		if err != nil {
			return err
		}
		w.track(handle)
		view = ViewOfHandle(handle)
		return nil
	})
	return view, err
}

// TranslationRequest selects rows and prompt mode for a translation. Empty
// Rows translates every row.
type TranslationRequest struct {
	Rows       []int `json:"rows"`
	Contextual bool  `json:"contextual"`
}

// StartTranslation translates the selected rows in the order given.
func (w *Workbench) StartTranslation(ctx context.Context, req TranslationRequest) (JobView, error) {
	if w.deps.Translator == nil {
		return JobView{}, services.Wrap(services.ErrConfiguration, "translate", "", "translation endpoint not configured", nil)
	}
	prompter := translation.Prompter{
		Template:   w.cfg.StandardPrompt(),
		Contextual: req.Contextual,
		Window:     w.cfg.Translation.ContextLines,
		Language:   language.DisplayName(w.cfg.Translation.TargetLanguage),
	}
	if req.Contextual {
		prompter.Template = w.cfg.ContextualPrompt()
	}

	var view JobView
	err := w.do(ctx, func() error {
		texts := w.timeline.Texts()
		if len(texts) == 0 {
			return services.Wrap(services.ErrResourceUnavailable, "translate", "", "no subtitles to translate", nil)
		}
		rows := uniqueRows(req.Rows)
		if len(rows) == 0 {
			rows = make([]int, len(texts))
			for i := range rows {
				rows[i] = i
			}
		}

		requests := make([]translation.Request, 0, len(rows))
		for _, row := range rows {
			seg, ok := w.timeline.Segment(row)
			if !ok {
				return services.Wrap(services.ErrInvalidRange, "translate", "", fmt.Sprintf("row %d out of range", row+1), nil)
			}
			requests = append(requests, translation.Request{Row: row, SegmentID: seg.ID, Text: seg.Text})
		}
		job := &jobs.TranslationJob{
			Requests:   requests,
			Texts:      texts,
			Prompter:   prompter,
			Translator: w.deps.Translator,
		}
		if err := job.Validate(); err != nil {
			return err
		}
		handle, err := w.deps.Supervisor.Start(ctx, job)
		if err != nil {
			return err
		}
		w.track(handle)
		view = ViewOfHandle(handle)
		return nil
	})
	return view, err
}

func uniqueRows(rows []int) []int {
	seen := make(map[int]struct{}, len(rows))
	out := make([]int, 0, len(rows))
	for _, row := range rows {
		if _, dup := seen[row]; dup {
			continue
		}
		seen[row] = struct{}{}
		out = append(out, row)
	}
	return out
}

// recognizerOptions builds recognizer parameters from configuration. Range
// retranscription only carries beam size and prompt.
func (w *Workbench) recognizerOptions(full bool) (recognizer.Options, error) {
	rc := w.cfg.Recognizer
	opts := recognizer.Options{
		BeamSize:      rc.BeamSize,
		InitialPrompt: strings.TrimSpace(rc.InitialPrompt),
	}
	if !full {
		return opts, nil
	}
	code, err := language.RecognizerCode(rc.Language)
	if err != nil {
		return recognizer.Options{}, services.Wrap(services.ErrConfiguration, "recognizer options", rc.Language, "invalid language", err)
	}
	opts.Language = code
	opts.VADMinSilenceMS = rc.VADMinSilenceMS
	opts.WordTimestamps = rc.WordTimestamps
	return opts, nil
}
