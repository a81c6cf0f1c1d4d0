package workbench

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"subforge/internal/fileutil"
	"subforge/internal/jobs"
	"subforge/internal/logging"
	"subforge/internal/media/decoder"
	"subforge/internal/services"
	"subforge/internal/subtitles"
	"subforge/internal/timeline"
)

// OpenMedia makes path the session's media: the Timeline is cleared, a
// waveform decode starts in the background, and a cached transcript for the
// file is loaded when present. It fails with ErrJobBusy while a job that
// writes segments is live.
func (w *Workbench) OpenMedia(ctx context.Context, path string) (MediaState, error) {
	var state MediaState
	err := w.do(ctx, func() error {
		path = strings.TrimSpace(path)
		abs, err := filepath.Abs(path)
		if path == "" || err != nil {
			return services.Wrap(services.ErrResourceUnavailable, "open media", path, "invalid path", err)
		}
		if info, err := os.Stat(abs); err != nil || info.IsDir() {
			return services.Wrap(services.ErrResourceUnavailable, "open media", abs, "media file not found", err)
		}
		if err := w.busy("open media", jobs.KindTranscription, jobs.KindRetranscription, jobs.KindTranslation); err != nil {
			return err
		}

		w.generation++
		w.media = MediaState{Path: abs, Decoding: true}
		w.transcribeJob = ""
		w.timeline.Clear()

		handle, err := w.deps.Supervisor.Start(ctx, &jobs.AudioDecodeJob{Media: abs, Decoder: w.deps.Decoder})
		if err != nil {
			w.media.Decoding = false
			w.media.DecodeError = err.Error()
		} else {
			w.decodeJob = handle.ID()
			w.track(handle)
		}

		if w.deps.Cache != nil {
			segments, ok, err := w.deps.Cache.Load(abs)
			switch {
			case err != nil:
				logging.WarnWithContext(w.logger, "subtitle cache unreadable", "cache_load_failed",
					logging.String("media", abs),
					logging.Error(err),
					logging.String(logging.FieldErrorHint, "update or delete the cached subtitle file"),
					logging.String(logging.FieldImpact, "timeline starts empty"),
				)
			case ok:
				w.timeline.ReplaceAll(segments)
				w.media.SubtitlePath = w.deps.Cache.PathFor(abs)
			}
		}

		w.logger.Info("media opened",
			logging.String("media", abs),
			logging.Int("segments", w.timeline.Len()),
			logging.String(logging.FieldEventType, "media_opened"),
		)
		w.publishMedia()
		state = w.media
		return nil
	})
	return state, err
}

// Media returns the opened media state.
func (w *Workbench) Media(ctx context.Context) (MediaState, error) {
	var state MediaState
	err := w.do(ctx, func() error {
		state = w.media
		return nil
	})
	return state, err
}

// Envelope returns the decoded waveform of the opened media.
func (w *Workbench) Envelope(ctx context.Context) (*decoder.Envelope, error) {
	var env *decoder.Envelope
	err := w.do(ctx, func() error {
		if !w.media.Opened() {
			return services.Wrap(services.ErrResourceUnavailable, "waveform", "", "no media opened", nil)
		}
		if w.media.Envelope == nil {
			return services.Wrap(services.ErrResourceUnavailable, "waveform", w.media.Path, "waveform not decoded yet", nil)
		}
		env = w.media.Envelope
		return nil
	})
	return env, err
}

// Import replaces the Timeline with the segments of an SRT file.
func (w *Workbench) Import(ctx context.Context, path string) (int, error) {
	segments, err := subtitles.ParseFile(path)
	if err != nil {
		return 0, err
	}
	var duration float64
	err = w.do(ctx, func() error {
		if err := w.busy("import subtitles", jobs.KindTranscription); err != nil {
			return err
		}
		w.transcribeJob = ""
		w.timeline.ReplaceAll(segments)
		w.media.SubtitlePath = path
		duration = w.media.Duration
		w.publishMedia()
		return nil
	})
	if err != nil {
		return 0, err
	}
	if issues := subtitles.Validate(segments, duration); len(issues) > 0 {
		logging.WarnWithContext(w.logger, "imported subtitles have issues", "subtitles_import_issues",
			logging.String("path", path),
			logging.Any("issues", issues),
			logging.String(logging.FieldImpact, "rows may render out of order or overlap"),
		)
	}
	w.logger.Info("subtitles imported",
		logging.String("path", path),
		logging.Int("segments", len(segments)),
		logging.String(logging.FieldEventType, "subtitles_imported"),
	)
	return len(segments), nil
}

// Segments returns a copy of the Timeline.
func (w *Workbench) Segments(ctx context.Context) ([]timeline.Segment, error) {
	var out []timeline.Segment
	err := w.do(ctx, func() error {
		out = w.timeline.Segments()
		return nil
	})
	return out, err
}

// Render serializes the Timeline in the given export mode.
func (w *Workbench) Render(ctx context.Context, mode subtitles.Mode) (string, error) {
	segments, err := w.exportable(ctx, "export")
	if err != nil {
		return "", err
	}
	return subtitles.Render(segments, mode), nil
}

// Export writes the Timeline to path in the given mode.
func (w *Workbench) Export(ctx context.Context, path string, mode subtitles.Mode) error {
	segments, err := w.exportable(ctx, "export")
	if err != nil {
		return err
	}
	if err := subtitles.WriteFile(path, segments, mode); err != nil {
		return services.Wrap(services.ErrExternalFailure, "export", path, "write subtitles", err)
	}
	w.logger.Info("subtitles exported",
		logging.String("path", path),
		logging.String("mode", string(mode)),
		logging.Int("segments", len(segments)),
		logging.String(logging.FieldEventType, "subtitles_exported"),
	)
	return nil
}

// UpdateCache rewrites the cached transcript of the opened media from the
// current Timeline. Rows carrying both texts are written bilingual.
func (w *Workbench) UpdateCache(ctx context.Context) (string, error) {
	var (
		media    string
		segments []timeline.Segment
	)
	if err := w.do(ctx, func() error {
		media = w.media.Path
		segments = w.timeline.Segments()
		return nil
	}); err != nil {
		return "", err
	}
	switch {
	case media == "":
		return "", services.Wrap(services.ErrResourceUnavailable, "update cache", "", "no media opened", nil)
	case len(segments) == 0:
		return "", services.Wrap(services.ErrResourceUnavailable, "update cache", media, "no subtitles to write", nil)
	case w.deps.Cache == nil:
		return "", services.Wrap(services.ErrConfiguration, "update cache", media, "cache directory not configured", nil)
	}
	path, err := w.deps.Cache.Store(ctx, media, segments, subtitles.ModeCache)
	if err != nil {
		return "", services.Wrap(services.ErrExternalFailure, "update cache", media, "write cache", err)
	}
	_ = w.do(ctx, func() error {
		if w.media.Path == media {
			w.media.SubtitlePath = path
		}
		return nil
	})
	return path, nil
}

func (w *Workbench) exportable(ctx context.Context, op string) ([]timeline.Segment, error) {
	segments, err := w.Segments(ctx)
	if err != nil {
		return nil, err
	}
	if len(segments) == 0 {
		return nil, services.Wrap(services.ErrResourceUnavailable, op, "", "no subtitles to write", nil)
	}
	return segments, nil
}

// mediaExists reports whether path still names a regular file.
func mediaExists(path string) bool {
	return path != "" && fileutil.Exists(path)
}
