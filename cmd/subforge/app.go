package main

import (
	"context"
	"log/slog"
	"time"

	"subforge/internal/config"
	"subforge/internal/jobs"
	"subforge/internal/jobstore"
	"subforge/internal/logging"
	"subforge/internal/media/decoder"
	"subforge/internal/preflight"
	"subforge/internal/services/fasterwhisper"
	"subforge/internal/services/llm"
	"subforge/internal/subtitles"
	"subforge/internal/workbench"
)

// app is the wired workbench plus the ledger behind it.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *jobstore.Store
	wb     *workbench.Workbench
	hub    *workbench.Hub
}

// adjustDeps lets tests replace external collaborators before the
// workbench starts.
var adjustDeps func(*config.Config, *workbench.Deps)

// SetDepsForTests overrides workbench collaborators during tests.
func SetDepsForTests(fn func(*config.Config, *workbench.Deps)) func() {
	previous := adjustDeps
	adjustDeps = fn
	return func() {
		adjustDeps = previous
	}
}

func (c *commandContext) openApp(ctx context.Context) (*app, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.ensureLogger()
	if err != nil {
		return nil, err
	}

	store, err := jobstore.Open(cfg)
	if err != nil {
		return nil, err
	}
	if n, err := store.MarkInterrupted(ctx, time.Now()); err != nil {
		logging.WarnWithContext(logger, "mark interrupted jobs failed", "jobstore_mark_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "stale running rows remain in job history"),
		)
	} else if n > 0 {
		logger.Info("marked interrupted jobs", logging.Int64("count", n), logging.String(logging.FieldEventType, "jobs_interrupted"))
	}

	deps := workbench.Deps{
		Supervisor: jobs.NewSupervisor(logger,
			jobs.WithRecorder(store),
			jobs.WithEventBuffer(cfg.Jobs.EventBuffer),
		),
		Decoder: decoder.New(cfg.Media.FFmpegBinary, cfg.Media.FFprobeBinary, cfg.Recognizer.Language, logger),
		Loader:  fasterwhisper.NewLoader(fasterwhisper.Config{Python: cfg.Recognizer.Python}, logger),
		Cache:   subtitles.NewCache(cfg.Paths.CacheDir, logger),
	}
	// A nil *llm.Client must not reach the interface field.
	if cfg.Translation.APIKey != "" {
		deps.Translator = llm.NewClient(preflight.TranslationLLM(cfg), llm.WithRetryMaxAttempts(cfg.Translation.RetryAttempts))
	}
	if adjustDeps != nil {
		adjustDeps(cfg, &deps)
	}

	hub := workbench.NewHub(0)
	return &app{
		cfg:    cfg,
		logger: logger,
		store:  store,
		wb:     workbench.New(cfg, deps, hub, logger),
		hub:    hub,
	}, nil
}

// Close stops the workbench, waiting up to the configured shutdown timeout
// for live jobs, and closes the ledger.
func (a *app) Close() {
	if abandoned := a.wb.Shutdown(a.cfg.ShutdownTimeout()); len(abandoned) > 0 {
		logging.WarnWithContext(a.logger, "jobs abandoned at shutdown", "jobs_abandoned",
			logging.Any("job_ids", abandoned),
			logging.String(logging.FieldImpact, "their partial results were not saved"),
		)
	}
	_ = a.store.Close()
}

// run starts a job through start, reports its progress, and waits for the
// terminal event. A failed or cancelled job is returned as an error.
func (a *app) run(ctx context.Context, progress *progressPrinter, start func() (workbench.JobView, error)) (jobs.Event, error) {
	view, err := start()
	if err != nil {
		return jobs.Event{}, err
	}
	progress.watch(view)
	ev, err := a.wb.Await(ctx, view.ID)
	if err != nil {
		if ctx.Err() != nil {
			a.wb.Cancel(view.Kind)
		}
		return ev, err
	}
	progress.finish(ev)
	return ev, jobError(ev)
}
