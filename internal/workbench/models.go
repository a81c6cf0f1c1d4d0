package workbench

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"slices"
	"strings"

	"subforge/internal/jobs"
	"subforge/internal/logging"
	"subforge/internal/recognizer"
	"subforge/internal/services"
)

// Model reports the shared recognition model.
func (w *Workbench) Model() ModelState {
	model, ok := w.deps.Supervisor.Model()
	if !ok {
		return ModelState{}
	}
	ref := model.Ref()
	return ModelState{Loaded: true, Name: ref.Name, Device: ref.Device}
}

// ModelRef resolves a model directory name and device. Blank values fall
// back to the configured defaults.
func (w *Workbench) ModelRef(name, device string) (recognizer.ModelRef, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = w.cfg.Recognizer.Model
	}
	device = strings.ToLower(strings.TrimSpace(device))
	if device == "" {
		device = w.cfg.Recognizer.Device
	}
	if name == "" {
		return recognizer.ModelRef{}, services.Wrap(services.ErrResourceUnavailable, "select model", "", "no model selected", nil)
	}
	path := w.cfg.ModelPath(name)
	if info, err := os.Stat(path); err != nil || !info.IsDir() {
		return recognizer.ModelRef{}, services.Wrap(services.ErrResourceUnavailable, "select model", name, "model directory not found", err)
	}
	return recognizer.ModelRef{Name: name, Path: path, Device: device}, nil
}

// LoadModel loads a recognition model and installs it as the shared model
// used by retranscription. Loading a model that is already installed is a
// no-op.
func (w *Workbench) LoadModel(ctx context.Context, name, device string) (ModelState, error) {
	ref, err := w.ModelRef(name, device)
	if err != nil {
		return ModelState{}, err
	}
	if current := w.Model(); current.Loaded && current.Name == ref.Name && current.Device == ref.Device {
		return current, nil
	}
	if err := w.busy("load model", jobs.KindTranscription, jobs.KindRetranscription); err != nil {
		return ModelState{}, err
	}
	if w.deps.Loader == nil {
		return ModelState{}, services.Wrap(services.ErrConfiguration, "load model", ref.Name, "recognizer not configured", nil)
	}

	w.logger.Info("loading model",
		logging.String("model", ref.Name),
		logging.String("device", ref.Device),
		logging.String(logging.FieldEventType, "model_loading"),
	)
	model, err := w.deps.Loader.Load(ctx, ref)
	if err != nil {
		return ModelState{}, services.Wrap(services.ErrExternalFailure, "load model", ref.Name, "", err)
	}
	if err := w.deps.Supervisor.InstallModel(model); err != nil {
		_ = model.Close()
		return ModelState{}, err
	}
	w.publishModel()
	return w.Model(), nil
}

// UnloadModel releases the shared model. It fails with ErrJobBusy while a
// job holds it.
func (w *Workbench) UnloadModel() error {
	if err := w.deps.Supervisor.UnloadModel(); err != nil {
		return err
	}
	w.logger.Info("model unloaded", logging.String(logging.FieldEventType, "model_unloaded"))
	w.publishModel()
	return nil
}

// ListModels returns the model directories available under models_dir.
func (w *Workbench) ListModels() ([]string, error) {
	entries, err := os.ReadDir(w.cfg.Paths.ModelsDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrResourceUnavailable, "list models", w.cfg.Paths.ModelsDir, "read models directory", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// ListTranslationModels queries the translation endpoint for its models.
func (w *Workbench) ListTranslationModels(ctx context.Context) ([]string, error) {
	if w.deps.Translator == nil {
		return nil, services.Wrap(services.ErrConfiguration, "list translation models", "", "translation endpoint not configured", nil)
	}
	models, err := w.deps.Translator.ListModels(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalFailure, "list translation models", "", "", err)
	}
	return models, nil
}
