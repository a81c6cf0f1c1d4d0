package jobs

import (
	"subforge/internal/logging"
	"subforge/internal/recognizer"
	"subforge/internal/services"
)

// InstallModel makes model the shared recognition model, closing the
// previous one. It fails with ErrJobBusy while a model-holding job is live.
func (s *Supervisor) InstallModel(model recognizer.Model) error {
	s.mu.Lock()
	if err := s.modelBusyLocked("load model"); err != nil {
		s.mu.Unlock()
		return err
	}
	previous := s.model
	s.model = model
	s.mu.Unlock()

	if previous != nil && previous != model {
		if err := previous.Close(); err != nil {
			s.logger.Warn("previous model close failed", logging.Error(err))
		}
	}
	ref := model.Ref()
	s.logger.Info("model installed",
		logging.String("model", ref.Name),
		logging.String("device", ref.Device),
		logging.String(logging.FieldEventType, "model_loaded"),
	)
	return nil
}

// Model returns the shared recognition model, if one is loaded.
func (s *Supervisor) Model() (recognizer.Model, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model, s.model != nil
}

// UnloadModel releases the shared model. It fails with ErrJobBusy while a
// transcription or retranscription is live and with ErrResourceUnavailable
// when no model is loaded.
func (s *Supervisor) UnloadModel() error {
	s.mu.Lock()
	if err := s.modelBusyLocked("unload model"); err != nil {
		s.mu.Unlock()
		return err
	}
	model := s.model
	s.model = nil
	s.mu.Unlock()

	if model == nil {
		return services.Wrap(services.ErrResourceUnavailable, "unload model", "", "no model loaded", nil)
	}
	if err := model.Close(); err != nil {
		return services.Wrap(services.ErrExternalFailure, "unload model", model.Ref().Name, "close failed", err)
	}
	s.logger.Info("model unloaded",
		logging.String("model", model.Ref().Name),
		logging.String(logging.FieldEventType, "model_unloaded"),
	)
	return nil
}

func (s *Supervisor) modelBusyLocked(operation string) error {
	for kind, handle := range s.live {
		if kind.UsesModel() && handle != nil && handle.Live() {
			return services.Wrap(services.ErrJobBusy, operation, string(kind), "a job is using the model", nil)
		}
	}
	return nil
}
