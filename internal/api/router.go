package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"subforge/internal/jobstore"
	"subforge/internal/logging"
	"subforge/internal/workbench"
)

// Server holds the handlers' collaborators.
type Server struct {
	wb     *workbench.Workbench
	store  *jobstore.Store
	logger *slog.Logger
}

// NewRouter builds the HTTP handler for wb. store may be nil, in which case
// job history is not served.
func NewRouter(wb *workbench.Workbench, store *jobstore.Store, allowedOrigins []string, logger *slog.Logger) http.Handler {
	s := &Server{
		wb:     wb,
		store:  store,
		logger: logging.NewComponentLogger(logger, "api"),
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(cors.Handler(corsOptions(allowedOrigins)))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/snapshot", s.snapshot)

		r.Post("/media", s.openMedia)
		r.Get("/media/envelope", s.envelope)

		r.Get("/segments", s.listSegments)
		r.Post("/segments/import", s.importSegments)
		r.Get("/segments/export", s.renderSegments)
		r.Post("/segments/export", s.exportSegments)
		r.Post("/segments/merge", s.mergeSegments)
		r.Put("/segments/{index}", s.editSegment)
		r.Put("/segments/{index}/region", s.updateRegion)
		r.Post("/segments/{index}/split", s.splitSegment)
		r.Delete("/segments/{index}", s.deleteSegment)
		r.Post("/cache", s.updateCache)

		r.Get("/models", s.listModels)
		r.Post("/models/load", s.loadModel)
		r.Post("/models/unload", s.unloadModel)
		r.Get("/translation/models", s.listTranslationModels)

		r.Get("/jobs", s.listJobs)
		r.Get("/jobs/{id}", s.getJob)
		r.Post("/jobs/transcription", s.startTranscription)
		r.Post("/jobs/retranscription", s.startRetranscription)
		r.Post("/jobs/translation", s.startTranslation)
		r.Post("/jobs/{kind}/cancel", s.cancelJob)

		r.Get("/events", s.events)
	})
	return r
}

func corsOptions(allowedOrigins []string) cors.Options {
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	// Credentials are never combined with a wildcard origin.
	allowCreds := true
	for _, o := range allowedOrigins {
		if o == "*" {
			allowCreds = false
			break
		}
	}
	return cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Last-Event-ID", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: allowCreds,
		MaxAge:           300,
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := s.wb.Snapshot(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
