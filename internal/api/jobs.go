package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"subforge/internal/jobs"
	"subforge/internal/jobstore"
	"subforge/internal/workbench"
)

type retranscribeRequest struct {
	Index    int      `json:"index"`
	StartSec *float64 `json:"start_sec"`
	EndSec   *float64 `json:"end_sec"`
}

type translateRequest struct {
	Indices    []int `json:"indices"`
	Contextual bool  `json:"contextual"`
}

type jobsResponse struct {
	Live    []workbench.JobView `json:"live"`
	History []workbench.JobView `json:"history,omitempty"`
}

func (s *Server) listJobs(w http.ResponseWriter, r *http.Request) {
	resp := jobsResponse{Live: s.wb.Jobs()}
	if raw := r.URL.Query().Get("history"); raw != "" && s.store != nil {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			badRequest(w, "history must be a non-negative count")
			return
		}
		history, err := s.store.List(r.Context(), jobstore.Filter{Limit: limit})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.History = make([]workbench.JobView, len(history))
		for i, rec := range history {
			resp.History[i] = viewOfRecord(rec)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if view, ok := s.wb.Job(id); ok {
		writeJSON(w, http.StatusOK, view)
		return
	}
	if s.store != nil {
		rec, err := s.store.Get(r.Context(), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		if rec != nil {
			writeJSON(w, http.StatusOK, viewOfRecord(*rec))
			return
		}
	}
	writeJSON(w, http.StatusNotFound, errorBody{Error: "job not found"})
}

func (s *Server) startTranscription(w http.ResponseWriter, r *http.Request) {
	var req workbench.TranscriptionRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid transcription body")
		return
	}
	view, err := s.wb.StartTranscription(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, view)
}

func (s *Server) startRetranscription(w http.ResponseWriter, r *http.Request) {
	var req retranscribeRequest
	if err := decode(r, &req); err != nil || req.Index < 1 {
		badRequest(w, "body must carry a segment index")
		return
	}
	var span *workbench.Range
	if req.StartSec != nil || req.EndSec != nil {
		if req.StartSec == nil || req.EndSec == nil {
			badRequest(w, "start_sec and end_sec must be given together")
			return
		}
		span = &workbench.Range{StartSec: *req.StartSec, EndSec: *req.EndSec}
	}
	view, err := s.wb.StartRetranscription(r.Context(), req.Index-1, span)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, view)
}

func (s *Server) startTranslation(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid translation body")
		return
	}
	rows := make([]int, len(req.Indices))
	for i, index := range req.Indices {
		rows[i] = index - 1
	}
	view, err := s.wb.StartTranslation(r.Context(), workbench.TranslationRequest{Rows: rows, Contextual: req.Contextual})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, view)
}

func (s *Server) cancelJob(w http.ResponseWriter, r *http.Request) {
	kind, err := jobs.ParseKind(chi.URLParam(r, "kind"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	view, ok := s.wb.Cancel(kind)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "no " + string(kind) + " job is running"})
		return
	}
	writeJSON(w, http.StatusAccepted, view)
}

func viewOfRecord(rec jobs.Record) workbench.JobView {
	return workbench.JobView{
		ID:         rec.ID,
		Kind:       rec.Kind,
		State:      rec.State,
		Subject:    rec.Subject,
		Reason:     rec.Reason,
		StartedAt:  rec.StartedAt,
		FinishedAt: rec.FinishedAt,
	}
}
