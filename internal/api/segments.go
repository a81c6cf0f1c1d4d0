package api

import (
	"net/http"
	"strconv"
	"strings"

	"subforge/internal/subtitles"
	"subforge/internal/timeline"
	"subforge/internal/workbench"
)

type pathRequest struct {
	Path string `json:"path"`
}

type exportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode"`
}

type mergeRequest struct {
	Indices []int `json:"indices"`
}

type regionRequest struct {
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
}

func (s *Server) openMedia(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Path) == "" {
		badRequest(w, "body must be {\"path\": \"<media file>\"}")
		return
	}
	state, err := s.wb.OpenMedia(r.Context(), req.Path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) envelope(w http.ResponseWriter, r *http.Request) {
	env, err := s.wb.Envelope(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (s *Server) listSegments(w http.ResponseWriter, r *http.Request) {
	segments, err := s.wb.Segments(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	views := make([]timeline.View, len(segments))
	for i, seg := range segments {
		views[i] = timeline.ViewOf(seg)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) importSegments(w http.ResponseWriter, r *http.Request) {
	var req pathRequest
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Path) == "" {
		badRequest(w, "body must be {\"path\": \"<srt file>\"}")
		return
	}
	count, err := s.wb.Import(r.Context(), req.Path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"segments": count})
}

func (s *Server) renderSegments(w http.ResponseWriter, r *http.Request) {
	mode, err := subtitles.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	content, err := s.wb.Render(r.Context(), mode)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/x-subrip; charset=utf-8")
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	_, _ = w.Write([]byte(content))
}

func (s *Server) exportSegments(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decode(r, &req); err != nil || strings.TrimSpace(req.Path) == "" {
		badRequest(w, "body must be {\"path\": \"<srt file>\", \"mode\": \"source|translation|bilingual\"}")
		return
	}
	mode, err := subtitles.ParseMode(req.Mode)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := s.wb.Export(r.Context(), req.Path, mode); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": req.Path})
}

func (s *Server) mergeSegments(w http.ResponseWriter, r *http.Request) {
	var req mergeRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "body must be {\"indices\": [..]}")
		return
	}
	rows := make([]int, len(req.Indices))
	for i, index := range req.Indices {
		rows[i] = index - 1
	}
	if err := s.wb.Merge(r.Context(), rows); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) editSegment(w http.ResponseWriter, r *http.Request) {
	row, ok := rowParam(r)
	if !ok {
		badRequest(w, "invalid segment index")
		return
	}
	var req workbench.RowEdit
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid segment body")
		return
	}
	seg, err := s.wb.EditRow(r.Context(), row, req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, timeline.ViewOf(seg))
}

func (s *Server) updateRegion(w http.ResponseWriter, r *http.Request) {
	row, ok := rowParam(r)
	if !ok {
		badRequest(w, "invalid segment index")
		return
	}
	var req regionRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "body must be {\"start_sec\": n, \"end_sec\": n}")
		return
	}
	if err := s.wb.UpdateRegion(r.Context(), row, req.StartSec, req.EndSec); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) splitSegment(w http.ResponseWriter, r *http.Request) {
	row, ok := rowParam(r)
	if !ok {
		badRequest(w, "invalid segment index")
		return
	}
	if err := s.wb.Split(r.Context(), row); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteSegment(w http.ResponseWriter, r *http.Request) {
	row, ok := rowParam(r)
	if !ok {
		badRequest(w, "invalid segment index")
		return
	}
	if err := s.wb.Delete(r.Context(), row); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateCache(w http.ResponseWriter, r *http.Request) {
	path, err := s.wb.UpdateCache(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path})
}
