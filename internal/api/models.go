package api

import (
	"net/http"

	"subforge/internal/workbench"
)

type modelsResponse struct {
	Models []string             `json:"models"`
	Loaded workbench.ModelState `json:"loaded"`
}

type loadModelRequest struct {
	Name   string `json:"name"`
	Device string `json:"device"`
}

func (s *Server) listModels(w http.ResponseWriter, r *http.Request) {
	names, err := s.wb.ListModels()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, modelsResponse{Models: names, Loaded: s.wb.Model()})
}

func (s *Server) loadModel(w http.ResponseWriter, r *http.Request) {
	var req loadModelRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "body must be {\"name\": \"<model dir>\", \"device\": \"cpu|cuda\"}")
		return
	}
	state, err := s.wb.LoadModel(r.Context(), req.Name, req.Device)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) unloadModel(w http.ResponseWriter, r *http.Request) {
	if err := s.wb.UnloadModel(); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listTranslationModels(w http.ResponseWriter, r *http.Request) {
	models, err := s.wb.ListTranslationModels(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if models == nil {
		models = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"models": models})
}
