package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"makeupexam/internal/automation"
	"makeupexam/internal/history"
	"makeupexam/internal/preflight"
)

const defaultRunLimit = 20

type runsResponse struct {
	Runs []history.Run `json:"runs"`
}

type runResponse struct {
	Run *history.Run `json:"run"`
}

type statusResponse struct {
	Automation automation.Status       `json:"automation"`
	Browser    preflight.BrowserStatus `json:"browser"`
	History    bool                    `json:"history"`
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeJSON(w, http.StatusOK, runsResponse{Runs: []history.Run{}})
		return
	}
	limit := defaultRunLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = parsed
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	s.writeJSON(w, http.StatusOK, runsResponse{Runs: runs})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		s.writeError(w, http.StatusNotFound, "run not found")
		return
	}
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		if errors.Is(err, history.ErrRunNotFound) {
			s.writeError(w, http.StatusNotFound, "run not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, runResponse{Run: run})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, statusResponse{
		Automation: s.runner.Status(),
		Browser:    preflight.CheckBrowser(r.Context(), s.cfg),
		History:    s.store != nil,
	})
}
