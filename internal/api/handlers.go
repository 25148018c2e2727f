package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/verte-zerg/spirestats/internal/model"
	"github.com/verte-zerg/spirestats/internal/runpath"
	"github.com/verte-zerg/spirestats/internal/service"
)

const (
	codeNotFound    = "NOT_FOUND"
	codeInvalidPath = "INVALID_PATH"
	codeBadRequest  = "BAD_REQUEST"
)

type apiError struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

type setPathRequest struct {
	Path string `json:"path"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   s.version,
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	filter, err := parseRunFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, apiError{Error: "Invalid query", Code: codeBadRequest, Details: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, s.svc.ListRuns(filter))
}

func (s *Server) handleCharacterRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.svc.CharacterRuns(mux.Vars(r)["character"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Stats())
}

func (s *Server) handleCharacterStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.CharacterStats(mux.Vars(r)["character"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Export())
}

func (s *Server) handleCharacters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Characters())
}

func (s *Server) handleGetPath(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.PathInfo())
}

func (s *Server) handleSetPath(w http.ResponseWriter, r *http.Request) {
	var req setPathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, apiError{Error: "Invalid request body", Code: codeBadRequest, Details: err.Error()})
		return
	}
	info, err := s.svc.SetPath(req.Path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleClearPath(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ClearPath())
}

func parseRunFilter(r *http.Request) (model.RunFilter, error) {
	q := r.URL.Query()
	filter := model.RunFilter{Character: q.Get("character")}
	if v := q.Get("victories_only"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return model.RunFilter{}, errors.New("victories_only must be a boolean")
		}
		filter.VictoriesOnly = b
	}
	if v := q.Get("min_ascension"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return model.RunFilter{}, errors.New("min_ascension must be an integer")
		}
		filter.MinAscension = &n
	}
	return filter, nil
}

func writeServiceError(w http.ResponseWriter, err error) {
	var nf *service.NotFoundError
	if errors.As(err, &nf) {
		body := apiError{Error: "Character not found", Code: codeNotFound}
		if errors.Is(err, service.ErrUnknownCharacter) {
			body.Details = nf.Details()
		}
		writeError(w, http.StatusNotFound, body)
		return
	}
	var pe *runpath.PathError
	if errors.As(err, &pe) {
		writeError(w, http.StatusBadRequest, apiError{Error: pe.Error(), Code: codeInvalidPath})
		return
	}
	writeError(w, http.StatusInternalServerError, apiError{Error: err.Error(), Code: "INTERNAL"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, body apiError) {
	writeJSON(w, status, body)
}
