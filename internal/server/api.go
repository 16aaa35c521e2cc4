// Package server exposes the run engine over a JSON gateway. Soft player
// failures travel as 200 responses with a nonzero ret code; content defects
// surface as 500s.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/qinfyy/Nebula-sub000/internal/game"
	"github.com/qinfyy/Nebula-sub000/internal/httpmw"
	"github.com/qinfyy/Nebula-sub000/internal/run"
	"github.com/qinfyy/Nebula-sub000/internal/telemetry"
	"github.com/qinfyy/Nebula-sub000/pkg/logger"
)

type Server struct {
	engine *game.Engine
}

func New(engine *game.Engine) *Server {
	return &Server{engine: engine}
}

// Routes builds the HTTP router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(httpmw.RequestID)
	r.Use(httpmw.AccessLog(logger.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(middleware.Heartbeat("/health"))

	r.Get("/api/stats", s.handleStats)

	r.Post("/api/run/apply", s.handleApply)
	r.Post("/api/run/interact", s.handleInteract)
	r.Post("/api/run/settle", s.handleSettle)

	r.Get("/api/builds", s.handleListBuilds)
	r.Post("/api/builds/save", s.handleSaveBuild)
	r.Post("/api/builds/import", s.handleImportBuild)
	r.Delete("/api/builds/{id}", s.handleDeleteBuild)

	return r
}

type applyRequest struct {
	PlayerID string `json:"player_id"`
	game.ApplyRequest
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.PlayerID == "" {
		writeErr(w, http.StatusBadRequest, "player_id required")
		return
	}

	res, err := s.engine.Apply(r.Context(), req.PlayerID, req.ApplyRequest)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type interactRequest struct {
	PlayerID string      `json:"player_id"`
	CaseID   int32       `json:"case_id"`
	Payload  run.Payload `json:"payload"`
}

func (s *Server) handleInteract(w http.ResponseWriter, r *http.Request) {
	var req interactRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid body")
		return
	}

	res, err := s.engine.Interact(r.Context(), req.PlayerID, req.CaseID, req.Payload)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type settleRequest struct {
	PlayerID string `json:"player_id"`
	Victory  bool   `json:"victory"`
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	var req settleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid body")
		return
	}

	res, err := s.engine.Settle(r.Context(), req.PlayerID, req.Victory)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type saveBuildRequest struct {
	PlayerID string `json:"player_id"`
	game.SaveBuildRequest
}

func (s *Server) handleSaveBuild(w http.ResponseWriter, r *http.Request) {
	var req saveBuildRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid body")
		return
	}

	res, err := s.engine.SaveBuild(r.Context(), req.PlayerID, req.SaveBuildRequest)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type importBuildRequest struct {
	PlayerID string `json:"player_id"`
	game.ImportRequest
}

func (s *Server) handleImportBuild(w http.ResponseWriter, r *http.Request) {
	var req importBuildRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid body")
		return
	}

	res, err := s.engine.ImportBuild(r.Context(), req.PlayerID, req.ImportRequest)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDeleteBuild(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player")
	if playerID == "" {
		writeErr(w, http.StatusBadRequest, "player required")
		return
	}

	res, err := s.engine.DeleteBuild(r.Context(), playerID, chi.URLParam(r, "id"))
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleListBuilds(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("player")
	if playerID == "" {
		writeErr(w, http.StatusBadRequest, "player required")
		return
	}

	builds, err := s.engine.ListBuilds(r.Context(), playerID)
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"builds": builds})
}

// handleStats aggregates the engine's telemetry window. With recording
// disabled it reports an empty window rather than failing.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	since := time.Now().AddDate(0, 0, -7)
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeErr(w, http.StatusBadRequest, "since must be YYYY-MM-DD")
			return
		}
		since = parsed
	}

	var events []telemetry.Event
	if rec, ok := s.engine.Telemetry.(interface{ Events() []telemetry.Event }); ok {
		events = rec.Events()
	}
	writeJSON(w, http.StatusOK, telemetry.CalculateStats(events, since))
}

func (s *Server) serverError(w http.ResponseWriter, r *http.Request, err error) {
	logger.Log.WithField("path", r.URL.Path).WithError(err).Error("request failed")
	writeErr(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}
