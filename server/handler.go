// Package server exposes the interview engine over a websocket endpoint plus
// a small set of HTTP status routes.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/voxhire/interviewd/identity"
	"github.com/voxhire/interviewd/interview"
	"github.com/voxhire/interviewd/logging"
	"github.com/voxhire/interviewd/provider"
	"github.com/voxhire/interviewd/store"
	"github.com/voxhire/interviewd/transcript"
)

// Deps collects everything a Handler needs.
type Deps struct {
	Interviewer *interview.Interviewer
	Speech      provider.Speech
	Transcriber provider.Transcriber
	Repo        store.Repository
	Verifier    identity.Verifier
	Registry    *Registry
	Logger      logging.Logger

	TranscriptDir       string
	TranscriptQueueSize int
	AllowedOrigin       string
	Dev                 bool
}

// Handler serves the interview websocket and the status API.
type Handler struct {
	interviewer *interview.Interviewer
	speech      provider.Speech
	transcriber provider.Transcriber
	repo        store.Repository
	verifier    identity.Verifier
	registry    *Registry
	logger      logging.Logger

	transcriptDir string
	queueSize     int
	allowedOrigin string
	isDev         bool
}

// NewHandler creates a Handler from its dependencies.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	registry := d.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	return &Handler{
		interviewer:   d.Interviewer,
		speech:        d.Speech,
		transcriber:   d.Transcriber,
		repo:          d.Repo,
		verifier:      d.Verifier,
		registry:      registry,
		logger:        logger,
		transcriptDir: d.TranscriptDir,
		queueSize:     d.TranscriptQueueSize,
		allowedOrigin: d.AllowedOrigin,
		isDev:         d.Dev,
	}
}

// Registry returns the live session registry.
func (h *Handler) Registry() *Registry { return h.registry }

// Routes builds the router for the interview service.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/healthz", h.handleHealth)
	r.Get("/api/interview/stages", h.handleStages)
	r.Get("/api/interview/sessions/{sessionID}", h.handleSessionStatus)
	r.Get("/api/interview/users/{userID}/records", h.handleUserRecords)
	r.Get("/ws/interview", h.handleWS)
	return r
}

func (h *Handler) handleWS(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer ws.Close(websocket.StatusNormalClosure, "session ended")

	userID, err := h.verifier.Verify(r.URL.Query().Get("token"))
	if err != nil {
		h.logger.Warn("websocket auth rejected", "ip", r.RemoteAddr, "error", err)
		ws.Close(websocket.StatusPolicyViolation, "invalid token")
		return
	}

	sessionID := uuid.NewString()
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	h.registry.register(sessionID, cancel)
	defer h.registry.unregister(sessionID)

	logger := logging.ForSession(h.logger, sessionID)
	sess := &session{
		id:            sessionID,
		userID:        userID,
		conn:          &wsSender{conn: ws},
		interviewer:   h.interviewer,
		speech:        h.speech,
		transcriber:   h.transcriber,
		repo:          h.repo,
		logger:        logger,
		newRecorder:   h.newRecorder,
		redirectDelay: defaultRedirectDelay,
	}
	defer sess.abort()

	logger.Info("interview connection opened", "user_id", userID)

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				logger.Info("interview connection closed", "user_id", userID)
			} else {
				logger.Warn("websocket read error", "error", err)
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sess.sendError(ctx, "invalid JSON format")
			continue
		}
		done := sess.handle(ctx, msg)
		if sess.state != nil {
			h.registry.bind(sessionID, sess.state)
		}
		if done {
			return
		}
	}
}

func (h *Handler) newRecorder(sessionID, userID, jobTitle, resumeText string) (recorder, error) {
	w, err := transcript.New(h.transcriptDir, sessionID, userID, jobTitle, resumeText,
		transcript.WithLogger(h.logger), transcript.WithQueueSize(h.queueSize))
	if err != nil {
		return nil, err
	}
	return w, nil
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	h.logger.Warn("websocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.repo.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type stageListing struct {
	Key string `json:"key"`
	interview.StageConfig
}

func (h *Handler) handleStages(w http.ResponseWriter, _ *http.Request) {
	order := interview.StageOrder()
	out := make([]stageListing, 0, len(order))
	for _, stage := range order {
		out = append(out, stageListing{Key: string(stage), StageConfig: stage.Config()})
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleSessionStatus(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	snap, ok := h.registry.Snapshot(sessionID)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) handleUserRecords(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	records, err := h.repo.ListInterviewRecords(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("list interview records failed", "user_id", userID, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
