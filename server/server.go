// Package server exposes the HTTP boundary: the chat endpoint in front of
// the pipeline, plus health, session clearing, tracking and contact routes.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mhristev/cvchat/pkg/chain/rag"
	"github.com/mhristev/cvchat/pkg/contact"
	"github.com/mhristev/cvchat/pkg/tracking"
)

// ChatService is the pipeline surface the server needs.
type ChatService interface {
	Answer(ctx context.Context, sessionID, question string) (*rag.Result, error)
	Clear(ctx context.Context, sessionID string) error
}

// EventService persists tracking events.
type EventService interface {
	SaveEvent(ctx context.Context, event tracking.Event) (string, error)
}

// QuestionService persists contact questions with a tagged result.
type QuestionService interface {
	SaveQuestion(ctx context.Context, question contact.Question) contact.Result
}

type Config struct {
	Version string

	Chat ChatService

	// Tracking may be nil when no analytics storage is configured.
	Tracking EventService

	Contact QuestionService

	Logger *slog.Logger
}

type Server struct {
	version string

	chat     ChatService
	tracking EventService
	contact  QuestionService

	logger *slog.Logger
}

func New(cfg Config) http.Handler {
	logger := cfg.Logger

	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		version: cfg.Version,

		chat:     cfg.Chat,
		tracking: cfg.Tracking,
		contact:  cfg.Contact,

		logger: logger,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	// The CV site is public; keep CORS open like the original deployment.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))

	r.Get("/", s.handleRoot)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/chat", s.handleChat)
		r.Delete("/chat/{session_id}", s.handleClearSession)

		r.Post("/user-tracking", s.handleUserTracking)
		r.Post("/save-user-question", s.handleSaveUserQuestion)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func serverError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
}
