package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/mhristev/cvchat/pkg/contact"
	"github.com/mhristev/cvchat/pkg/tracking"
)

const maxQuestionLength = 1000

type chatRequest struct {
	SessionID string `json:"session_id"`
	Question  string `json:"question"`
}

type chatResponse struct {
	SessionID    string `json:"session_id"`
	Question     string `json:"question"`
	Answer       string `json:"answer"`
	SourcesCount int    `json:"sources_count"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if req.SessionID == "" {
		badRequest(w, "session_id is required")
		return
	}

	if req.Question == "" {
		badRequest(w, "question is required")
		return
	}

	// characters, not bytes
	if utf8.RuneCountInString(req.Question) > maxQuestionLength {
		badRequest(w, fmt.Sprintf("question exceeds %d characters", maxQuestionLength))
		return
	}

	result, err := s.chat.Answer(r.Context(), req.SessionID, req.Question)

	if err != nil {
		s.logger.Error("chat failed", "session_id", req.SessionID, "error", err)
		serverError(w, fmt.Sprintf("error processing question: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID:    req.SessionID,
		Question:     req.Question,
		Answer:       result.Answer,
		SourcesCount: result.SourcesCount,
	})
}

func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "session_id")

	if err := s.chat.Clear(r.Context(), sessionID); err != nil {
		s.logger.Error("clear session failed", "session_id", sessionID, "error", err)
		serverError(w, fmt.Sprintf("error clearing session: %v", err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.version,
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "running"})
}

func (s *Server) handleUserTracking(w http.ResponseWriter, r *http.Request) {
	if s.tracking == nil {
		serverError(w, "tracking storage is not configured")
		return
	}

	var event tracking.Event

	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	id, err := s.tracking.SaveEvent(r.Context(), event)

	if err != nil {
		s.logger.Error("save tracking event failed", "error", err)
		serverError(w, fmt.Sprintf("failed to store tracking event: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   map[string]string{"id": id},
	})
}

func (s *Server) handleSaveUserQuestion(w http.ResponseWriter, r *http.Request) {
	var question contact.Question

	if err := json.NewDecoder(r.Body).Decode(&question); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	result := s.contact.SaveQuestion(r.Context(), question)

	if result.Status != contact.StatusSuccess {
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": result.Message,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"data":   result.Question,
	})
}
