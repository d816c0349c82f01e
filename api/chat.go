package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/newsquill/newsquill/internal/chat"
	"github.com/newsquill/newsquill/internal/log"
	"github.com/newsquill/newsquill/internal/session"
)

// ChatService is the conversation surface the handlers depend on.
type ChatService interface {
	HandleTurn(ctx context.Context, sessionID, message string) (string, error)
	History(ctx context.Context, sessionID string) ([]session.Turn, error)
	Reset(ctx context.Context, sessionID string) error
}

// ChatHandler handles the chat, history and reset endpoints.
type ChatHandler struct {
	svc    ChatService
	logger log.Logger
}

// NewChatHandler creates a chat handler.
func NewChatHandler(svc ChatService, logger log.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.handleChat)
	mux.HandleFunc("GET /api/history/{sessionId}", h.handleHistory)
	mux.HandleFunc("DELETE /api/reset/{sessionId}", h.handleReset)
}

// ChatRequest is the POST /api/chat request body. SessionID is optional;
// when absent a fresh session is created and its ID returned.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
}

// ChatResponse is the POST /api/chat response body.
type ChatResponse struct {
	SessionID string `json:"sessionId"`
	Answer    string `json:"answer"`
}

// HistoryResponse is the GET /api/history/{sessionId} response body.
// Turns is always present, empty for unknown or expired sessions.
type HistoryResponse struct {
	SessionID string         `json:"sessionId"`
	Turns     []session.Turn `json:"turns"`
}

// ResetResponse is the DELETE /api/reset/{sessionId} response body.
type ResetResponse struct {
	SessionID string `json:"sessionId"`
	Reset     bool   `json:"reset"`
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be JSON", h.logger)
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "missing_message", "message is required", h.logger)
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	answer, err := h.svc.HandleTurn(r.Context(), sessionID, req.Message)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			writeError(w, http.StatusBadRequest, "missing_message", "message is required", h.logger)
			return
		}
		h.logger.Error("chat turn failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "chat_failed", "failed to answer the message", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{SessionID: sessionID, Answer: answer}, h.logger)
}

func (h *ChatHandler) handleHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")

	turns, err := h.svc.History(r.Context(), sessionID)
	if err != nil {
		h.logger.Error("history read failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "history_failed", "failed to read history", h.logger)
		return
	}
	if turns == nil {
		turns = []session.Turn{}
	}

	writeJSON(w, http.StatusOK, HistoryResponse{SessionID: sessionID, Turns: turns}, h.logger)
}

func (h *ChatHandler) handleReset(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionId")

	if err := h.svc.Reset(r.Context(), sessionID); err != nil {
		h.logger.Error("reset failed", "session_id", sessionID, "error", err)
		writeError(w, http.StatusInternalServerError, "reset_failed", "failed to reset session", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, ResetResponse{SessionID: sessionID, Reset: true}, h.logger)
}
