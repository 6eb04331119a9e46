package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clearstack/agentbox/internal/api"
	"github.com/clearstack/agentbox/internal/domain"
	"github.com/clearstack/agentbox/internal/service"
)

type ChatServiceInterface interface {
	Chat(ctx context.Context, agentID, message string) (*service.ChatOutput, error)
}

type ChatHandler struct {
	svc ChatServiceInterface
}

func NewChatHandler(svc ChatServiceInterface) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatRequest struct {
	Message string `json:"message"`
}

type ChatResponse struct {
	Response       string   `json:"response"`
	TokensUsed     int      `json:"tokens_used"`
	ResponseTimeMs int      `json:"response_time_ms"`
	// RAGContext is null when no knowledge base was consulted.
	RAGContext []string `json:"rag_context"`
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid request body")
		return
	}

	out, err := h.svc.Chat(r.Context(), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, &ChatResponse{
		Response:       out.Response,
		TokensUsed:     out.TokensUsed,
		ResponseTimeMs: out.ResponseTimeMs,
		RAGContext:     out.RAGContext,
	})
}
