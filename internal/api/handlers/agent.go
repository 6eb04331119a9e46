package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/clearstack/agentbox/internal/api"
	"github.com/clearstack/agentbox/internal/domain"
	"github.com/clearstack/agentbox/internal/service"
)

type AgentServiceInterface interface {
	Create(ctx context.Context, input service.CreateAgentInput) (*domain.Agent, error)
	GetByID(ctx context.Context, id string) (*domain.Agent, error)
	List(ctx context.Context) ([]*domain.Agent, error)
	Update(ctx context.Context, id string, input service.UpdateAgentInput) (*domain.Agent, error)
	Delete(ctx context.Context, id string) error
	Status(ctx context.Context, id string) (*service.AgentStatusSummary, error)
	ListConversations(ctx context.Context, input service.ListConversationsInput) (*service.ListConversationsOutput, error)
}

type AgentHandler struct {
	svc AgentServiceInterface
}

func NewAgentHandler(svc AgentServiceInterface) *AgentHandler {
	return &AgentHandler{svc: svc}
}

type CreateAgentRequest struct {
	Name         string `json:"name"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	SystemPrompt string `json:"system_prompt"`
}

// UpdateAgentRequest is a typed partial update; unknown fields are rejected
// by the strict decoder rather than applied reflectively.
type UpdateAgentRequest struct {
	Name         *string `json:"name"`
	Model        *string `json:"model"`
	SystemPrompt *string `json:"system_prompt"`
	Status       *string `json:"status"`
}

type AgentResponse struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	SystemPrompt string `json:"system_prompt"`
	Status       string `json:"status"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

func agentToResponse(a *domain.Agent) *AgentResponse {
	return &AgentResponse{
		ID:           a.ID,
		Name:         a.Name,
		Provider:     string(a.Provider),
		Model:        a.Model,
		SystemPrompt: a.SystemPrompt,
		Status:       string(a.Status),
		CreatedAt:    a.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    a.UpdatedAt.Format(time.RFC3339),
	}
}

func (h *AgentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid request body")
		return
	}

	agent, err := h.svc.Create(r.Context(), service.CreateAgentInput{
		Name:         req.Name,
		Provider:     domain.Provider(req.Provider),
		Model:        req.Model,
		SystemPrompt: req.SystemPrompt,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, agentToResponse(agent))
}

func (h *AgentHandler) Get(w http.ResponseWriter, r *http.Request) {
	agent, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, agentToResponse(agent))
}

func (h *AgentHandler) List(w http.ResponseWriter, r *http.Request) {
	agents, err := h.svc.List(r.Context())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := make([]*AgentResponse, 0, len(agents))
	for _, a := range agents {
		resp = append(resp, agentToResponse(a))
	}
	api.Success(w, http.StatusOK, resp)
}

func (h *AgentHandler) Update(w http.ResponseWriter, r *http.Request) {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req UpdateAgentRequest
	if err := decoder.Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid request body: "+err.Error())
		return
	}

	input := service.UpdateAgentInput{
		Name:         req.Name,
		Model:        req.Model,
		SystemPrompt: req.SystemPrompt,
	}
	if req.Status != nil {
		status := domain.AgentStatus(*req.Status)
		input.Status = &status
	}

	agent, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, agentToResponse(agent))
}

func (h *AgentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type AgentStatusResponse struct {
	AgentID           string `json:"agent_id"`
	Name              string `json:"name"`
	Status            string `json:"status"`
	ConversationCount int    `json:"conversation_count"`
	TotalTokensUsed   int64  `json:"total_tokens_used"`
	CreatedAt         string `json:"created_at"`
}

func (h *AgentHandler) Status(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Status(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, &AgentStatusResponse{
		AgentID:           summary.Agent.ID,
		Name:              summary.Agent.Name,
		Status:            string(summary.Agent.Status),
		ConversationCount: summary.ConversationCount,
		TotalTokensUsed:   summary.TotalTokensUsed,
		CreatedAt:         summary.Agent.CreatedAt.Format(time.RFC3339),
	})
}

type ConversationResponse struct {
	ID             string   `json:"id"`
	UserMessage    string   `json:"user_message"`
	AgentResponse  string   `json:"agent_response"`
	TokensUsed     int      `json:"tokens_used"`
	ResponseTimeMs int      `json:"response_time_ms"`
	RAGContext     []string `json:"rag_context"`
	CreatedAt      string   `json:"created_at"`
}

type ConversationListResponse struct {
	Items   []*ConversationResponse `json:"items"`
	Cursor  string                  `json:"cursor,omitempty"`
	HasMore bool                    `json:"has_more"`
}

func (h *AgentHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	out, err := h.svc.ListConversations(r.Context(), service.ListConversationsInput{
		AgentID: chi.URLParam(r, "id"),
		Cursor:  r.URL.Query().Get("cursor"),
		Limit:   limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*ConversationResponse, 0, len(out.Items))
	for _, turn := range out.Items {
		items = append(items, &ConversationResponse{
			ID:             turn.ID,
			UserMessage:    turn.UserMessage,
			AgentResponse:  turn.AgentResponse,
			TokensUsed:     turn.TokensUsed,
			ResponseTimeMs: turn.ResponseTimeMs,
			RAGContext:     turn.RAGContext,
			CreatedAt:      turn.CreatedAt.Format(time.RFC3339),
		})
	}

	api.Success(w, http.StatusOK, &ConversationListResponse{
		Items:   items,
		Cursor:  out.Cursor,
		HasMore: out.HasMore,
	})
}
