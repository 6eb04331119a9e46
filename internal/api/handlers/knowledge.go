package handlers

import (
	"context"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clearstack/agentbox/internal/api"
	"github.com/clearstack/agentbox/internal/domain"
	"github.com/clearstack/agentbox/internal/service"
)

type KnowledgeServiceInterface interface {
	Upload(ctx context.Context, input service.UploadInput) (int, error)
	HasKnowledge(ctx context.Context, agentID string) (bool, error)
	Reset(ctx context.Context, agentID string) (int, error)
}

type KnowledgeHandler struct {
	svc           KnowledgeServiceInterface
	maxUploadSize int64
}

func NewKnowledgeHandler(svc KnowledgeServiceInterface, maxUploadSize int64) *KnowledgeHandler {
	return &KnowledgeHandler{svc: svc, maxUploadSize: maxUploadSize}
}

type UploadResponse struct {
	Filename      string `json:"filename"`
	ChunksCreated int    `json:"chunks_created"`
	Status        string `json:"status"`
}

func (h *KnowledgeHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "file field is required")
		return
	}
	defer file.Close()

	content, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
	if err != nil {
		api.Error(w, http.StatusBadRequest, domain.ErrCodeValidation, "failed to read file")
		return
	}
	if int64(len(content)) > h.maxUploadSize {
		api.Error(w, http.StatusRequestEntityTooLarge, domain.ErrCodeValidation, "file exceeds upload size limit")
		return
	}

	fileType := strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")

	chunks, err := h.svc.Upload(r.Context(), service.UploadInput{
		AgentID:  chi.URLParam(r, "id"),
		Filename: header.Filename,
		FileType: fileType,
		Content:  content,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, &UploadResponse{
		Filename:      header.Filename,
		ChunksCreated: chunks,
		Status:        "processed",
	})
}

type KnowledgeStatusResponse struct {
	AgentID      string `json:"agent_id"`
	HasKnowledge bool   `json:"has_knowledge"`
}

func (h *KnowledgeHandler) Status(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "id")
	has, err := h.svc.HasKnowledge(r.Context(), agentID)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, &KnowledgeStatusResponse{
		AgentID:      agentID,
		HasKnowledge: has,
	})
}

type KnowledgeResetResponse struct {
	AgentID      string `json:"agent_id"`
	DeletedCount int    `json:"deleted_count"`
}

func (h *KnowledgeHandler) Reset(w http.ResponseWriter, r *http.Request) {
	agentID := chi.URLParam(r, "id")
	deleted, err := h.svc.Reset(r.Context(), agentID)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, &KnowledgeResetResponse{
		AgentID:      agentID,
		DeletedCount: deleted,
	})
}
