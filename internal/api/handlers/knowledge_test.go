package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clearstack/agentbox/internal/domain"
	"github.com/clearstack/agentbox/internal/service"
)

type MockKnowledgeService struct {
	mock.Mock
}

func (m *MockKnowledgeService) Upload(ctx context.Context, input service.UploadInput) (int, error) {
	args := m.Called(ctx, input)
	return args.Int(0), args.Error(1)
}

func (m *MockKnowledgeService) HasKnowledge(ctx context.Context, agentID string) (bool, error) {
	args := m.Called(ctx, agentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockKnowledgeService) Reset(ctx context.Context, agentID string) (int, error) {
	args := m.Called(ctx, agentID)
	return args.Int(0), args.Error(1)
}

func uploadRequest(t *testing.T, agentID, filename string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/agents/"+agentID+"/knowledge", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", agentID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func knowledgeRequest(method, agentID string) *http.Request {
	req := httptest.NewRequest(method, "/agents/"+agentID+"/knowledge", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", agentID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestKnowledgeHandler_Upload_Success(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc, 5*1024*1024)

	content := []byte("The refund policy allows returns within 30 days.")
	mockSvc.On("Upload", mock.Anything, mock.MatchedBy(func(input service.UploadInput) bool {
		return input.AgentID == testAgentID &&
			input.Filename == "policy.txt" &&
			input.FileType == "txt" &&
			bytes.Equal(input.Content, content)
	})).Return(3, nil)

	req := uploadRequest(t, testAgentID, "policy.txt", content)
	w := httptest.NewRecorder()

	handler.Upload(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Data UploadResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "policy.txt", resp.Data.Filename)
	assert.Equal(t, 3, resp.Data.ChunksCreated)
	assert.Equal(t, "processed", resp.Data.Status)
	mockSvc.AssertExpectations(t)
}

func TestKnowledgeHandler_Upload_FileTypeFromExtension(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc, 5*1024*1024)

	mockSvc.On("Upload", mock.Anything, mock.MatchedBy(func(input service.UploadInput) bool {
		return input.FileType == "pdf"
	})).Return(1, nil)

	req := uploadRequest(t, testAgentID, "Manual.PDF", []byte("%PDF-1.4"))
	w := httptest.NewRecorder()

	handler.Upload(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestKnowledgeHandler_Upload_MissingFileField(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc, 5*1024*1024)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("other", "value"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/agents/"+testAgentID+"/knowledge", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()

	handler.Upload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestKnowledgeHandler_Upload_TooLarge(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc, 64)

	req := uploadRequest(t, testAgentID, "big.txt", []byte(strings.Repeat("a", 100)))
	w := httptest.NewRecorder()

	handler.Upload(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	mockSvc.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything)
}

func TestKnowledgeHandler_Upload_UnsupportedFormat(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc, 5*1024*1024)

	mockSvc.On("Upload", mock.Anything, mock.Anything).
		Return(0, domain.NewDomainError(domain.ErrCodeUnsupportedFormat, `file type "exe" not allowed`))

	req := uploadRequest(t, testAgentID, "setup.exe", []byte("MZ"))
	w := httptest.NewRecorder()

	handler.Upload(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, domain.ErrCodeUnsupportedFormat, resp.Error.Code)
}

func TestKnowledgeHandler_Status(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc, 5*1024*1024)

	mockSvc.On("HasKnowledge", mock.Anything, testAgentID).Return(true, nil)

	req := knowledgeRequest(http.MethodGet, testAgentID)
	w := httptest.NewRecorder()

	handler.Status(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data KnowledgeStatusResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Data.HasKnowledge)
	assert.Equal(t, testAgentID, resp.Data.AgentID)
}

func TestKnowledgeHandler_Reset(t *testing.T) {
	mockSvc := new(MockKnowledgeService)
	handler := NewKnowledgeHandler(mockSvc, 5*1024*1024)

	mockSvc.On("Reset", mock.Anything, testAgentID).Return(17, nil)

	req := knowledgeRequest(http.MethodDelete, testAgentID)
	w := httptest.NewRecorder()

	handler.Reset(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data KnowledgeResetResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 17, resp.Data.DeletedCount)
}
