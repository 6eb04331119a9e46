//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clearstack/agentbox/internal/api/handlers"
	"github.com/clearstack/agentbox/internal/domain"
	"github.com/clearstack/agentbox/internal/llm"
	"github.com/clearstack/agentbox/internal/repository"
	"github.com/clearstack/agentbox/internal/server"
	"github.com/clearstack/agentbox/internal/service"
	"github.com/clearstack/agentbox/internal/testutil"
)

const embeddingDims = 1536

// E2ETestEnv holds all resources needed for E2E tests.
type E2ETestEnv struct {
	T            *testing.T
	Ctx          context.Context
	PostgresC    *testutil.PostgresContainer
	Pool         *pgxpool.Pool
	ServerURL    string
	ServerCloser func()
	HTTPClient   *http.Client
}

// SetupE2EEnv starts a PostgreSQL container and the full HTTP server with
// stubbed LLM backends, so chat and ingestion run without provider keys.
func SetupE2EEnv(t *testing.T) *E2ETestEnv {
	ctx := context.Background()

	pgC := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgC, "../../migrations")

	port, err := getFreePort()
	if err != nil {
		t.Fatalf("failed to get free port: %v", err)
	}

	serverURL, serverCloser := startServer(t, pool, port)

	return &E2ETestEnv{
		T:            t,
		Ctx:          ctx,
		PostgresC:    pgC,
		Pool:         pool,
		ServerURL:    serverURL,
		ServerCloser: serverCloser,
		HTTPClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Cleanup releases all resources.
func (e *E2ETestEnv) Cleanup() {
	if e.ServerCloser != nil {
		e.ServerCloser()
	}
	if e.Pool != nil {
		e.Pool.Close()
	}
	if e.PostgresC != nil {
		e.PostgresC.Terminate(e.Ctx)
	}
}

// APIResponse represents a standard API response envelope.
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error *APIErrorBody   `json:"error,omitempty"`
}

type APIErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Get performs a GET request.
func (e *E2ETestEnv) Get(path string) (*APIResponse, error) {
	return e.doRequest("GET", path, nil)
}

// Post performs a POST request with a JSON body.
func (e *E2ETestEnv) Post(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("POST", path, body)
}

// Patch performs a PATCH request with a JSON body.
func (e *E2ETestEnv) Patch(path string, body interface{}) (*APIResponse, error) {
	return e.doRequest("PATCH", path, body)
}

// Delete performs a DELETE request.
func (e *E2ETestEnv) Delete(path string) (*APIResponse, error) {
	return e.doRequest("DELETE", path, nil)
}

// UploadFile posts a file as multipart form data.
func (e *E2ETestEnv) UploadFile(path, filename string, content []byte) (*APIResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", e.ServerURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return e.send(req)
}

func (e *E2ETestEnv) doRequest(method, path string, body interface{}) (*APIResponse, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequest(method, e.ServerURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return e.send(req)
}

func (e *E2ETestEnv) send(req *http.Request) (*APIResponse, error) {
	resp, err := e.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if resp.StatusCode >= 400 {
		if apiResp.Error != nil {
			return nil, fmt.Errorf("HTTP %d: %s: %s", resp.StatusCode, apiResp.Error.Code, apiResp.Error.Message)
		}
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return &apiResp, nil
}

// wordHashEmbedder produces deterministic embeddings by hashing words into
// vector positions. Texts sharing words get nearby vectors, so cosine search
// behaves sensibly without a real embedding provider.
type wordHashEmbedder struct{}

func (wordHashEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, embeddingDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(word))
		v[h.Sum32()%embeddingDims]++
	}
	return v, nil
}

// echoCompletionClient answers with a canned response that records whether
// retrieved context reached the prompt.
type echoCompletionClient struct{}

func (echoCompletionClient) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResult, error) {
	hasContext := false
	for _, msg := range req.Messages {
		if msg.Role == llm.RoleSystem && strings.Contains(msg.Content, "[Document 1]") {
			hasContext = true
		}
	}
	text := "stub answer without context"
	if hasContext {
		text = "stub answer with context"
	}
	return &llm.CompletionResult{
		Text:          text,
		TokensUsed:    42,
		EstimatedCost: llm.EstimateCost(domain.ProviderOpenAI, req.Model, 42),
	}, nil
}

// startServer wires repositories, services, and handlers the way the daemon
// does, substituting stub LLM clients.
func startServer(t *testing.T, pool *pgxpool.Pool, port int) (string, func()) {
	agentRepo := repository.NewAgentRepository(pool)
	vectorRepo := repository.NewVectorRepository(pool, embeddingDims)
	conversationRepo := repository.NewConversationRepository(pool)
	usageRepo := repository.NewUsageRepository(pool)
	txRunner := repository.NewTxRunner(pool, embeddingDims)

	embedder := wordHashEmbedder{}
	registry := llm.NewRegistryWithClients(map[domain.Provider]llm.CompletionClient{
		domain.ProviderOpenAI:    echoCompletionClient{},
		domain.ProviderAnthropic: echoCompletionClient{},
	})

	ingestionSvc := service.NewIngestionService(txRunner, embedder, service.ChunkConfig{MaxSize: 500, Overlap: 50})
	retrievalSvc := service.NewRetrievalService(vectorRepo, embedder, 4)
	chatSvc := service.NewChatService(agentRepo, retrievalSvc, registry, txRunner, service.GenerationConfig{
		Temperature: 0.7,
		MaxTokens:   1024,
		TopK:        4,
	})
	agentSvc := service.NewAgentService(agentRepo, conversationRepo, usageRepo)
	knowledgeSvc := service.NewKnowledgeService(agentRepo, ingestionSvc, vectorRepo)

	router := server.NewRouter(server.RouterConfig{
		AgentHandler:     handlers.NewAgentHandler(agentSvc),
		ChatHandler:      handlers.NewChatHandler(chatSvc),
		KnowledgeHandler: handlers.NewKnowledgeHandler(knowledgeSvc, 10*1024*1024),
		MaxBodyBytes:     11 * 1024 * 1024,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", port)
	waitForServer(t, serverURL, 10*time.Second)

	return serverURL, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	}
}

func waitForServer(t *testing.T, url string, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatalf("server did not start within %v", timeout)
}

func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}

	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
