package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/clearstack/agentbox/internal/domain"
	"github.com/clearstack/agentbox/internal/extract"
	"github.com/clearstack/agentbox/internal/telemetry"
)

// DocumentArchive stores original upload bytes alongside the indexed chunks.
type DocumentArchive interface {
	PutObject(ctx context.Context, key string, content []byte, contentType string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// UploadInput carries one knowledge base upload.
type UploadInput struct {
	AgentID  string
	Filename string
	FileType string
	Content  []byte
}

// KnowledgeService is the knowledge base entry point: file upload through
// text extraction into ingestion, plus presence queries and reset.
type KnowledgeService struct {
	agents    AgentRepositoryInterface
	ingestion *IngestionService
	vectors   VectorRepositoryInterface
	archive   DocumentArchive
}

func NewKnowledgeService(
	agents AgentRepositoryInterface,
	ingestion *IngestionService,
	vectors VectorRepositoryInterface,
) *KnowledgeService {
	return &KnowledgeService{
		agents:    agents,
		ingestion: ingestion,
		vectors:   vectors,
	}
}

// NewKnowledgeServiceWithArchive additionally archives original files.
func NewKnowledgeServiceWithArchive(
	agents AgentRepositoryInterface,
	ingestion *IngestionService,
	vectors VectorRepositoryInterface,
	archive DocumentArchive,
) *KnowledgeService {
	svc := NewKnowledgeService(agents, ingestion, vectors)
	svc.archive = archive
	return svc
}

// Upload extracts text from the file and ingests it for the agent.
// Returns the number of chunks created.
func (s *KnowledgeService) Upload(ctx context.Context, input UploadInput) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.Upload", telemetry.SpanAttributes{
		AgentID:   input.AgentID,
		Operation: "upload",
	})
	defer span.End()

	if _, err := uuid.Parse(input.AgentID); err != nil {
		return 0, domain.ErrInvalidAgentID
	}
	if input.Filename == "" {
		return 0, domain.NewDomainError(domain.ErrCodeValidation, "filename is required")
	}

	fileType := strings.ToLower(input.FileType)
	if !extract.IsAllowedType(fileType) {
		return 0, domain.NewDomainError(domain.ErrCodeUnsupportedFormat,
			fmt.Sprintf("file type %q not allowed, allowed: %s", fileType, strings.Join(extract.AllowedTypes, ", ")))
	}

	if _, err := s.agents.GetByID(ctx, input.AgentID); err != nil {
		return 0, err
	}

	text, err := extract.Text(input.Content, fileType)
	if err != nil {
		span.SetError(err)
		return 0, err
	}

	metadata := map[string]any{
		domain.MetaFilename: input.Filename,
		domain.MetaFileType: fileType,
		domain.MetaFileSize: len(input.Content),
	}

	chunks, err := s.ingestion.Ingest(ctx, input.AgentID, text, metadata)
	if err != nil {
		span.SetError(err)
		return 0, err
	}

	// Archive is best-effort; the knowledge base is already consistent.
	if s.archive != nil {
		key := archiveKey(input.AgentID, input.Filename)
		if err := s.archive.PutObject(ctx, key, input.Content, contentTypeFor(fileType)); err != nil {
			log.Printf("document archive failed for %s: %v", key, err)
		}
	}

	return chunks, nil
}

// HasKnowledge reports whether the agent has any indexed chunks.
func (s *KnowledgeService) HasKnowledge(ctx context.Context, agentID string) (bool, error) {
	if _, err := uuid.Parse(agentID); err != nil {
		return false, domain.ErrInvalidAgentID
	}
	count, err := s.vectors.Count(ctx, agentID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Reset deletes the agent's whole knowledge base and returns the number of
// chunks removed.
func (s *KnowledgeService) Reset(ctx context.Context, agentID string) (int, error) {
	ctx, span := telemetry.StartSpan(ctx, "KnowledgeService.Reset", telemetry.SpanAttributes{
		AgentID:   agentID,
		Operation: "reset",
	})
	defer span.End()

	if _, err := uuid.Parse(agentID); err != nil {
		return 0, domain.ErrInvalidAgentID
	}

	deleted, err := s.vectors.DeleteAll(ctx, agentID)
	if err != nil {
		span.SetError(err)
		return 0, err
	}

	if s.archive != nil {
		if err := s.archive.DeletePrefix(ctx, archivePrefix(agentID)); err != nil {
			log.Printf("document archive cleanup failed for agent %s: %v", agentID, err)
		}
	}

	return deleted, nil
}

func archivePrefix(agentID string) string {
	return "agents/" + agentID + "/"
}

func archiveKey(agentID, filename string) string {
	return archivePrefix(agentID) + filename
}

func contentTypeFor(fileType string) string {
	switch fileType {
	case "txt":
		return "text/plain"
	case "json":
		return "application/json"
	case "pdf":
		return "application/pdf"
	case "docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
