package app

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/briteai/briteai-backend/internal/ai"
	"github.com/briteai/briteai-backend/internal/config"
	"github.com/briteai/briteai-backend/internal/model"
)

const embeddingBatchSize = 10 // providers commonly cap batch input size

var (
	ErrDocumentEmpty     = errors.New("document contains no extractable text")
	ErrPageLimitExceeded = errors.New("document exceeds the plan's page limit")
)

// DocumentCatalog is the document-table surface the ingestion path needs.
type DocumentCatalog interface {
	Create(doc *model.Document) error
	GetByIDAndUserID(id string, userID uint) (*model.Document, error)
	ListByUserID(userID uint) ([]model.Document, error)
	DeleteByIDAndUserID(id string, userID uint) error
}

type ChunkStore interface {
	CreateBatch(chunks []model.DocumentChunk) error
	ListByDocumentID(documentID string) ([]model.DocumentChunk, error)
	DeleteByDocumentID(documentID string) error
}

type MessagePurger interface {
	DeleteByDocumentID(documentID string) error
}

type UserPlanStore interface {
	GetByID(id uint) (*model.User, error)
}

type Embedder interface {
	EmbedBatch(ctx context.Context, cfg ai.EmbeddingConfig, texts []string) ([][]float32, error)
}

// DocumentService ingests uploaded documents into the vector store and
// manages their lifecycle. Each document gets a fresh UUID which is also its
// vector namespace.
type DocumentService struct {
	docs         DocumentCatalog
	chunks       ChunkStore
	messages     MessagePurger
	users        UserPlanStore
	embedder     Embedder
	historyCache HistoryCache
	embCfg       ai.EmbeddingConfig
	chunkSize    int
	chunkOverlap int
	logger       *zap.Logger
}

func NewDocumentService(
	docs DocumentCatalog,
	chunks ChunkStore,
	messages MessagePurger,
	users UserPlanStore,
	embedder Embedder,
	historyCache HistoryCache,
	embCfg ai.EmbeddingConfig,
	chunkSize int,
	chunkOverlap int,
	logger *zap.Logger,
) *DocumentService {
	if chunkSize <= 0 {
		chunkSize = 512
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		docs:         docs,
		chunks:       chunks,
		messages:     messages,
		users:        users,
		embedder:     embedder,
		historyCache: historyCache,
		embCfg:       embCfg,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		logger:       logger,
	}
}

type IngestInput struct {
	UserID    uint
	Name      string
	Content   string
	PageCount int
}

type IngestResult struct {
	Document   model.Document `json:"document"`
	ChunkCount int            `json:"chunk_count"`
}

// Ingest chunks the extracted text, embeds each chunk, and persists the
// document plus its chunks. The caller's plan caps the page count.
func (s *DocumentService) Ingest(ctx context.Context, input IngestInput) (*IngestResult, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidInput
	}
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, ErrDocumentEmpty
	}

	user, err := s.users.GetByID(input.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidInput
	}
	plan := config.PlanBySlug(user.PlanSlug)
	if input.PageCount > plan.PagesPerDoc {
		return nil, ErrPageLimitExceeded
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		name = "Untitled"
	}

	chunks := chunkText(content, s.chunkSize, s.chunkOverlap)
	if len(chunks) == 0 {
		return nil, ErrDocumentEmpty
	}

	doc := &model.Document{
		ID:        uuid.NewString(),
		UserID:    input.UserID,
		Name:      name,
		PageCount: input.PageCount,
	}
	if err := s.docs.Create(doc); err != nil {
		return nil, err
	}

	var embeddings [][]float32
	for i := 0; i < len(chunks); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch, err := s.embedder.EmbedBatch(ctx, s.embCfg, chunks[i:end])
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, batch...)
	}
	if len(embeddings) != len(chunks) {
		return nil, errors.New("embedding count mismatch")
	}

	stored := make([]model.DocumentChunk, len(chunks))
	for i := range chunks {
		stored[i] = model.DocumentChunk{
			DocumentID: doc.ID,
			Content:    chunks[i],
		}
		stored[i].SetEmbedding(embeddings[i])
	}
	if err := s.chunks.CreateBatch(stored); err != nil {
		return nil, err
	}

	s.logger.Info("document ingested",
		zap.String("document_id", doc.ID),
		zap.Uint("user_id", input.UserID),
		zap.Int("chunks", len(stored)),
	)
	return &IngestResult{Document: *doc, ChunkCount: len(stored)}, nil
}

func (s *DocumentService) List(userID uint) ([]model.Document, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.docs.ListByUserID(userID)
}

// Delete removes a document the user owns together with its chunks,
// messages and cached history.
func (s *DocumentService) Delete(ctx context.Context, userID uint, documentID string) error {
	if userID == 0 || documentID == "" {
		return ErrInvalidInput
	}
	doc, err := s.docs.GetByIDAndUserID(documentID, userID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}
	if err := s.chunks.DeleteByDocumentID(doc.ID); err != nil {
		return err
	}
	if err := s.messages.DeleteByDocumentID(doc.ID); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(ctx, doc.ID)
	}
	return s.docs.DeleteByIDAndUserID(doc.ID, userID)
}

// chunkText splits text into overlapping chunks by rune count.
func chunkText(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap >= size {
		overlap = size / 2
	}
	var chunks []string
	runes := []rune(text)
	for i := 0; i < len(runes); {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		i += size - overlap
		if i >= len(runes) {
			break
		}
	}
	return chunks
}
