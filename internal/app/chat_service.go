package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/briteai/briteai-backend/internal/ai"
	"github.com/briteai/briteai-backend/internal/model"
	"github.com/briteai/briteai-backend/internal/vectorstore"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrMessageEmpty     = errors.New("message content is empty")
)

// DocumentStore resolves document ownership before any write happens.
type DocumentStore interface {
	GetByIDAndUserID(id string, userID uint) (*model.Document, error)
}

// MessageStore persists and lists chat messages for a document.
// ListByDocumentID returns the full conversation ascending.
type MessageStore interface {
	Create(message *model.Message) error
	ListByDocumentID(documentID string) ([]model.Message, error)
	ListRecentByDocumentID(documentID string, n int) ([]model.Message, error)
}

// Retriever runs similarity search in a document's vector namespace.
type Retriever interface {
	SimilaritySearch(ctx context.Context, namespace, query string, k int) ([]vectorstore.Passage, error)
}

// ChatCompleter streams a chat completion and reports the assembled text
// once the stream ends.
type ChatCompleter interface {
	StreamComplete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage, onChunk func(string) error) (string, error)
}

// UsagePublisher emits a usage event after a completed exchange.
type UsagePublisher interface {
	Publish(ctx context.Context, event model.UsageEvent) error
}

// HistoryCache caches conversation history for the read endpoint.
type HistoryCache interface {
	GetHistory(ctx context.Context, documentID string) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, documentID string, messages []model.Message) error
	DeleteHistory(ctx context.Context, documentID string) error
	MarkDirty(ctx context.Context, documentID string) error
	IsDirty(ctx context.Context, documentID string) (bool, error)
}

// ChatService orchestrates one chat exchange: ownership check, user-message
// write, retrieval, prompt build, streaming completion, post-processing.
type ChatService struct {
	docs          DocumentStore
	messages      MessageStore
	retriever     Retriever
	llm           ChatCompleter
	post          *PostProcessor
	usage         UsagePublisher
	historyCache  HistoryCache
	chatCfg       ai.ChatConfig
	topK          int
	historyWindow int
	logger        *zap.Logger
}

func NewChatService(
	docs DocumentStore,
	messages MessageStore,
	retriever Retriever,
	llm ChatCompleter,
	post *PostProcessor,
	usage UsagePublisher,
	historyCache HistoryCache,
	chatCfg ai.ChatConfig,
	topK int,
	historyWindow int,
	logger *zap.Logger,
) *ChatService {
	if topK <= 0 {
		topK = 4
	}
	if historyWindow <= 0 {
		historyWindow = 6
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatService{
		docs:          docs,
		messages:      messages,
		retriever:     retriever,
		llm:           llm,
		post:          post,
		usage:         usage,
		historyCache:  historyCache,
		chatCfg:       chatCfg,
		topK:          topK,
		historyWindow: historyWindow,
		logger:        logger,
	}
}

type StreamReplyInput struct {
	UserID     uint
	DocumentID string
	Message    string
}

// StreamReply runs the chat pipeline for one inbound message, streaming
// tokens through onChunk as they arrive. The returned string is the full
// assembled answer before post-processing.
//
// The inbound user message is written before the model is called and is not
// rolled back if a later step fails: a client retry can produce duplicate
// stored messages, and an upstream failure leaves an unanswered user turn.
// If onChunk reports an error (caller disconnected), generation aborts and
// no assistant message is persisted.
func (s *ChatService) StreamReply(ctx context.Context, input StreamReplyInput, onChunk func(string) error) (string, error) {
	if input.UserID == 0 || input.DocumentID == "" {
		return "", ErrInvalidInput
	}
	content := strings.TrimSpace(input.Message)
	if content == "" {
		return "", ErrMessageEmpty
	}

	doc, err := s.docs.GetByIDAndUserID(input.DocumentID, input.UserID)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", ErrDocumentNotFound
	}

	userMessage := &model.Message{
		DocumentID:    doc.ID,
		UserID:        input.UserID,
		IsUserMessage: true,
		Text:          content,
		CreatedAt:     time.Now(),
	}
	if err := s.messages.Create(userMessage); err != nil {
		return "", err
	}
	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, doc.ID)
		_ = s.historyCache.DeleteHistory(ctx, doc.ID)
	}

	passages, err := s.retriever.SimilaritySearch(ctx, doc.ID, content, s.topK)
	if err != nil {
		return "", err
	}
	passageTexts := make([]string, len(passages))
	for i := range passages {
		passageTexts[i] = passages[i].Content
	}

	// Re-fetched fresh, so the window includes the message written above.
	recent, err := s.messages.ListRecentByDocumentID(doc.ID, s.historyWindow)
	if err != nil {
		return "", err
	}
	history := make([]ai.ChatMessage, 0, len(recent))
	for _, m := range recent {
		role := "assistant"
		if m.IsUserMessage {
			role = "user"
		}
		history = append(history, ai.ChatMessage{Role: role, Content: m.Text})
	}

	systemPrompt := BuildPrompt(content, history, passageTexts)
	seed := []ai.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: content},
	}

	full, err := s.llm.StreamComplete(ctx, s.chatCfg, seed, onChunk)
	if err != nil {
		return "", err
	}

	if _, _, err := s.post.Finalize(full, doc.ID, input.UserID); err != nil {
		return "", err
	}

	if s.usage != nil {
		event := model.UsageEvent{
			UserID:     input.UserID,
			DocumentID: doc.ID,
			Kind:       model.UsageKindChatMessage,
			OccurredAt: time.Now(),
		}
		if err := s.usage.Publish(ctx, event); err != nil {
			s.logger.Warn("publish usage event failed",
				zap.String("document_id", doc.ID),
				zap.Error(err),
			)
		}
	}

	return full, nil
}

// GetHistory returns the stored conversation for a document the user owns,
// oldest first, through the cache when it is clean. The cache always holds
// the full conversation; limit is applied on the way out, keeping the
// newest messages. limit <= 0 means no limit.
func (s *ChatService) GetHistory(ctx context.Context, userID uint, documentID string, limit int) ([]model.Message, error) {
	if userID == 0 || documentID == "" {
		return nil, ErrInvalidInput
	}

	doc, err := s.docs.GetByIDAndUserID(documentID, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, documentID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, documentID); cacheErr == nil && hit {
				return trimMessages(cached, limit), nil
			}
		}
	}

	messages, err := s.messages.ListByDocumentID(documentID)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, documentID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, documentID, messages)
		}
	}
	return trimMessages(messages, limit), nil
}

// trimMessages keeps the newest limit messages of an ascending slice.
func trimMessages(messages []model.Message, limit int) []model.Message {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}
