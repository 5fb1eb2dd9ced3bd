package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briteai/briteai-backend/internal/ai"
	"github.com/briteai/briteai-backend/internal/model"
	"github.com/briteai/briteai-backend/internal/vectorstore"
)

type memDocStore struct {
	docs map[string]*model.Document // keyed by id, value holds owner
}

func (s *memDocStore) GetByIDAndUserID(id string, userID uint) (*model.Document, error) {
	doc, ok := s.docs[id]
	if !ok || doc.UserID != userID {
		return nil, nil
	}
	return doc, nil
}

type memMessageStore struct {
	messages []model.Message
	nextID   uint
}

func (s *memMessageStore) Create(m *model.Message) error {
	s.nextID++
	m.ID = s.nextID
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	s.messages = append(s.messages, *m)
	return nil
}

func (s *memMessageStore) ListByDocumentID(documentID string) ([]model.Message, error) {
	var out []model.Message
	for _, m := range s.messages {
		if m.DocumentID == documentID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memMessageStore) ListRecentByDocumentID(documentID string, n int) ([]model.Message, error) {
	all, _ := s.ListByDocumentID(documentID)
	if n < len(all) {
		all = all[len(all)-n:]
	}
	return all, nil
}

type stubRetriever struct {
	passages  []vectorstore.Passage
	err       error
	namespace string
	query     string
	k         int
}

func (r *stubRetriever) SimilaritySearch(ctx context.Context, namespace, query string, k int) ([]vectorstore.Passage, error) {
	r.namespace = namespace
	r.query = query
	r.k = k
	return r.passages, r.err
}

type stubCompleter struct {
	chunks []string
	err    error
	seed   []ai.ChatMessage
}

func (c *stubCompleter) StreamComplete(ctx context.Context, cfg ai.ChatConfig, messages []ai.ChatMessage, onChunk func(string) error) (string, error) {
	c.seed = messages
	if c.err != nil {
		return "", c.err
	}
	var full strings.Builder
	for _, chunk := range c.chunks {
		full.WriteString(chunk)
		if onChunk != nil {
			if err := onChunk(chunk); err != nil {
				return "", err
			}
		}
	}
	return full.String(), nil
}

type stubPublisher struct {
	events []model.UsageEvent
}

func (p *stubPublisher) Publish(ctx context.Context, event model.UsageEvent) error {
	p.events = append(p.events, event)
	return nil
}

func newTestChatService(docs *memDocStore, messages *memMessageStore, retriever *stubRetriever, llm *stubCompleter, usage *stubPublisher) *ChatService {
	return NewChatService(
		docs,
		messages,
		retriever,
		llm,
		NewPostProcessor(messages, nil),
		usage,
		nil,
		ai.ChatConfig{Model: "gpt-3.5-turbo"},
		4,
		6,
		nil,
	)
}

func TestStreamReply_DocumentNotOwned(t *testing.T) {
	docs := &memDocStore{docs: map[string]*model.Document{
		"doc1": {ID: "doc1", UserID: 99},
	}}
	messages := &memMessageStore{}
	svc := newTestChatService(docs, messages, &stubRetriever{}, &stubCompleter{}, &stubPublisher{})

	_, err := svc.StreamReply(context.Background(), StreamReplyInput{
		UserID:     1,
		DocumentID: "doc1",
		Message:    "hello",
	}, nil)

	require.ErrorIs(t, err, ErrDocumentNotFound)
	assert.Empty(t, messages.messages, "no message may be written for an unowned document")
}

func TestStreamReply_EmptyMessage(t *testing.T) {
	docs := &memDocStore{docs: map[string]*model.Document{
		"doc1": {ID: "doc1", UserID: 1},
	}}
	messages := &memMessageStore{}
	svc := newTestChatService(docs, messages, &stubRetriever{}, &stubCompleter{}, &stubPublisher{})

	_, err := svc.StreamReply(context.Background(), StreamReplyInput{
		UserID:     1,
		DocumentID: "doc1",
		Message:    "   ",
	}, nil)

	require.ErrorIs(t, err, ErrMessageEmpty)
	assert.Empty(t, messages.messages)
}

func TestStreamReply_EndToEnd(t *testing.T) {
	docs := &memDocStore{docs: map[string]*model.Document{
		"doc1": {ID: "doc1", UserID: 1},
	}}
	messages := &memMessageStore{}
	for i := 0; i < 2; i++ {
		require.NoError(t, messages.Create(&model.Message{
			DocumentID:    "doc1",
			UserID:        1,
			IsUserMessage: i%2 == 0,
			Text:          fmt.Sprintf("prior %d", i),
		}))
	}

	retriever := &stubRetriever{passages: []vectorstore.Passage{
		{Content: "Revenue grew 12%."},
		{Content: "Costs were flat."},
	}}
	llm := &stubCompleter{chunks: []string{"The ", "revenue ", "was $10M."}}
	usage := &stubPublisher{}
	svc := newTestChatService(docs, messages, retriever, llm, usage)

	var streamed strings.Builder
	full, err := svc.StreamReply(context.Background(), StreamReplyInput{
		UserID:     1,
		DocumentID: "doc1",
		Message:    "What is the revenue?",
	}, func(chunk string) error {
		streamed.WriteString(chunk)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, "The revenue was $10M.", full)
	assert.Equal(t, full, streamed.String())

	// Exactly two new messages: the user's, then the assistant's.
	require.Len(t, messages.messages, 4)
	userMsg := messages.messages[2]
	assistantMsg := messages.messages[3]
	assert.True(t, userMsg.IsUserMessage)
	assert.Equal(t, "What is the revenue?", userMsg.Text)
	assert.False(t, assistantMsg.IsUserMessage)
	assert.Equal(t, "The revenue was $10M.", assistantMsg.Text)

	// Retrieval scoped to the document's namespace, top 4.
	assert.Equal(t, "doc1", retriever.namespace)
	assert.Equal(t, "What is the revenue?", retriever.query)
	assert.Equal(t, 4, retriever.k)

	// Seed turns: system prompt plus the raw user message.
	require.Len(t, llm.seed, 2)
	assert.Equal(t, "system", llm.seed[0].Role)
	assert.Contains(t, llm.seed[0].Content, "Revenue grew 12%.")
	assert.Equal(t, ai.ChatMessage{Role: "user", Content: "What is the revenue?"}, llm.seed[1])

	require.Len(t, usage.events, 1)
	assert.Equal(t, model.UsageKindChatMessage, usage.events[0].Kind)
	assert.Equal(t, uint(1), usage.events[0].UserID)
}

func TestStreamReply_HistoryWindowKeepsNewestSix(t *testing.T) {
	docs := &memDocStore{docs: map[string]*model.Document{
		"doc1": {ID: "doc1", UserID: 1},
	}}
	messages := &memMessageStore{}
	for i := 0; i < 8; i++ {
		require.NoError(t, messages.Create(&model.Message{
			DocumentID:    "doc1",
			UserID:        1,
			IsUserMessage: i%2 == 0,
			Text:          fmt.Sprintf("turn %d", i),
		}))
	}

	llm := &stubCompleter{chunks: []string{"ok"}}
	svc := newTestChatService(docs, messages, &stubRetriever{}, llm, &stubPublisher{})

	_, err := svc.StreamReply(context.Background(), StreamReplyInput{
		UserID:     1,
		DocumentID: "doc1",
		Message:    "latest question",
	}, nil)
	require.NoError(t, err)

	prompt := llm.seed[0].Content
	// 9 stored messages at prompt time; the window holds the newest 6:
	// turns 4..7 plus the just-written user message.
	assert.NotContains(t, prompt, "turn 2\n")
	assert.NotContains(t, prompt, "turn 3\n")
	for i := 4; i < 8; i++ {
		assert.Contains(t, prompt, fmt.Sprintf("turn %d\n", i))
	}
	assert.Contains(t, prompt, "User: latest question\n")

	// Oldest to newest within the window.
	assert.Less(t, strings.Index(prompt, "turn 4"), strings.Index(prompt, "turn 7"))
	assert.Less(t, strings.Index(prompt, "turn 7"), strings.Index(prompt, "User: latest question"))
}

func TestStreamReply_UpstreamFailureKeepsUserMessage(t *testing.T) {
	docs := &memDocStore{docs: map[string]*model.Document{
		"doc1": {ID: "doc1", UserID: 1},
	}}
	messages := &memMessageStore{}
	llm := &stubCompleter{err: errors.New("completion backend down")}
	usage := &stubPublisher{}
	svc := newTestChatService(docs, messages, &stubRetriever{}, llm, usage)

	_, err := svc.StreamReply(context.Background(), StreamReplyInput{
		UserID:     1,
		DocumentID: "doc1",
		Message:    "hello",
	}, nil)

	require.Error(t, err)
	// No rollback: the user message stays, the assistant turn never lands.
	require.Len(t, messages.messages, 1)
	assert.True(t, messages.messages[0].IsUserMessage)
	assert.Empty(t, usage.events)
}

func TestStreamReply_ConsumerAbortSkipsPostProcessing(t *testing.T) {
	docs := &memDocStore{docs: map[string]*model.Document{
		"doc1": {ID: "doc1", UserID: 1},
	}}
	messages := &memMessageStore{}
	llm := &stubCompleter{chunks: []string{"a", "b", "c"}}
	svc := newTestChatService(docs, messages, &stubRetriever{}, llm, &stubPublisher{})

	calls := 0
	_, err := svc.StreamReply(context.Background(), StreamReplyInput{
		UserID:     1,
		DocumentID: "doc1",
		Message:    "hello",
	}, func(string) error {
		calls++
		if calls == 2 {
			return errors.New("client went away")
		}
		return nil
	})

	require.Error(t, err)
	// Only the user message was persisted; the aborted answer was not.
	require.Len(t, messages.messages, 1)
	assert.True(t, messages.messages[0].IsUserMessage)
}

type memHistoryCache struct {
	history map[string][]model.Message
	dirty   map[string]bool
}

func newMemHistoryCache() *memHistoryCache {
	return &memHistoryCache{
		history: map[string][]model.Message{},
		dirty:   map[string]bool{},
	}
}

func (c *memHistoryCache) GetHistory(ctx context.Context, documentID string) ([]model.Message, bool, error) {
	messages, ok := c.history[documentID]
	return messages, ok, nil
}

func (c *memHistoryCache) SetHistory(ctx context.Context, documentID string, messages []model.Message) error {
	c.history[documentID] = messages
	return nil
}

func (c *memHistoryCache) DeleteHistory(ctx context.Context, documentID string) error {
	delete(c.history, documentID)
	return nil
}

func (c *memHistoryCache) MarkDirty(ctx context.Context, documentID string) error {
	c.dirty[documentID] = true
	return nil
}

func (c *memHistoryCache) IsDirty(ctx context.Context, documentID string) (bool, error) {
	return c.dirty[documentID], nil
}

func TestGetHistory_LimitTrimsNewestWithoutPoisoningCache(t *testing.T) {
	docs := &memDocStore{docs: map[string]*model.Document{
		"doc1": {ID: "doc1", UserID: 1},
	}}
	messages := &memMessageStore{}
	for i := 1; i <= 8; i++ {
		require.NoError(t, messages.Create(&model.Message{
			DocumentID:    "doc1",
			UserID:        1,
			IsUserMessage: i%2 == 1,
			Text:          fmt.Sprintf("m%d", i),
			CreatedAt:     time.Date(2025, time.March, 1, 0, i, 0, 0, time.UTC),
		}))
	}
	cache := newMemHistoryCache()
	svc := NewChatService(docs, messages, &stubRetriever{}, &stubCompleter{},
		NewPostProcessor(messages, nil), nil, cache,
		ai.ChatConfig{}, 4, 6, nil)

	// A small limit returns the newest messages, oldest first.
	tail, err := svc.GetHistory(context.Background(), 1, "doc1", 3)
	require.NoError(t, err)
	require.Len(t, tail, 3)
	assert.Equal(t, "m6", tail[0].Text)
	assert.Equal(t, "m8", tail[2].Text)

	// The cache was filled with the whole conversation, not the trimmed
	// slice: bypass the store and ask again without a limit.
	messages.messages = nil
	full, err := svc.GetHistory(context.Background(), 1, "doc1", 0)
	require.NoError(t, err)
	require.Len(t, full, 8)
	assert.Equal(t, "m1", full[0].Text)
	assert.Equal(t, "m8", full[7].Text)
}

func TestGetHistory_DirtyCacheFallsBackToStore(t *testing.T) {
	docs := &memDocStore{docs: map[string]*model.Document{
		"doc1": {ID: "doc1", UserID: 1},
	}}
	messages := &memMessageStore{}
	require.NoError(t, messages.Create(&model.Message{
		DocumentID: "doc1", UserID: 1, IsUserMessage: true, Text: "fresh",
	}))
	cache := newMemHistoryCache()
	cache.history["doc1"] = []model.Message{{DocumentID: "doc1", Text: "stale"}}
	cache.dirty["doc1"] = true

	svc := NewChatService(docs, messages, &stubRetriever{}, &stubCompleter{},
		NewPostProcessor(messages, nil), nil, cache,
		ai.ChatConfig{}, 4, 6, nil)

	history, err := svc.GetHistory(context.Background(), 1, "doc1", 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "fresh", history[0].Text)
}
