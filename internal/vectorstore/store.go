package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/briteai/briteai-backend/internal/ai"
	"github.com/briteai/briteai-backend/internal/model"
)

// QueryEmbedder computes the embedding for a query text.
type QueryEmbedder interface {
	Embed(ctx context.Context, cfg ai.EmbeddingConfig, text string) ([]float32, error)
}

// ChunkSource lists the stored chunks of one namespace. A namespace is a
// document id: search never crosses document boundaries.
type ChunkSource interface {
	ListByDocumentID(documentID string) ([]model.DocumentChunk, error)
}

// Passage is a retrieved text fragment with its similarity score.
type Passage struct {
	Content string
	Score   float32
}

// Store ranks stored chunk embeddings against a query embedding by cosine
// similarity, per namespace.
type Store struct {
	embedder QueryEmbedder
	chunks   ChunkSource
	embCfg   ai.EmbeddingConfig
}

func New(embedder QueryEmbedder, chunks ChunkSource, embCfg ai.EmbeddingConfig) *Store {
	return &Store{
		embedder: embedder,
		chunks:   chunks,
		embCfg:   embCfg,
	}
}

// SimilaritySearch returns the k passages in the namespace most similar to
// the query, best first. Fewer than k are returned when the namespace holds
// fewer chunks; an empty namespace yields an empty result, not an error.
func (s *Store) SimilaritySearch(ctx context.Context, namespace, query string, k int) ([]Passage, error) {
	if k <= 0 {
		return nil, nil
	}

	stored, err := s.chunks.ListByDocumentID(namespace)
	if err != nil {
		return nil, err
	}
	if len(stored) == 0 {
		return nil, nil
	}

	queryVec, err := s.embedder.Embed(ctx, s.embCfg, query)
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}

	passages := make([]Passage, len(stored))
	for i := range stored {
		passages[i] = Passage{
			Content: stored[i].Content,
			Score:   cosineSimilarity(queryVec, stored[i].EmbeddingVector()),
		}
	}
	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].Score > passages[j].Score
	})
	if k > len(passages) {
		k = len(passages)
	}
	return passages[:k], nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
