package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briteai/briteai-backend/internal/ai"
)

func TestBuildPrompt_ExactLayout(t *testing.T) {
	history := []ai.ChatMessage{
		{Role: "user", Content: "What is in the report?"},
		{Role: "assistant", Content: "It covers Q3 revenue."},
	}
	passages := []string{"Revenue grew 12% in Q3.", "Costs were flat."}

	got := BuildPrompt("What is the revenue?", history, passages)

	want := "Answer the user's question in markdown format.\n\n" +
		"Document Context:\n" +
		"Revenue grew 12% in Q3.\n\nCosts were flat.\n\n" +
		"Previous Conversation:\n" +
		"User: What is in the report?\n" +
		"Assistant: It covers Q3 revenue.\n" +
		"\nUser Query:\nWhat is the revenue?"
	assert.Equal(t, want, got)
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	history := []ai.ChatMessage{{Role: "user", Content: "hi"}}
	passages := []string{"alpha", "beta"}

	first := BuildPrompt("query", history, passages)
	second := BuildPrompt("query", history, passages)
	require.Equal(t, first, second)
}

func TestBuildPrompt_BusinessDataClause(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		passages []string
		want     bool
	}{
		{
			name:     "passage contains marker",
			query:    "summarize",
			passages: []string{"quarterly business data for 2023"},
			want:     true,
		},
		{
			name:     "marker split across passages does not count",
			query:    "summarize",
			passages: []string{"business", "data"},
			want:     false,
		},
		{
			name:     "marker in query only does not count",
			query:    "show me the business data",
			passages: []string{"unrelated text"},
			want:     false,
		},
		{
			name:     "case sensitive",
			query:    "summarize",
			passages: []string{"Business Data overview"},
			want:     false,
		},
		{
			name:     "no passages",
			query:    "summarize",
			passages: nil,
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPrompt(tt.query, nil, tt.passages)
			if tt.want {
				assert.Contains(t, got, "Focus on analyzing the business data.\n\n")
			} else {
				assert.NotContains(t, got, "Focus on analyzing the business data.")
			}
		})
	}
}

func TestClassifyPassages(t *testing.T) {
	assert.Equal(t, PromptHintNone, ClassifyPassages(nil))
	assert.Equal(t, PromptHintNone, ClassifyPassages([]string{"plain text"}))
	assert.Equal(t, PromptHintBusinessData, ClassifyPassages([]string{"x", "some business data here"}))
}

func TestBuildPrompt_EmptyHistoryAndPassages(t *testing.T) {
	got := BuildPrompt("q", nil, nil)
	want := "Answer the user's question in markdown format.\n\n" +
		"Document Context:\n\n\n" +
		"Previous Conversation:\n" +
		"\nUser Query:\nq"
	assert.Equal(t, want, got)
}
