package app

import (
	"strings"

	"github.com/briteai/briteai-backend/internal/ai"
)

// PromptHint tags retrieved context that changes how the system prompt is
// built. Classification is a substring match on passage text, not on the
// query; that is the shipped policy and tests pin it.
type PromptHint int

const (
	PromptHintNone PromptHint = iota
	PromptHintBusinessData
)

const businessDataMarker = "business data"

// ClassifyPassages returns PromptHintBusinessData when any passage contains
// the marker substring (case-sensitive).
func ClassifyPassages(passages []string) PromptHint {
	for _, p := range passages {
		if strings.Contains(p, businessDataMarker) {
			return PromptHintBusinessData
		}
	}
	return PromptHintNone
}

// BuildPrompt assembles the system prompt from retrieved passages and prior
// turns. Pure and deterministic: identical inputs produce identical bytes.
func BuildPrompt(query string, history []ai.ChatMessage, passages []string) string {
	var b strings.Builder
	b.WriteString("Answer the user's question in markdown format.\n\n")
	if ClassifyPassages(passages) == PromptHintBusinessData {
		b.WriteString("Focus on analyzing the business data.\n\n")
	}
	b.WriteString("Document Context:\n")
	b.WriteString(strings.Join(passages, "\n\n"))
	b.WriteString("\n\n")
	b.WriteString("Previous Conversation:\n")
	for _, turn := range history {
		if turn.Role == "user" {
			b.WriteString("User: ")
		} else {
			b.WriteString("Assistant: ")
		}
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	b.WriteString("\nUser Query:\n")
	b.WriteString(query)
	return b.String()
}
