package app

import (
	"strings"

	"go.uber.org/zap"

	"github.com/briteai/briteai-backend/internal/model"
)

// ResponseHintKind tags a completed answer by the sentinel substrings the
// model was prompted to emit.
type ResponseHintKind int

const (
	ResponseHintNone ResponseHintKind = iota
	ResponseHintClarificationNeeded
	ResponseHintUncertain
)

const (
	clarificationMarker = "Clarification needed:"
	uncertainMarker     = "I am not certain,"
	uncertainFollowUp   = "\nWould you like to search for this information in external databases?"
)

type ResponseHint struct {
	Kind ResponseHintKind
	// Question is set for ResponseHintClarificationNeeded: the text after
	// the marker, trimmed.
	Question string
}

// ClassifyResponse inspects the full answer text for sentinel substrings.
// Clarification takes precedence over uncertainty, matching the order the
// markers were introduced in.
func ClassifyResponse(text string) ResponseHint {
	if idx := strings.Index(text, clarificationMarker); idx >= 0 {
		question := strings.TrimSpace(text[idx+len(clarificationMarker):])
		return ResponseHint{Kind: ResponseHintClarificationNeeded, Question: question}
	}
	if strings.Contains(text, uncertainMarker) {
		return ResponseHint{Kind: ResponseHintUncertain}
	}
	return ResponseHint{Kind: ResponseHintNone}
}

// PostProcessor persists the assistant's side of an exchange after the full
// stream has been received. It runs exactly once per request and never sees
// partial output.
type PostProcessor struct {
	messages MessageStore
	logger   *zap.Logger
}

func NewPostProcessor(messages MessageStore, logger *zap.Logger) *PostProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostProcessor{messages: messages, logger: logger}
}

// Finalize classifies the answer, amends uncertain answers with a fixed
// follow-up, and persists the assistant message. The clarification question
// is extracted but not delivered anywhere; it is only logged. Nothing in the
// product consumes it yet.
func (p *PostProcessor) Finalize(answer, documentID string, userID uint) (*model.Message, ResponseHint, error) {
	hint := ClassifyResponse(answer)
	switch hint.Kind {
	case ResponseHintClarificationNeeded:
		p.logger.Debug("assistant asked for clarification",
			zap.String("document_id", documentID),
			zap.String("question", hint.Question),
		)
	case ResponseHintUncertain:
		answer += uncertainFollowUp
	}

	message := &model.Message{
		DocumentID:    documentID,
		UserID:        userID,
		IsUserMessage: false,
		Text:          answer,
	}
	if err := p.messages.Create(message); err != nil {
		return nil, hint, err
	}
	return message, hint, nil
}
