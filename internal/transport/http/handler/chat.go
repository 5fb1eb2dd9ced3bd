package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/briteai/briteai-backend/internal/app"
	"github.com/briteai/briteai-backend/internal/transport/http/middleware"
	"github.com/briteai/briteai-backend/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type SendMessageRequest struct {
	FileID  string `json:"fileId" binding:"required"`
	Message string `json:"message" binding:"required"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// SendMessage streams the model's answer as a chunked text/markdown body.
// Error statuses are only possible before the first byte is written; a
// failure mid-stream terminates the connection.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stream not supported")
		return
	}

	started := false
	_, err := h.chatService.StreamReply(c.Request.Context(), app.StreamReplyInput{
		UserID:     userID,
		DocumentID: req.FileID,
		Message:    req.Message,
	}, func(chunk string) error {
		if !started {
			started = true
			c.Header("Content-Type", "text/markdown; charset=utf-8")
			c.Header("Cache-Control", "no-cache")
			c.Header("X-Accel-Buffering", "no")
			c.Status(http.StatusOK)
		}
		if _, writeErr := c.Writer.Write([]byte(chunk)); writeErr != nil {
			return writeErr
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		if started {
			// Headers are gone; drop the connection without the terminating
			// chunk so the client sees a truncated body, not a clean end.
			panic(http.ErrAbortHandler)
		}
		switch {
		case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrMessageEmpty):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, "Not found")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "send message failed")
		}
		return
	}

	if !started {
		// Model produced no tokens; still a successful empty stream.
		c.Header("Content-Type", "text/markdown; charset=utf-8")
		c.Status(http.StatusOK)
	}
}

// GetHistory returns stored messages for a document, oldest first.
func (h *ChatHandler) GetHistory(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized")
		return
	}

	fileID := c.Query("fileId")
	if fileID == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid fileId")
		return
	}

	// No limit means the full conversation.
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, parseErr := strconv.Atoi(raw); parseErr == nil {
			limit = parsed
		}
	}

	history, err := h.chatService.GetHistory(c.Request.Context(), userID, fileID, limit)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, "Not found")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get history failed")
		}
		return
	}

	response.OK(c, history)
}

func getUserIDFromContext(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	return userID, ok
}
