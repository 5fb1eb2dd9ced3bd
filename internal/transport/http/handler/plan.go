package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/briteai/briteai-backend/internal/app"
	"github.com/briteai/briteai-backend/internal/config"
	"github.com/briteai/briteai-backend/internal/transport/http/response"
)

type PlanHandler struct {
	authService  *app.AuthService
	usageService *app.UsageService
}

type SelectPlanRequest struct {
	Slug string `json:"slug" binding:"required"`
}

func NewPlanHandler(authService *app.AuthService, usageService *app.UsageService) *PlanHandler {
	return &PlanHandler{authService: authService, usageService: usageService}
}

func (h *PlanHandler) List(c *gin.Context) {
	response.OK(c, config.Plans)
}

func (h *PlanHandler) Select(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized")
		return
	}

	var req SelectPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	plan, err := h.authService.ChangePlan(userID, req.Slug)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unknown plan")
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "change plan failed")
		}
		return
	}

	response.OK(c, plan)
}

// Usage reports the caller's consumption against their plan quota.
func (h *PlanHandler) Usage(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized")
		return
	}

	summary, err := h.usageService.Summary(userID)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request")
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "load usage failed")
		}
		return
	}

	response.OK(c, summary)
}
