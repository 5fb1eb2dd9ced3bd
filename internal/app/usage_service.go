package app

import (
	"time"

	"github.com/briteai/briteai-backend/internal/config"
	"github.com/briteai/briteai-backend/internal/model"
)

// UsageReader counts recorded usage events.
type UsageReader interface {
	CountByUserSince(userID uint, kind string, since time.Time) (int64, error)
}

// UsageService reports a user's consumption against their plan quota.
// Records arrive through the usage queue, so counts can lag a completed
// exchange by the worker's processing delay.
type UsageService struct {
	users UserPlanStore
	usage UsageReader
	now   func() time.Time
}

type UsageSummary struct {
	Plan              config.Plan `json:"plan"`
	MessagesThisMonth int64       `json:"messages_this_month"`
	MessagesRemaining int64       `json:"messages_remaining"`
}

func NewUsageService(users UserPlanStore, usage UsageReader) *UsageService {
	return &UsageService{users: users, usage: usage, now: time.Now}
}

// Summary returns the current month's message count and headroom for the
// user's plan. Quota periods roll over at UTC month boundaries.
func (s *UsageService) Summary(userID uint) (*UsageSummary, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidInput
	}

	now := s.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	count, err := s.usage.CountByUserSince(userID, model.UsageKindChatMessage, monthStart)
	if err != nil {
		return nil, err
	}

	plan := config.PlanBySlug(user.PlanSlug)
	remaining := int64(plan.Quota) - count
	if remaining < 0 {
		remaining = 0
	}
	return &UsageSummary{
		Plan:              plan,
		MessagesThisMonth: count,
		MessagesRemaining: remaining,
	}, nil
}
