package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briteai/briteai-backend/internal/model"
)

type stubUsageReader struct {
	count     int64
	err       error
	lastKind  string
	lastSince time.Time
}

func (s *stubUsageReader) CountByUserSince(userID uint, kind string, since time.Time) (int64, error) {
	s.lastKind = kind
	s.lastSince = since
	return s.count, s.err
}

func TestUsageSummary_FreePlanHeadroom(t *testing.T) {
	users := &stubUserStore{user: &model.User{ID: 1, PlanSlug: "free"}}
	reader := &stubUsageReader{count: 3}

	svc := NewUsageService(users, reader)
	svc.now = func() time.Time {
		return time.Date(2025, time.March, 15, 10, 30, 0, 0, time.UTC)
	}

	summary, err := svc.Summary(1)
	require.NoError(t, err)

	assert.Equal(t, "free", summary.Plan.Slug)
	assert.Equal(t, int64(3), summary.MessagesThisMonth)
	assert.Equal(t, int64(7), summary.MessagesRemaining)
	assert.Equal(t, model.UsageKindChatMessage, reader.lastKind)
	assert.Equal(t, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), reader.lastSince)
}

func TestUsageSummary_RemainingNeverNegative(t *testing.T) {
	users := &stubUserStore{user: &model.User{ID: 1, PlanSlug: "free"}}
	reader := &stubUsageReader{count: 25}

	summary, err := NewUsageService(users, reader).Summary(1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), summary.MessagesRemaining)
}

func TestUsageSummary_UnknownUser(t *testing.T) {
	svc := NewUsageService(&stubUserStore{}, &stubUsageReader{})
	_, err := svc.Summary(42)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
