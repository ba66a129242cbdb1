package admin

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kokoroai/counselor-backend/internal/models"
)

type RepositoryMock struct {
	mock.Mock
}

func (m *RepositoryMock) CountUsers(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *RepositoryMock) CountConversations(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *RepositoryMock) CountMessages(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *RepositoryMock) CountActiveTrials(ctx context.Context, now time.Time) (int, error) {
	args := m.Called(ctx, now)
	return args.Int(0), args.Error(1)
}

func (m *RepositoryMock) CountActiveSubscriptionsByTier(ctx context.Context, now time.Time) (map[models.PlanTier]int, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[models.PlanTier]int), args.Error(1)
}

func (m *RepositoryMock) ListUserOverviews(ctx context.Context, now time.Time, limit, offset int) ([]*models.UserOverview, error) {
	args := m.Called(ctx, now, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.UserOverview), args.Error(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestMetrics_CollectsAllCounters(t *testing.T) {
	repoMock := new(RepositoryMock)
	svc := NewService(repoMock, discardLogger())

	repoMock.On("CountUsers", mock.Anything).Return(120, nil)
	repoMock.On("CountConversations", mock.Anything).Return(340, nil)
	repoMock.On("CountMessages", mock.Anything).Return(2100, nil)
	repoMock.On("CountActiveTrials", mock.Anything, mock.Anything).Return(15, nil)
	repoMock.On("CountActiveSubscriptionsByTier", mock.Anything, mock.Anything).
		Return(map[models.PlanTier]int{models.PlanBasic: 30, models.PlanPremium: 12}, nil)

	metrics, err := svc.Metrics(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 120, metrics.Users)
	assert.Equal(t, 340, metrics.Conversations)
	assert.Equal(t, 2100, metrics.Messages)
	assert.Equal(t, 15, metrics.ActiveTrials)
	assert.Equal(t, 30, metrics.ActiveSubscriptions[models.PlanBasic])
	assert.Equal(t, 12, metrics.ActiveSubscriptions[models.PlanPremium])
}

func TestMetrics_CounterFailureAborts(t *testing.T) {
	repoMock := new(RepositoryMock)
	svc := NewService(repoMock, discardLogger())

	repoMock.On("CountUsers", mock.Anything).Return(0, errors.New("база недоступна"))
	repoMock.On("CountConversations", mock.Anything).Return(0, nil).Maybe()
	repoMock.On("CountMessages", mock.Anything).Return(0, nil).Maybe()
	repoMock.On("CountActiveTrials", mock.Anything, mock.Anything).Return(0, nil).Maybe()
	repoMock.On("CountActiveSubscriptionsByTier", mock.Anything, mock.Anything).
		Return(map[models.PlanTier]int{}, nil).Maybe()

	metrics, err := svc.Metrics(context.Background())

	assert.Error(t, err)
	assert.Nil(t, metrics)
}

func TestListUsers_PagesFromOne(t *testing.T) {
	repoMock := new(RepositoryMock)
	svc := NewService(repoMock, discardLogger())

	overviews := []*models.UserOverview{
		{User: models.User{UID: "uid-1", Email: "a@example.com"}, Plan: models.PlanBasic},
	}
	repoMock.On("ListUserOverviews", mock.Anything, mock.Anything, defaultPageSize, 0).
		Return(overviews, nil)

	got, err := svc.ListUsers(context.Background(), 0)

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, models.PlanBasic, got[0].Plan)
}

func TestListUsers_SecondPageOffset(t *testing.T) {
	repoMock := new(RepositoryMock)
	svc := NewService(repoMock, discardLogger())

	repoMock.On("ListUserOverviews", mock.Anything, mock.Anything, defaultPageSize, defaultPageSize).
		Return([]*models.UserOverview{}, nil)

	_, err := svc.ListUsers(context.Background(), 2)

	require.NoError(t, err)
	repoMock.AssertExpectations(t)
}
