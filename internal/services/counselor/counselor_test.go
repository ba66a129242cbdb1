package counselor

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kokoroai/counselor-backend/internal/models"
)

type RepositoryMock struct{ mock.Mock }

func (m *RepositoryMock) ListCounselors(ctx context.Context) ([]*models.Counselor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Counselor), args.Error(1)
}

func (m *RepositoryMock) GetCounselor(ctx context.Context, counselorID string) (*models.Counselor, error) {
	args := m.Called(ctx, counselorID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Counselor), args.Error(1)
}

func (m *RepositoryMock) SearchCounselors(ctx context.Context, query string) ([]*models.Counselor, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Counselor), args.Error(1)
}

func (m *RepositoryMock) IncrementSessionCount(ctx context.Context, counselorID string) error {
	args := m.Called(ctx, counselorID)
	return args.Error(0)
}

type CacheMock struct{ mock.Mock }

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	if args.Bool(0) {
		*(result.(*[]*models.Counselor)) = []*models.Counselor{{ID: "cached"}}
	}
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestList_CacheMiss(t *testing.T) {
	counselors := []*models.Counselor{{ID: "aoi", Name: "あおい"}}

	repo := new(RepositoryMock)
	repo.On("ListCounselors", mock.Anything).Return(counselors, nil)

	cache := new(CacheMock)
	cache.On("Get", mock.Anything, "counselors:list", mock.Anything).Return(false, nil)
	cache.On("Set", mock.Anything, "counselors:list", mock.Anything, 5*time.Minute).Return(nil)

	svc := NewService(repo, cache, discardLogger())

	result, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, counselors, result)
	cache.AssertExpectations(t)
}

func TestList_CacheHit(t *testing.T) {
	repo := new(RepositoryMock)
	cache := new(CacheMock)
	cache.On("Get", mock.Anything, "counselors:list", mock.Anything).Return(true, nil)

	svc := NewService(repo, cache, discardLogger())

	result, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "cached", result[0].ID)
	repo.AssertNotCalled(t, "ListCounselors", mock.Anything)
}

func TestSearch(t *testing.T) {
	found := []*models.Counselor{{
		ID:        "aoi",
		Name:      "あおい",
		Title:     "キャリアカウンセラー",
		AvatarURL: "https://cdn.example.com/aoi.png",
	}}

	repo := new(RepositoryMock)
	repo.On("SearchCounselors", mock.Anything, "キャリア").Return(found, nil)

	svc := NewService(repo, new(CacheMock), discardLogger())

	result, err := svc.Search(context.Background(), "  キャリア ")
	require.NoError(t, err)
	assert.Equal(t, found, result)
	repo.AssertExpectations(t)
}

func TestSearch_EmptyQueryFallsBackToList(t *testing.T) {
	repo := new(RepositoryMock)
	cache := new(CacheMock)
	cache.On("Get", mock.Anything, "counselors:list", mock.Anything).Return(true, nil)

	svc := NewService(repo, cache, discardLogger())

	result, err := svc.Search(context.Background(), "   ")
	require.NoError(t, err)
	require.Len(t, result, 1)
	repo.AssertNotCalled(t, "SearchCounselors", mock.Anything, mock.Anything)
}

func TestGet(t *testing.T) {
	repo := new(RepositoryMock)
	repo.On("GetCounselor", mock.Anything, "aoi").Return(&models.Counselor{ID: "aoi"}, nil)

	svc := NewService(repo, new(CacheMock), discardLogger())

	counselor, err := svc.Get(context.Background(), "aoi")
	require.NoError(t, err)
	assert.Equal(t, "aoi", counselor.ID)
}

func TestGet_NotFound(t *testing.T) {
	repo := new(RepositoryMock)
	repo.On("GetCounselor", mock.Anything, "ghost").Return(nil, nil)

	svc := NewService(repo, new(CacheMock), discardLogger())

	counselor, err := svc.Get(context.Background(), "ghost")
	assert.Nil(t, counselor)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordSession(t *testing.T) {
	repo := new(RepositoryMock)
	repo.On("IncrementSessionCount", mock.Anything, "aoi").Return(nil)

	cache := new(CacheMock)
	cache.On("Invalidate", mock.Anything, "counselors:list").Return(nil)

	svc := NewService(repo, cache, discardLogger())

	err := svc.RecordSession(context.Background(), "aoi")
	require.NoError(t, err)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}
