package campaign

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

func (m *RepositoryMock) GetCampaignCode(ctx context.Context, code string) (*models.CampaignCode, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CampaignCode), args.Error(1)
}

func (m *RepositoryMock) HasRedemption(ctx context.Context, userUID string, campaignID int64) (bool, error) {
	args := m.Called(ctx, userUID, campaignID)
	return args.Bool(0), args.Error(1)
}

func (m *RepositoryMock) RedeemCampaign(ctx context.Context, userUID string, campaignID int64, redeemedAt time.Time) error {
	args := m.Called(ctx, userUID, campaignID, redeemedAt)
	return args.Error(0)
}

func (m *RepositoryMock) ExtendTrial(ctx context.Context, userUID, source string, expiresAt, now time.Time) error {
	args := m.Called(ctx, userUID, source, expiresAt, now)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validCampaign() *models.CampaignCode {
	return &models.CampaignCode{
		ID:           7,
		Code:         "WELCOME2026",
		DurationDays: 14,
		Active:       true,
	}
}

func TestRedeem(t *testing.T) {
	repo := new(RepositoryMock)
	repo.On("GetCampaignCode", mock.Anything, "WELCOME2026").Return(validCampaign(), nil)
	repo.On("HasRedemption", mock.Anything, "uid-1", int64(7)).Return(false, nil)
	repo.On("ExtendTrial", mock.Anything, "uid-1", "campaign", mock.Anything, mock.Anything).Return(nil)
	repo.On("RedeemCampaign", mock.Anything, "uid-1", int64(7), mock.Anything).Return(nil)
	svc := NewService(repo, discardLogger())

	expiresAt, err := svc.Redeem(context.Background(), "uid-1", "  welcome2026 ")
	require.NoError(t, err)

	until := time.Until(expiresAt)
	assert.True(t, until > 13*24*time.Hour && until < 15*24*time.Hour,
		"trial must be extended by campaign duration")
	repo.AssertExpectations(t)
}

func TestRedeem_InternalWhitespaceStripped(t *testing.T) {
	repo := new(RepositoryMock)
	repo.On("GetCampaignCode", mock.Anything, "SUMMER24").
		Return(&models.CampaignCode{ID: 8, Code: "SUMMER24", DurationDays: 7, Active: true}, nil)
	repo.On("HasRedemption", mock.Anything, "uid-1", int64(8)).Return(false, nil)
	repo.On("ExtendTrial", mock.Anything, "uid-1", "campaign", mock.Anything, mock.Anything).Return(nil)
	repo.On("RedeemCampaign", mock.Anything, "uid-1", int64(8), mock.Anything).Return(nil)
	svc := NewService(repo, discardLogger())

	_, err := svc.Redeem(context.Background(), "uid-1", "  sum mer\t24  ")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestRedeem_NotFound(t *testing.T) {
	repo := new(RepositoryMock)
	repo.On("GetCampaignCode", mock.Anything, "NOPE").Return(nil, nil)
	svc := NewService(repo, discardLogger())

	_, err := svc.Redeem(context.Background(), "uid-1", "nope")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestRedeem_EmptyCode(t *testing.T) {
	svc := NewService(new(RepositoryMock), discardLogger())

	_, err := svc.Redeem(context.Background(), "uid-1", "   ")
	assert.ErrorIs(t, err, ErrCodeNotFound)
}

func TestRedeem_Unavailable(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)
	limit := 100

	tests := []struct {
		name     string
		campaign *models.CampaignCode
	}{
		{
			name: "код деактивирован",
			campaign: &models.CampaignCode{
				ID: 1, Code: "C", DurationDays: 7, Active: false,
			},
		},
		{
			name: "срок действия ещё не начался",
			campaign: &models.CampaignCode{
				ID: 2, Code: "C", DurationDays: 7, Active: true, ValidFrom: &future,
			},
		},
		{
			name: "срок действия истёк",
			campaign: &models.CampaignCode{
				ID: 3, Code: "C", DurationDays: 7, Active: true, ValidTo: &past,
			},
		},
		{
			name: "лимит использований исчерпан",
			campaign: &models.CampaignCode{
				ID: 4, Code: "C", DurationDays: 7, Active: true,
				UsageLimit: &limit, UsageCount: 100,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepositoryMock)
			repo.On("GetCampaignCode", mock.Anything, "C").Return(tt.campaign, nil)
			svc := NewService(repo, discardLogger())

			_, err := svc.Redeem(context.Background(), "uid-1", "C")
			assert.ErrorIs(t, err, ErrCodeUnavailable)
		})
	}
}

func TestRedeem_AlreadyRedeemed(t *testing.T) {
	repo := new(RepositoryMock)
	repo.On("GetCampaignCode", mock.Anything, "WELCOME2026").Return(validCampaign(), nil)
	repo.On("HasRedemption", mock.Anything, "uid-1", int64(7)).Return(true, nil)
	svc := NewService(repo, discardLogger())

	_, err := svc.Redeem(context.Background(), "uid-1", "WELCOME2026")
	assert.ErrorIs(t, err, ErrAlreadyRedeemed)
	repo.AssertNotCalled(t, "ExtendTrial", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}
