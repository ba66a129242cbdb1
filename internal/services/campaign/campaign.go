// Package campaign содержит бизнес-логику активации промокодов кампаний.
package campaign

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kokoroai/counselor-backend/internal/models"
)

// Ошибки активации промокода.
var (
	ErrCodeNotFound    = errors.New("campaign code not found")
	ErrCodeUnavailable = errors.New("campaign code is not available")
	ErrAlreadyRedeemed = errors.New("campaign code already redeemed")
)

// Repository описывает операции хранилища для промокодов.
type Repository interface {
	// GetCampaignCode возвращает кампанию по нормализованному коду, nil если кода нет.
	GetCampaignCode(ctx context.Context, code string) (*models.CampaignCode, error)
	// HasRedemption проверяет, активировал ли пользователь этот код ранее.
	HasRedemption(ctx context.Context, userUID string, campaignID int64) (bool, error)
	// RedeemCampaign фиксирует активацию кода и увеличивает счётчик использований.
	RedeemCampaign(ctx context.Context, userUID string, campaignID int64, redeemedAt time.Time) error
	// ExtendTrial продлевает пробный период не короче заданной даты.
	ExtendTrial(ctx context.Context, userUID, source string, expiresAt, now time.Time) error
}

// Service активирует промокоды и продлевает ими пробный период.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Redeem активирует промокод для пользователя и возвращает дату окончания
// выданного пробного периода. Код нормализуется: любые пробельные символы
// отбрасываются, регистр приводится к верхнему.
func (s *Service) Redeem(ctx context.Context, userUID, rawCode string) (time.Time, error) {
	const op = "services.campaign.Redeem"

	code := normalizeCode(rawCode)
	if code == "" {
		return time.Time{}, ErrCodeNotFound
	}

	campaign, err := s.repo.GetCampaignCode(ctx, code)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	if campaign == nil {
		return time.Time{}, ErrCodeNotFound
	}

	now := time.Now().UTC()
	if !campaignAvailable(campaign, now) {
		return time.Time{}, ErrCodeUnavailable
	}

	redeemed, err := s.repo.HasRedemption(ctx, userUID, campaign.ID)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	if redeemed {
		return time.Time{}, ErrAlreadyRedeemed
	}

	expiresAt := now.AddDate(0, 0, campaign.DurationDays)
	if err := s.repo.ExtendTrial(ctx, userUID, "campaign", expiresAt, now); err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.RedeemCampaign(ctx, userUID, campaign.ID, now); err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("campaign code redeemed",
		slog.String("op", op),
		slog.String("user_uid", userUID),
		slog.String("code", code),
		slog.Time("trial_expires_at", expiresAt))
	return expiresAt, nil
}

// normalizeCode убирает все пробельные символы, включая внутренние,
// и приводит код к верхнему регистру.
func normalizeCode(raw string) string {
	return strings.ToUpper(strings.Join(strings.Fields(raw), ""))
}

func campaignAvailable(campaign *models.CampaignCode, now time.Time) bool {
	if !campaign.Active {
		return false
	}
	if campaign.ValidFrom != nil && now.Before(*campaign.ValidFrom) {
		return false
	}
	if campaign.ValidTo != nil && now.After(*campaign.ValidTo) {
		return false
	}
	if campaign.UsageLimit != nil && campaign.UsageCount >= *campaign.UsageLimit {
		return false
	}
	return true
}
