package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kokoroai/counselor-backend/internal/models"
)

// GetCampaignCode возвращает кампанию по нормализованному коду, nil если кода нет.
func (s *Storage) GetCampaignCode(ctx context.Context, code string) (*models.CampaignCode, error) {
	const op = "storage.repository.GetCampaignCode"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		SELECT id, code, description, duration_days, usage_limit, usage_count,
		       valid_from, valid_to, active, created_at
		FROM campaign_codes
		WHERE code = $1`
	var cc models.CampaignCode
	err := s.DB.QueryRowContext(ctx, query, code).Scan(
		&cc.ID, &cc.Code, &cc.Description, &cc.DurationDays, &cc.UsageLimit,
		&cc.UsageCount, &cc.ValidFrom, &cc.ValidTo, &cc.Active, &cc.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cc, nil
}

// HasRedemption проверяет, активировал ли пользователь этот код ранее.
func (s *Storage) HasRedemption(ctx context.Context, userUID string, campaignID int64) (bool, error) {
	const op = "storage.repository.HasRedemption"

	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM campaign_redemptions
			WHERE user_uid = $1 AND campaign_id = $2
		)`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, userUID, campaignID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// RedeemCampaign фиксирует активацию кода и увеличивает счётчик использований.
func (s *Storage) RedeemCampaign(ctx context.Context, userUID string, campaignID int64, redeemedAt time.Time) error {
	const op = "storage.repository.RedeemCampaign"

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO campaign_redemptions (user_uid, campaign_id, redeemed_at)
		VALUES ($1, $2, $3)`
	if _, err := tx.ExecContext(ctx, query, userUID, campaignID, redeemedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	query = `
		UPDATE campaign_codes
		SET usage_count = usage_count + 1
		WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, campaignID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
