package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kokoroai/counselor-backend/internal/models"
)

// FindCurrentSubscription возвращает последнюю подписку пользователя, nil если записей нет.
func (s *Storage) FindCurrentSubscription(ctx context.Context, userUID string) (*models.Subscription, error) {
	const op = "storage.repository.FindCurrentSubscription"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		SELECT us.id, us.user_uid, us.plan_id, bp.tier, us.status,
		       us.paypal_order_id, us.current_period_end, us.created_at
		FROM user_subscriptions us
		JOIN billing_plans bp ON bp.id = us.plan_id
		WHERE us.user_uid = $1 AND us.status IN ('active', 'trialing')
		ORDER BY us.current_period_end DESC NULLS LAST, us.created_at DESC
		LIMIT 1`
	sub, err := scanSubscription(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sub, nil
}

// CancelActiveSubscriptions помечает все активные подписки пользователя отменёнными.
func (s *Storage) CancelActiveSubscriptions(ctx context.Context, tx *sql.Tx, userUID string) error {
	const op = "storage.repository.CancelActiveSubscriptions"

	query := `
		UPDATE user_subscriptions
		SET status = 'canceled'
		WHERE user_uid = $1 AND status = 'active'`
	if _, err := tx.ExecContext(ctx, query, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateSubscription сохраняет новую подписку в рамках транзакции.
func (s *Storage) CreateSubscription(ctx context.Context, tx *sql.Tx, sub *models.Subscription) error {
	const op = "storage.repository.CreateSubscription"

	query := `
		INSERT INTO user_subscriptions (user_uid, plan_id, status, paypal_order_id, current_period_end, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := tx.QueryRowContext(ctx, query,
		sub.UserUID, sub.PlanID, sub.Status, sub.PayPalOrderID, sub.CurrentPeriodEnd, sub.CreatedAt).
		Scan(&sub.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ReplaceSubscription отменяет текущие подписки и создаёт новую одной транзакцией.
func (s *Storage) ReplaceSubscription(ctx context.Context, sub *models.Subscription) error {
	const op = "storage.repository.ReplaceSubscription"

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

	if err := s.CancelActiveSubscriptions(ctx, tx, sub.UserUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.CreateSubscription(ctx, tx, sub); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindSubscriptionsExpiringSoon возвращает активные подписки, истекающие в заданном окне.
func (s *Storage) FindSubscriptionsExpiringSoon(ctx context.Context, from, to time.Time) ([]*models.ExpiryNotice, error) {
	const op = "storage.repository.FindSubscriptionsExpiringSoon"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		SELECT u.email, u.username, u.line_user_id, us.current_period_end
		FROM user_subscriptions us
		JOIN users u ON u.uid = us.user_uid
		WHERE us.status = 'active'
		  AND us.current_period_end IS NOT NULL
		  AND us.current_period_end >= $1
		  AND us.current_period_end < $2`
	rows, err := s.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var notices []*models.ExpiryNotice
	for rows.Next() {
		notice := models.ExpiryNotice{Kind: models.NoticeKindSubscription}
		if err := rows.Scan(&notice.Email, &notice.Username, &notice.LineUserID, &notice.ExpiresAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		notices = append(notices, &notice)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return notices, nil
}

// CountActiveSubscriptionsByTier возвращает число активных подписок по тарифам.
func (s *Storage) CountActiveSubscriptionsByTier(ctx context.Context, now time.Time) (map[models.PlanTier]int, error) {
	const op = "storage.repository.CountActiveSubscriptionsByTier"

	query := `
		SELECT bp.tier, COUNT(*)
		FROM user_subscriptions us
		JOIN billing_plans bp ON bp.id = us.plan_id
		WHERE us.status = 'active'
		  AND (us.current_period_end IS NULL OR us.current_period_end > $1)
		GROUP BY bp.tier`
	rows, err := s.DB.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	counts := make(map[models.PlanTier]int)
	for rows.Next() {
		var tier models.PlanTier
		var count int
		if err := rows.Scan(&tier, &count); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		counts[tier] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return counts, nil
}

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(
		&sub.ID, &sub.UserUID, &sub.PlanID, &sub.Tier, &sub.Status,
		&sub.PayPalOrderID, &sub.CurrentPeriodEnd, &sub.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
