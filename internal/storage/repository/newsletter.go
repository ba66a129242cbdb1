package repository

import (
	"context"
	"fmt"
	"time"
)

// UpsertNewsletterSubscriber добавляет email в рассылку, повторная подписка идемпотентна.
func (s *Storage) UpsertNewsletterSubscriber(ctx context.Context, email string, subscribedAt time.Time) error {
	const op = "storage.repository.UpsertNewsletterSubscriber"

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		INSERT INTO newsletter_subscribers (email, subscribed_at)
		VALUES ($1, $2)
		ON CONFLICT (email) DO NOTHING`
	if _, err := s.DB.ExecContext(ctx, query, email, subscribedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListNewsletterSubscribers возвращает все адреса рассылки.
func (s *Storage) ListNewsletterSubscribers(ctx context.Context) ([]string, error) {
	const op = "storage.repository.ListNewsletterSubscribers"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT email FROM newsletter_subscribers ORDER BY subscribed_at`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return emails, nil
}

// RecordNewsletterCampaign сохраняет факт отправки рассылки.
func (s *Storage) RecordNewsletterCampaign(ctx context.Context, subject string, recipients int, sentAt time.Time) error {
	const op = "storage.repository.RecordNewsletterCampaign"

	query := `
		INSERT INTO newsletter_campaigns (subject, recipients, sent_at)
		VALUES ($1, $2, $3)`
	if _, err := s.DB.ExecContext(ctx, query, subject, recipients, sentAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
