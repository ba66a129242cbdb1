package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kokoroai/counselor-backend/internal/models"
)

// GetTrial возвращает запись пробного периода пользователя, nil если записи нет.
func (s *Storage) GetTrial(ctx context.Context, userUID string) (*models.Trial, error) {
	const op = "storage.repository.GetTrial"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		SELECT user_uid, source, line_linked, trial_started_at, trial_expires_at
		FROM user_trials
		WHERE user_uid = $1`
	var trial models.Trial
	err := s.DB.QueryRowContext(ctx, query, userUID).Scan(
		&trial.UserUID, &trial.Source, &trial.LineLinked,
		&trial.TrialStartedAt, &trial.TrialExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &trial, nil
}

// UpsertLineTrial создаёт или обновляет пробную запись при привязке LINE.
func (s *Storage) UpsertLineTrial(ctx context.Context, userUID string, startedAt time.Time) error {
	const op = "storage.repository.UpsertLineTrial"

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		INSERT INTO user_trials (user_uid, source, line_linked, trial_started_at)
		VALUES ($1, 'line', TRUE, $2)
		ON CONFLICT (user_uid) DO UPDATE
		SET line_linked = TRUE`
	if _, err := s.DB.ExecContext(ctx, query, userUID, startedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ExtendTrial продлевает пробный период не короче заданной даты.
func (s *Storage) ExtendTrial(ctx context.Context, userUID, source string, expiresAt, now time.Time) error {
	const op = "storage.repository.ExtendTrial"

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		INSERT INTO user_trials (user_uid, source, line_linked, trial_started_at, trial_expires_at)
		VALUES ($1, $2, FALSE, $3, $4)
		ON CONFLICT (user_uid) DO UPDATE
		SET trial_expires_at = GREATEST(COALESCE(user_trials.trial_expires_at, EXCLUDED.trial_expires_at), EXCLUDED.trial_expires_at)`
	if _, err := s.DB.ExecContext(ctx, query, userUID, source, now, expiresAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindTrialsExpiringSoon возвращает пробные периоды, истекающие в заданном окне.
func (s *Storage) FindTrialsExpiringSoon(ctx context.Context, from, to time.Time) ([]*models.ExpiryNotice, error) {
	const op = "storage.repository.FindTrialsExpiringSoon"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		SELECT u.email, u.username, u.line_user_id, ut.trial_expires_at
		FROM user_trials ut
		JOIN users u ON u.uid = ut.user_uid
		WHERE ut.trial_expires_at IS NOT NULL
		  AND ut.trial_expires_at >= $1
		  AND ut.trial_expires_at < $2`
	rows, err := s.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var notices []*models.ExpiryNotice
	for rows.Next() {
		notice := models.ExpiryNotice{Kind: models.NoticeKindTrial}
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

// CountActiveTrials возвращает количество пробных периодов, действующих на момент now.
func (s *Storage) CountActiveTrials(ctx context.Context, now time.Time) (int, error) {
	const op = "storage.repository.CountActiveTrials"

	query := `SELECT COUNT(*) FROM user_trials WHERE trial_expires_at IS NOT NULL AND trial_expires_at > $1`
	var count int
	if err := s.DB.QueryRowContext(ctx, query, now).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
