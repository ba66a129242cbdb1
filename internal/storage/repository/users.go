package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kokoroai/counselor-backend/internal/models"
)

// ErrUserExists возвращается при попытке повторной регистрации.
var ErrUserExists = errors.New("user already exists")

// CreateUser сохраняет нового пользователя.
func (s *Storage) CreateUser(ctx context.Context, user *models.User) error {
	const op = "storage.repository.CreateUser"

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		INSERT INTO users (uid, username, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (email) DO NOTHING`
	res, err := s.DB.ExecContext(ctx, query,
		user.UID, user.Username, user.Email, user.PasswordHash, user.Role, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserExists)
	}
	return nil
}

// GetUserByEmail возвращает пользователя по email, nil если не найден.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.repository.GetUserByEmail"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		SELECT uid, username, email, password_hash, role, line_user_id, line_linked_at, created_at
		FROM users
		WHERE email = $1`
	user, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// GetUserByUID возвращает пользователя по идентификатору, nil если не найден.
func (s *Storage) GetUserByUID(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.repository.GetUserByUID"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		SELECT uid, username, email, password_hash, role, line_user_id, line_linked_at, created_at
		FROM users
		WHERE uid = $1`
	user, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// GetUserByLineID возвращает пользователя по LINE-идентификатору, nil если не найден.
func (s *Storage) GetUserByLineID(ctx context.Context, lineUserID string) (*models.User, error) {
	const op = "storage.repository.GetUserByLineID"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		SELECT uid, username, email, password_hash, role, line_user_id, line_linked_at, created_at
		FROM users
		WHERE line_user_id = $1`
	user, err := scanUser(s.DB.QueryRowContext(ctx, query, lineUserID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// SetLineLink проставляет привязку аккаунта LINE.
func (s *Storage) SetLineLink(ctx context.Context, userUID, lineUserID string, linkedAt time.Time) error {
	const op = "storage.repository.SetLineLink"

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		UPDATE users
		SET line_user_id = $2, line_linked_at = $3
		WHERE uid = $1`
	if _, err := s.DB.ExecContext(ctx, query, userUID, lineUserID, linkedAt); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ClearLineLink снимает привязку аккаунта LINE.
// Сам line_user_id сохраняется, чтобы повторное добавление в друзья
// восстановило связь с тем же пользователем.
func (s *Storage) ClearLineLink(ctx context.Context, userUID string) error {
	const op = "storage.repository.ClearLineLink"

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		UPDATE users
		SET line_linked_at = NULL
		WHERE uid = $1`
	if _, err := s.DB.ExecContext(ctx, query, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListUsers возвращает пользователей постранично для админки.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "storage.repository.ListUsers"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		SELECT uid, username, email, password_hash, role, line_user_id, line_linked_at, created_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return users, nil
}

// ListUserOverviews возвращает пользователей со сводкой доступа: уровень
// действующей подписки и срок пробного периода.
func (s *Storage) ListUserOverviews(ctx context.Context, now time.Time, limit, offset int) ([]*models.UserOverview, error) {
	const op = "storage.repository.ListUserOverviews"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		SELECT u.uid, u.username, u.email, u.role, u.line_user_id, u.line_linked_at, u.created_at,
		       COALESCE(bp.tier, 'none') AS plan,
		       ut.trial_expires_at
		FROM users u
		LEFT JOIN LATERAL (
			SELECT us.plan_id
			FROM user_subscriptions us
			WHERE us.user_uid = u.uid
			  AND us.status = 'active'
			  AND (us.current_period_end IS NULL OR us.current_period_end > $1)
			ORDER BY us.current_period_end DESC NULLS LAST, us.created_at DESC
			LIMIT 1
		) cur ON TRUE
		LEFT JOIN billing_plans bp ON bp.id = cur.plan_id
		LEFT JOIN user_trials ut ON ut.user_uid = u.uid
		ORDER BY u.created_at DESC
		LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, now, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var overviews []*models.UserOverview
	for rows.Next() {
		var ov models.UserOverview
		err := rows.Scan(
			&ov.UID, &ov.Username, &ov.Email, &ov.Role,
			&ov.LineUserID, &ov.LineLinkedAt, &ov.CreatedAt,
			&ov.Plan, &ov.TrialExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		overviews = append(overviews, &ov)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return overviews, nil
}

// CountUsers возвращает общее число пользователей.
func (s *Storage) CountUsers(ctx context.Context) (int, error) {
	const op = "storage.repository.CountUsers"

	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.UID, &user.Username, &user.Email, &user.PasswordHash,
		&user.Role, &user.LineUserID, &user.LineLinkedAt, &user.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
