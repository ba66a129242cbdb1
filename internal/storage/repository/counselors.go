package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kokoroai/counselor-backend/internal/models"
)

// ListCounselors возвращает всех активных ИИ-консультантов.
func (s *Storage) ListCounselors(ctx context.Context) ([]*models.Counselor, error) {
	const op = "storage.repository.ListCounselors"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		SELECT c.id, c.name, c.title, c.description, c.avatar_url, c.provider, c.model,
		       c.system_prompt, c.team, c.rag_enabled, COALESCE(cs.session_count, 0)
		FROM counselors c
		LEFT JOIN counselor_stats cs ON cs.counselor_id = c.id
		WHERE c.active = TRUE
		ORDER BY c.id`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var counselors []*models.Counselor
	for rows.Next() {
		counselor, err := scanCounselor(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		counselors = append(counselors, counselor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return counselors, nil
}

// GetCounselor возвращает консультанта по идентификатору, nil если не найден.
func (s *Storage) GetCounselor(ctx context.Context, counselorID string) (*models.Counselor, error) {
	const op = "storage.repository.GetCounselor"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		SELECT c.id, c.name, c.title, c.description, c.avatar_url, c.provider, c.model,
		       c.system_prompt, c.team, c.rag_enabled, COALESCE(cs.session_count, 0)
		FROM counselors c
		LEFT JOIN counselor_stats cs ON cs.counselor_id = c.id
		WHERE c.id = $1 AND c.active = TRUE`
	counselor, err := scanCounselor(s.DB.QueryRowContext(ctx, query, counselorID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return counselor, nil
}

// SearchCounselors возвращает активных консультантов, у которых имя, должность
// или описание содержат подстроку запроса без учёта регистра.
func (s *Storage) SearchCounselors(ctx context.Context, query string) ([]*models.Counselor, error) {
	const op = "storage.repository.SearchCounselors"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	pattern := "%" + escapeLike(query) + "%"
	sqlQuery := `
		SELECT c.id, c.name, c.title, c.description, c.avatar_url, c.provider, c.model,
		       c.system_prompt, c.team, c.rag_enabled, COALESCE(cs.session_count, 0)
		FROM counselors c
		LEFT JOIN counselor_stats cs ON cs.counselor_id = c.id
		WHERE c.active = TRUE
		  AND (c.name ILIKE $1 OR c.title ILIKE $1 OR c.description ILIKE $1)
		ORDER BY c.id`
	rows, err := s.DB.QueryContext(ctx, sqlQuery, pattern)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var counselors []*models.Counselor
	for rows.Next() {
		counselor, err := scanCounselor(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		counselors = append(counselors, counselor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return counselors, nil
}

// escapeLike экранирует спецсимволы шаблона LIKE в пользовательском запросе.
func escapeLike(s string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(s)
}

// IncrementSessionCount увеличивает счётчик сессий консультанта.
func (s *Storage) IncrementSessionCount(ctx context.Context, counselorID string) error {
	const op = "storage.repository.IncrementSessionCount"

	query := `
		INSERT INTO counselor_stats (counselor_id, session_count)
		VALUES ($1, 1)
		ON CONFLICT (counselor_id) DO UPDATE
		SET session_count = counselor_stats.session_count + 1`
	if _, err := s.DB.ExecContext(ctx, query, counselorID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func scanCounselor(row rowScanner) (*models.Counselor, error) {
	var c models.Counselor
	err := row.Scan(
		&c.ID, &c.Name, &c.Title, &c.Description, &c.AvatarURL, &c.Provider,
		&c.Model, &c.SystemPrompt, &c.Team, &c.RagEnabled, &c.SessionCount)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
