package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kokoroai/counselor-backend/internal/models"
)

// CreateConversation сохраняет новую беседу.
func (s *Storage) CreateConversation(ctx context.Context, conv *models.Conversation) error {
	const op = "storage.repository.CreateConversation"

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		INSERT INTO conversations (id, user_uid, counselor_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.DB.ExecContext(ctx, query,
		conv.ID, conv.UserUID, conv.CounselorID, conv.Title, conv.CreatedAt, conv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetConversation возвращает беседу пользователя, nil если не найдена.
func (s *Storage) GetConversation(ctx context.Context, conversationID, userUID string) (*models.Conversation, error) {
	const op = "storage.repository.GetConversation"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		SELECT id, user_uid, counselor_id, title, created_at, updated_at
		FROM conversations
		WHERE id = $1 AND user_uid = $2`
	var conv models.Conversation
	err := s.DB.QueryRowContext(ctx, query, conversationID, userUID).Scan(
		&conv.ID, &conv.UserUID, &conv.CounselorID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &conv, nil
}

// ListConversations возвращает беседы пользователя, свежие первыми.
func (s *Storage) ListConversations(ctx context.Context, userUID string) ([]*models.Conversation, error) {
	const op = "storage.repository.ListConversations"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		SELECT id, user_uid, counselor_id, title, created_at, updated_at
		FROM conversations
		WHERE user_uid = $1
		ORDER BY updated_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var convs []*models.Conversation
	for rows.Next() {
		var conv models.Conversation
		err := rows.Scan(&conv.ID, &conv.UserUID, &conv.CounselorID, &conv.Title, &conv.CreatedAt, &conv.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		convs = append(convs, &conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return convs, nil
}

// RemoveConversation удаляет беседу пользователя вместе с сообщениями.
func (s *Storage) RemoveConversation(ctx context.Context, conversationID, userUID string) error {
	const op = "storage.repository.RemoveConversation"

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `DELETE FROM conversations WHERE id = $1 AND user_uid = $2`
	res, err := s.DB.ExecContext(ctx, query, conversationID, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s: %w", op, sql.ErrNoRows)
	}
	return nil
}

// TouchConversation обновляет время последней активности беседы.
func (s *Storage) TouchConversation(ctx context.Context, conversationID string, at time.Time) error {
	const op = "storage.repository.TouchConversation"

	query := `UPDATE conversations SET updated_at = $2 WHERE id = $1`
	if _, err := s.DB.ExecContext(ctx, query, conversationID, at); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CreateMessage сохраняет сообщение беседы.
func (s *Storage) CreateMessage(ctx context.Context, msg *models.Message) error {
	const op = "storage.repository.CreateMessage"

	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		INSERT INTO messages (id, conversation_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := s.DB.ExecContext(ctx, query, msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListMessages возвращает сообщения беседы в хронологическом порядке.
func (s *Storage) ListMessages(ctx context.Context, conversationID string) ([]*models.Message, error) {
	const op = "storage.repository.ListMessages"

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `
		SELECT id, conversation_id, role, content, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at`
	rows, err := s.DB.QueryContext(ctx, query, conversationID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var msgs []*models.Message
	for rows.Next() {
		var msg models.Message
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		msgs = append(msgs, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return msgs, nil
}

// CountConversations возвращает общее число бесед.
func (s *Storage) CountConversations(ctx context.Context) (int, error) {
	const op = "storage.repository.CountConversations"

	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM conversations`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// CountMessages возвращает общее число сообщений.
func (s *Storage) CountMessages(ctx context.Context) (int, error) {
	const op = "storage.repository.CountMessages"

	var count int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
