// Package chat содержит бизнес-логику диалогов с ИИ-консультантами.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kokoroai/counselor-backend/internal/lib/sl"
	"github.com/kokoroai/counselor-backend/internal/llm"
	"github.com/kokoroai/counselor-backend/internal/models"
	"github.com/kokoroai/counselor-backend/internal/services/access"
)

// ErrConversationNotFound возвращается для чужого или несуществующего диалога.
var ErrConversationNotFound = errors.New("conversation not found")

// Длина заголовка диалога, отрезаемого от первого сообщения.
const titleLimit = 50

// Repository описывает операции хранилища для диалогов.
type Repository interface {
	CreateConversation(ctx context.Context, conv *models.Conversation) error
	GetConversation(ctx context.Context, conversationID, userUID string) (*models.Conversation, error)
	ListConversations(ctx context.Context, userUID string) ([]*models.Conversation, error)
	RemoveConversation(ctx context.Context, conversationID, userUID string) error
	TouchConversation(ctx context.Context, conversationID string, at time.Time) error
	CreateMessage(ctx context.Context, msg *models.Message) error
	ListMessages(ctx context.Context, conversationID string) ([]*models.Message, error)
}

// AccessChecker проверяет право пользователя на режим консультации.
type AccessChecker interface {
	AssertAccess(ctx context.Context, userUID string, req access.Requirement) (*models.AccessState, error)
}

// CounselorCatalog отдаёт консультантов и ведёт их статистику.
type CounselorCatalog interface {
	Get(ctx context.Context, counselorID string) (*models.Counselor, error)
	RecordSession(ctx context.Context, counselorID string) error
}

// Completer генерирует ответ языковой модели выбранного провайдера.
type Completer interface {
	Complete(ctx context.Context, provider string, req llm.Request) (*llm.Response, error)
}

// ContextSearcher ищет контекст в базе знаний консультанта.
type ContextSearcher interface {
	SearchContext(ctx context.Context, counselorID, query string) (string, error)
}

// Service ведёт диалоги: проверяет доступ, хранит историю и запрашивает модель.
type Service struct {
	repo       Repository
	accessSvc  AccessChecker
	counselors CounselorCatalog
	completer  Completer
	ragSvc     ContextSearcher
	log        *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, accessSvc AccessChecker, counselors CounselorCatalog,
	completer Completer, ragSvc ContextSearcher, log *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		accessSvc:  accessSvc,
		counselors: counselors,
		completer:  completer,
		ragSvc:     ragSvc,
		log:        log,
	}
}

// SendMessage обрабатывает сообщение пользователя: проверяет доступ к режиму
// консультанта, сохраняет сообщение, собирает историю и контекст базы знаний,
// получает ответ модели и сохраняет его.
func (s *Service) SendMessage(ctx context.Context, userUID string, req models.ChatRequest) (*models.ChatReply, error) {
	const op = "services.chat.SendMessage"

	c, err := s.counselors.Get(ctx, req.CounselorID)
	if err != nil {
		return nil, err
	}

	requirement := access.RequirementIndividual
	if c.Team {
		requirement = access.RequirementTeam
	}
	if _, err := s.accessSvc.AssertAccess(ctx, userUID, requirement); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	conv, created, err := s.resolveConversation(ctx, userUID, req, now)
	if err != nil {
		return nil, err
	}

	userMsg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           llm.RoleUser,
		Content:        req.Message,
		CreatedAt:      now,
	}
	if err := s.repo.CreateMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	history, err := s.repo.ListMessages(ctx, conv.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	messages := make([]llm.ChatMessage, 0, len(history))
	for _, msg := range history {
		messages = append(messages, llm.ChatMessage{Role: msg.Role, Content: msg.Content})
	}

	var ragContext string
	if c.RagEnabled {
		ragContext, err = s.ragSvc.SearchContext(ctx, c.ID, req.Message)
		if err != nil {
			s.log.Warn("rag search failed", slog.String("op", op), sl.Err(err))
		}
	}

	reply, err := s.completer.Complete(ctx, c.Provider, llm.Request{
		Model:        c.Model,
		SystemPrompt: c.SystemPrompt,
		Messages:     messages,
		RagContext:   ragContext,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	assistantMsg := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: conv.ID,
		Role:           llm.RoleAssistant,
		Content:        reply.Content,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.repo.CreateMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.TouchConversation(ctx, conv.ID, assistantMsg.CreatedAt); err != nil {
		s.log.Warn("failed to touch conversation", slog.String("op", op), sl.Err(err))
	}

	if created {
		if err := s.counselors.RecordSession(ctx, c.ID); err != nil {
			s.log.Warn("failed to record session", slog.String("op", op), sl.Err(err))
		}
	}

	return &models.ChatReply{
		ConversationID: conv.ID,
		CounselorID:    c.ID,
		Content:        reply.Content,
		TokensUsed:     reply.TokensUsed,
	}, nil
}

// resolveConversation возвращает существующий диалог пользователя или создаёт новый.
func (s *Service) resolveConversation(ctx context.Context, userUID string, req models.ChatRequest, now time.Time) (*models.Conversation, bool, error) {
	const op = "services.chat.resolveConversation"

	if req.ConversationID != "" {
		conv, err := s.repo.GetConversation(ctx, req.ConversationID, userUID)
		if err != nil {
			return nil, false, fmt.Errorf("%s: %w", op, err)
		}
		if conv == nil {
			return nil, false, ErrConversationNotFound
		}
		return conv, false, nil
	}

	conv := &models.Conversation{
		ID:          uuid.NewString(),
		UserUID:     userUID,
		CounselorID: req.CounselorID,
		Title:       truncateTitle(req.Message),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateConversation(ctx, conv); err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}
	return conv, true, nil
}

// ListConversations возвращает диалоги пользователя.
func (s *Service) ListConversations(ctx context.Context, userUID string) ([]*models.Conversation, error) {
	return s.repo.ListConversations(ctx, userUID)
}

// GetMessages возвращает сообщения диалога после проверки владельца.
func (s *Service) GetMessages(ctx context.Context, conversationID, userUID string) ([]*models.Message, error) {
	const op = "services.chat.GetMessages"

	conv, err := s.repo.GetConversation(ctx, conversationID, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if conv == nil {
		return nil, ErrConversationNotFound
	}
	return s.repo.ListMessages(ctx, conversationID)
}

// RemoveConversation удаляет диалог пользователя.
func (s *Service) RemoveConversation(ctx context.Context, conversationID, userUID string) error {
	const op = "services.chat.RemoveConversation"

	conv, err := s.repo.GetConversation(ctx, conversationID, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if conv == nil {
		return ErrConversationNotFound
	}
	if err := s.repo.RemoveConversation(ctx, conversationID, userUID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func truncateTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= titleLimit {
		return message
	}
	return string(runes[:titleLimit])
}
