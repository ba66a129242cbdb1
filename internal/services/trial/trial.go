// Package trial содержит бизнес-логику пробных периодов и привязки LINE.
package trial

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kokoroai/counselor-backend/internal/lib/sl"
	"github.com/kokoroai/counselor-backend/internal/models"
)

// Длительность пробного периода, выдаваемого за добавление официального аккаунта в друзья.
const followTrialDays = 7

// Ошибки привязки LINE.
var (
	ErrAlreadyLinked = errors.New("line account already linked")
	ErrLineIDTaken   = errors.New("line account linked to another user")
	ErrUserNotFound  = errors.New("user not found")
)

// Repository описывает операции хранилища для пробных периодов.
type Repository interface {
	// GetUserByUID возвращает пользователя, nil если не найден.
	GetUserByUID(ctx context.Context, userUID string) (*models.User, error)
	// GetUserByLineID возвращает пользователя по LINE-идентификатору, nil если не найден.
	GetUserByLineID(ctx context.Context, lineUserID string) (*models.User, error)
	// SetLineLink проставляет привязку аккаунта LINE.
	SetLineLink(ctx context.Context, userUID, lineUserID string, linkedAt time.Time) error
	// UpsertLineTrial создаёт или обновляет пробную запись при привязке LINE.
	UpsertLineTrial(ctx context.Context, userUID string, startedAt time.Time) error
	// ExtendTrial продлевает пробный период не короче заданной даты.
	ExtendTrial(ctx context.Context, userUID, source string, expiresAt, now time.Time) error
	// ClearLineLink снимает привязку аккаунта LINE.
	ClearLineLink(ctx context.Context, userUID string) error
}

// Service управляет пробными периодами.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ActivateLineTrial привязывает LINE-аккаунт к пользователю и открывает
// пробную запись. Повторная привязка возвращает ErrAlreadyLinked, чужой
// LINE-аккаунт ErrLineIDTaken.
func (s *Service) ActivateLineTrial(ctx context.Context, userUID, lineUserID string) error {
	const op = "services.trial.ActivateLineTrial"

	user, err := s.repo.GetUserByUID(ctx, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.LineLinkedAt != nil {
		return ErrAlreadyLinked
	}

	owner, err := s.repo.GetUserByLineID(ctx, lineUserID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if owner != nil && owner.UID != userUID {
		return ErrLineIDTaken
	}

	now := time.Now().UTC()
	if err := s.repo.UpsertLineTrial(ctx, userUID, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.SetLineLink(ctx, userUID, lineUserID, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("line trial activated",
		slog.String("op", op),
		slog.String("user_uid", userUID))
	return nil
}

// HandleFollow обрабатывает событие follow вебхука: привязанному пользователю
// выдаётся недельный пробный период. Неизвестные LINE-аккаунты игнорируются.
func (s *Service) HandleFollow(ctx context.Context, lineUserID string) error {
	const op = "services.trial.HandleFollow"

	user, err := s.repo.GetUserByLineID(ctx, lineUserID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		s.log.Info("follow from unknown line account", slog.String("op", op))
		return nil
	}

	now := time.Now().UTC()
	expiresAt := now.AddDate(0, 0, followTrialDays)
	if err := s.repo.ExtendTrial(ctx, user.UID, "line", expiresAt, now); err != nil {
		s.log.Error("failed to extend trial", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("follow trial granted",
		slog.String("op", op),
		slog.String("user_uid", user.UID),
		slog.Time("trial_expires_at", expiresAt))
	return nil
}

// HandleUnfollow обрабатывает событие unfollow вебхука: у привязанного
// пользователя снимается отметка привязки. Уже выданный пробный период
// не отзывается.
func (s *Service) HandleUnfollow(ctx context.Context, lineUserID string) error {
	const op = "services.trial.HandleUnfollow"

	user, err := s.repo.GetUserByLineID(ctx, lineUserID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if user == nil {
		s.log.Info("unfollow from unknown line account", slog.String("op", op))
		return nil
	}

	if err := s.repo.ClearLineLink(ctx, user.UID); err != nil {
		s.log.Error("failed to clear line link", slog.String("op", op), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("line link cleared",
		slog.String("op", op),
		slog.String("user_uid", user.UID))
	return nil
}
