// Package newsletter содержит бизнес-логику email-рассылки.
package newsletter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kokoroai/counselor-backend/internal/email"
	"github.com/kokoroai/counselor-backend/internal/lib/sl"
)

// Repository описывает операции хранилища для рассылки.
type Repository interface {
	// UpsertNewsletterSubscriber добавляет email в рассылку идемпотентно.
	UpsertNewsletterSubscriber(ctx context.Context, email string, subscribedAt time.Time) error
	// ListNewsletterSubscribers возвращает все адреса рассылки.
	ListNewsletterSubscribers(ctx context.Context) ([]string, error)
	// RecordNewsletterCampaign сохраняет факт отправки рассылки.
	RecordNewsletterCampaign(ctx context.Context, subject string, recipients int, sentAt time.Time) error
}

// Service управляет подписчиками и отправкой рассылок.
type Service struct {
	repo   Repository
	sender email.Sender
	log    *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, sender email.Sender, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		sender: sender,
		log:    log,
	}
}

// Subscribe добавляет адрес в рассылку. Повторная подписка не является ошибкой.
func (s *Service) Subscribe(ctx context.Context, emailAddr string) error {
	const op = "services.newsletter.Subscribe"

	if err := s.repo.UpsertNewsletterSubscriber(ctx, emailAddr, time.Now().UTC()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SendCampaign рассылает письмо всем подписчикам и возвращает число успешных
// отправок. Ошибка отправки одному адресату не прерывает рассылку.
func (s *Service) SendCampaign(ctx context.Context, subject, html string) (int, error) {
	const op = "services.newsletter.SendCampaign"

	subscribers, err := s.repo.ListNewsletterSubscribers(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	sent := 0
	for _, to := range subscribers {
		if err := s.sender.Send(ctx, to, subject, html); err != nil {
			s.log.Error("failed to send newsletter",
				slog.String("op", op),
				slog.String("to", to),
				sl.Err(err))
			continue
		}
		sent++
	}

	if err := s.repo.RecordNewsletterCampaign(ctx, subject, sent, time.Now().UTC()); err != nil {
		s.log.Error("failed to record campaign", slog.String("op", op), sl.Err(err))
	}

	s.log.Info("newsletter campaign sent",
		slog.String("op", op),
		slog.Int("recipients", sent),
		slog.Int("subscribers", len(subscribers)))
	return sent, nil
}
