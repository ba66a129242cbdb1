// Package scheduler находит истекающие подписки и пробные периоды
// и публикует уведомления в очередь.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/streadway/amqp"

	"github.com/kokoroai/counselor-backend/internal/lib/rabbitmq"
	"github.com/kokoroai/counselor-backend/internal/lib/sl"
	"github.com/kokoroai/counselor-backend/internal/models"
)

// Периодичность обхода базы.
const scanInterval = 12 * time.Hour

// Repository описывает выборки истекающих доступов.
type Repository interface {
	// FindSubscriptionsExpiringSoon возвращает активные подписки, истекающие в окне.
	FindSubscriptionsExpiringSoon(ctx context.Context, from, to time.Time) ([]*models.ExpiryNotice, error)
	// FindTrialsExpiringSoon возвращает пробные периоды, истекающие в окне.
	FindTrialsExpiringSoon(ctx context.Context, from, to time.Time) ([]*models.ExpiryNotice, error)
}

// Service периодически публикует уведомления об окончании доступа.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Run запускает периодический обход: уведомления рассылаются о доступах,
// истекающих в течение завтрашних суток.
func (s *Service) Run(ctx context.Context, channel *amqp.Channel) {
	if _, err := s.ScanOnce(ctx, channel); err != nil {
		s.log.Error("scan failed", sl.Err(err))
	}

	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.ScanOnce(ctx, channel); err != nil {
				s.log.Error("scan failed", sl.Err(err))
			}
		case <-ctx.Done():
			return
		}
	}
}

// ScanOnce выполняет один обход базы и возвращает число опубликованных
// уведомлений.
func (s *Service) ScanOnce(ctx context.Context, channel *amqp.Channel) (int, error) {
	const op = "services.scheduler.ScanOnce"

	s.log.Info("scanning for expiring access", slog.String("op", op))

	now := time.Now().UTC()
	from := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
	to := from.Add(24 * time.Hour)

	subs, err := s.repo.FindSubscriptionsExpiringSoon(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	trials, err := s.repo.FindTrialsExpiringSoon(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	notices := append(subs, trials...)
	if len(notices) == 0 {
		s.log.Info("no expiring access found", slog.String("op", op))
		return 0, nil
	}
	s.log.Info("found expiring access",
		slog.String("op", op),
		slog.Int("count", len(notices)))

	published := 0
	for _, notice := range notices {
		if err := rabbitmq.PublishMessage(channel, "notifications", "expiring", notice); err != nil {
			s.log.Error("failed to publish notice", slog.String("op", op), sl.Err(err))
			continue
		}
		published++
	}
	return published, nil
}
