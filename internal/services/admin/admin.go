// Package admin собирает сводные показатели сервиса для административных ручек.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kokoroai/counselor-backend/internal/models"
)

// Размер страницы по умолчанию для списка пользователей.
const defaultPageSize = 50

// Repository описывает выборки, нужные админке.
type Repository interface {
	CountUsers(ctx context.Context) (int, error)
	CountConversations(ctx context.Context) (int, error)
	CountMessages(ctx context.Context) (int, error)
	CountActiveTrials(ctx context.Context, now time.Time) (int, error)
	CountActiveSubscriptionsByTier(ctx context.Context, now time.Time) (map[models.PlanTier]int, error)
	ListUserOverviews(ctx context.Context, now time.Time, limit, offset int) ([]*models.UserOverview, error)
}

// Service реализует операции администратора.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Metrics собирает показатели использования сервиса параллельными запросами.
func (s *Service) Metrics(ctx context.Context) (*models.Metrics, error) {
	const op = "services.admin.Metrics"

	now := time.Now().UTC()
	var metrics models.Metrics

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		metrics.Users, err = s.repo.CountUsers(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		metrics.Conversations, err = s.repo.CountConversations(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		metrics.Messages, err = s.repo.CountMessages(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		metrics.ActiveTrials, err = s.repo.CountActiveTrials(gctx, now)
		return err
	})
	g.Go(func() error {
		var err error
		metrics.ActiveSubscriptions, err = s.repo.CountActiveSubscriptionsByTier(gctx, now)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &metrics, nil
}

// ListUsers возвращает страницу пользователей со сводкой их доступа.
func (s *Service) ListUsers(ctx context.Context, page int) ([]*models.UserOverview, error) {
	const op = "services.admin.ListUsers"

	if page < 1 {
		page = 1
	}
	offset := (page - 1) * defaultPageSize

	overviews, err := s.repo.ListUserOverviews(ctx, time.Now().UTC(), defaultPageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return overviews, nil
}
