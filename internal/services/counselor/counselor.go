// Package counselor содержит бизнес-логику каталога ИИ-консультантов.
package counselor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kokoroai/counselor-backend/internal/lib/sl"
	"github.com/kokoroai/counselor-backend/internal/models"
)

// ErrNotFound возвращается для неизвестного консультанта.
var ErrNotFound = errors.New("counselor not found")

// cacheTTL - время жизни каталога в кэше.
const cacheTTL = 5 * time.Minute

const listCacheKey = "counselors:list"

// Repository описывает операции хранилища для консультантов.
type Repository interface {
	// ListCounselors возвращает всех активных консультантов.
	ListCounselors(ctx context.Context) ([]*models.Counselor, error)
	// GetCounselor возвращает консультанта, nil если не найден.
	GetCounselor(ctx context.Context, counselorID string) (*models.Counselor, error)
	// SearchCounselors возвращает активных консультантов по подстроке запроса.
	SearchCounselors(ctx context.Context, query string) ([]*models.Counselor, error)
	// IncrementSessionCount увеличивает счётчик сессий консультанта.
	IncrementSessionCount(ctx context.Context, counselorID string) error
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значение из кеша по ключу.
	Invalidate(ctx context.Context, key string) error
}

// Service отдаёт каталог консультантов, кэшируя его в Redis.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		log:   log,
	}
}

// List возвращает каталог активных консультантов.
func (s *Service) List(ctx context.Context) ([]*models.Counselor, error) {
	const op = "services.counselor.List"

	var cached []*models.Counselor
	found, err := s.cache.Get(ctx, listCacheKey, &cached)
	if err != nil {
		s.log.Warn("cache read failed", slog.String("op", op), sl.Err(err))
	}
	if found {
		return cached, nil
	}

	counselors, err := s.repo.ListCounselors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, listCacheKey, counselors, cacheTTL); err != nil {
		s.log.Warn("cache write failed", slog.String("op", op), sl.Err(err))
	}
	return counselors, nil
}

// Search ищет консультантов по подстроке в имени, должности и описании.
// Результаты поиска не кэшируются, пустой запрос отдаёт весь каталог.
func (s *Service) Search(ctx context.Context, query string) ([]*models.Counselor, error) {
	const op = "services.counselor.Search"

	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx)
	}

	counselors, err := s.repo.SearchCounselors(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return counselors, nil
}

// Get возвращает консультанта по идентификатору.
func (s *Service) Get(ctx context.Context, counselorID string) (*models.Counselor, error) {
	const op = "services.counselor.Get"

	counselor, err := s.repo.GetCounselor(ctx, counselorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if counselor == nil {
		return nil, ErrNotFound
	}
	return counselor, nil
}

// RecordSession увеличивает счётчик сессий и сбрасывает кэш каталога.
func (s *Service) RecordSession(ctx context.Context, counselorID string) error {
	const op = "services.counselor.RecordSession"

	if err := s.repo.IncrementSessionCount(ctx, counselorID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Invalidate(ctx, listCacheKey); err != nil {
		s.log.Warn("cache invalidate failed", slog.String("op", op), sl.Err(err))
	}
	return nil
}
