// Package access содержит бизнес-логику определения прав доступа пользователя.
package access

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kokoroai/counselor-backend/internal/models"
)

// SubscriptionReader определяет чтение подписок из хранилища.
type SubscriptionReader interface {
	// FindCurrentSubscription возвращает последнюю подписку пользователя, nil если записей нет.
	FindCurrentSubscription(ctx context.Context, userUID string) (*models.Subscription, error)
}

// TrialReader определяет чтение пробных периодов из хранилища.
type TrialReader interface {
	// GetTrial возвращает запись пробного периода, nil если записи нет.
	GetTrial(ctx context.Context, userUID string) (*models.Trial, error)
}

// UserReader определяет чтение профиля пользователя из хранилища.
type UserReader interface {
	// GetUserByUID возвращает пользователя, nil если не найден.
	GetUserByUID(ctx context.Context, userUID string) (*models.User, error)
}

// Requirement - требуемый режим консультации.
type Requirement string

// Режимы консультаций.
const (
	RequirementIndividual Requirement = "individual"
	RequirementTeam       Requirement = "team"
)

// Service вычисляет состояние доступа пользователя.
type Service struct {
	subscriptions SubscriptionReader
	trials        TrialReader
	users         UserReader
	log           *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(subscriptions SubscriptionReader, trials TrialReader, users UserReader, log *slog.Logger) *Service {
	return &Service{
		subscriptions: subscriptions,
		trials:        trials,
		users:         users,
		log:           log,
	}
}

// ResolveAccessState собирает состояние доступа пользователя из подписки,
// пробного периода и профиля. Все сравнения времени используют один момент,
// зафиксированный в начале вычисления. Отсутствие записей не является
// ошибкой; ошибка любого из чтений прерывает вычисление целиком.
func (s *Service) ResolveAccessState(ctx context.Context, userUID string) (*models.AccessState, error) {
	const op = "services.access.ResolveAccessState"

	now := time.Now().UTC()

	var (
		sub   *models.Subscription
		trial *models.Trial
		user  *models.User
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sub, err = s.subscriptions.FindCurrentSubscription(gctx, userUID)
		return err
	})
	g.Go(func() error {
		var err error
		trial, err = s.trials.GetTrial(gctx, userUID)
		return err
	})
	g.Go(func() error {
		var err error
		user, err = s.users.GetUserByUID(gctx, userUID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return buildState(sub, trial, user, now), nil
}

// AssertAccess проверяет, что пользователю доступен требуемый режим
// консультаций, и возвращает AccessError при отказе.
func (s *Service) AssertAccess(ctx context.Context, userUID string, req Requirement) (*models.AccessState, error) {
	const op = "services.access.AssertAccess"

	state, err := s.ResolveAccessState(ctx, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	allowed := state.CanUseIndividual
	requiredPlan := models.PlanBasic
	if req == RequirementTeam {
		allowed = state.CanUseTeam
		requiredPlan = models.PlanPremium
	}
	if !allowed {
		s.log.Info("access denied",
			slog.String("op", op),
			slog.String("requirement", string(req)),
			slog.String("plan", string(state.Plan)))
		return nil, NewPaymentRequired(requiredPlan)
	}
	return state, nil
}

func buildState(sub *models.Subscription, trial *models.Trial, user *models.User, now time.Time) *models.AccessState {
	state := &models.AccessState{Plan: models.PlanNone}

	if sub != nil && sub.Status == models.SubscriptionStatusActive {
		if sub.CurrentPeriodEnd == nil || sub.CurrentPeriodEnd.After(now) {
			state.HasActiveSubscription = true
			state.Plan = sub.Tier
		}
	}

	if trial != nil && trial.TrialExpiresAt != nil {
		// Дата окончания отдаётся и для истёкшего пробного периода,
		// активность определяет только сравнение с now.
		state.TrialExpiresAt = trial.TrialExpiresAt
		if trial.TrialExpiresAt.After(now) {
			state.OnTrial = true
		}
	}

	if trial != nil && trial.LineLinked {
		state.LineLinked = true
	}
	if user != nil && user.LineLinkedAt != nil {
		state.LineLinked = true
	}

	if state.HasActiveSubscription {
		state.CanUseIndividual = state.Plan == models.PlanBasic || state.Plan == models.PlanPremium
		state.CanUseTeam = state.Plan == models.PlanPremium
	} else {
		state.CanUseIndividual = state.OnTrial
		state.CanUseTeam = state.OnTrial
	}

	return state
}
