// Package payment содержит бизнес-логику оформления платных подписок через PayPal.
package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/kokoroai/counselor-backend/internal/lib/sl"
	"github.com/kokoroai/counselor-backend/internal/models"
	"github.com/kokoroai/counselor-backend/internal/paypal"
)

// Ошибки оформления подписки.
var (
	ErrUnknownPlan      = errors.New("unknown plan")
	ErrOrderNotComplete = errors.New("order is not completed")
	ErrForeignOrder     = errors.New("order belongs to another user")
)

// OrderClient описывает операции платёжного провайдера.
type OrderClient interface {
	// CreateOrder создаёт заказ на оплату.
	CreateOrder(ctx context.Context, value, customID string) (*paypal.Order, error)
	// CaptureOrder списывает средства по заказу.
	CaptureOrder(ctx context.Context, orderID string) (*paypal.CaptureResponse, error)
}

// SubscriptionWriter описывает запись подписок в хранилище.
type SubscriptionWriter interface {
	// ReplaceSubscription отменяет текущие подписки и создаёт новую.
	ReplaceSubscription(ctx context.Context, sub *models.Subscription) error
}

// Service оформляет подписки: создаёт заказы и активирует оплаченные.
type Service struct {
	orders OrderClient
	subs   SubscriptionWriter
	log    *slog.Logger
}

// NewService создает новый экземпляр Service.
func NewService(orders OrderClient, subs SubscriptionWriter, log *slog.Logger) *Service {
	return &Service{
		orders: orders,
		subs:   subs,
		log:    log,
	}
}

// CreateOrder создаёт заказ PayPal на оплату выбранного тарифа.
func (s *Service) CreateOrder(ctx context.Context, userUID, plan string) (*paypal.Order, error) {
	const op = "services.payment.CreateOrder"

	if !models.IsPaidPlan(plan) {
		return nil, ErrUnknownPlan
	}
	def := models.PlanDefinitions[models.PlanTier(plan)]
	customID := userUID + ":" + plan

	order, err := s.orders.CreateOrder(ctx, strconv.Itoa(def.PriceYen), customID)
	if err != nil {
		s.log.Error("failed to create order", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("order created",
		slog.String("op", op),
		slog.String("order_id", order.ID),
		slog.String("plan", plan))
	return order, nil
}

// CaptureOrder списывает средства и активирует подписку на месяц.
// Заказ должен принадлежать вызывающему пользователю, прежние активные
// подписки отменяются.
func (s *Service) CaptureOrder(ctx context.Context, callerUID, orderID string) (*models.Subscription, error) {
	const op = "services.payment.CaptureOrder"

	capture, err := s.orders.CaptureOrder(ctx, orderID)
	if err != nil {
		s.log.Error("failed to capture order", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if capture.Status != "COMPLETED" {
		return nil, fmt.Errorf("%s: %w", op, ErrOrderNotComplete)
	}

	userUID, plan, err := parseCustomID(capture)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if userUID != callerUID {
		return nil, fmt.Errorf("%s: %w", op, ErrForeignOrder)
	}

	now := time.Now().UTC()
	periodEnd := now.AddDate(0, 1, 0)
	sub := &models.Subscription{
		UserUID:          userUID,
		PlanID:           models.PlanIDs[models.PlanTier(plan)],
		Tier:             models.PlanTier(plan),
		Status:           models.SubscriptionStatusActive,
		PayPalOrderID:    &orderID,
		CurrentPeriodEnd: &periodEnd,
		CreatedAt:        now,
	}
	if err := s.subs.ReplaceSubscription(ctx, sub); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("subscription activated",
		slog.String("op", op),
		slog.String("user_uid", userUID),
		slog.String("plan", plan),
		slog.Time("current_period_end", periodEnd))
	return sub, nil
}

// parseCustomID извлекает пару "uid:plan" из ответа на списание.
func parseCustomID(capture *paypal.CaptureResponse) (userUID, plan string, err error) {
	if len(capture.PurchaseUnits) == 0 {
		return "", "", errors.New("capture has no purchase units")
	}
	return splitCustomID(capture.PurchaseUnits[0].CustomID)
}

// HandleCaptureCompleted активирует подписку по событию вебхука PAYMENT.CAPTURE.COMPLETED.
// Повторная доставка события безопасна: прежние подписки отменяются перед вставкой.
func (s *Service) HandleCaptureCompleted(ctx context.Context, event *paypal.WebhookEvent) error {
	const op = "services.payment.HandleCaptureCompleted"

	userUID, plan, err := splitCustomID(customIDFromEvent(event))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := time.Now().UTC()
	periodEnd := now.AddDate(0, 1, 0)
	sub := &models.Subscription{
		UserUID:          userUID,
		PlanID:           models.PlanIDs[models.PlanTier(plan)],
		Tier:             models.PlanTier(plan),
		Status:           models.SubscriptionStatusActive,
		CurrentPeriodEnd: &periodEnd,
		CreatedAt:        now,
	}
	if err := s.subs.ReplaceSubscription(ctx, sub); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("subscription activated via webhook",
		slog.String("op", op),
		slog.String("user_uid", userUID),
		slog.String("plan", plan),
		slog.String("event_id", event.ID))
	return nil
}

// customIDFromEvent достаёт custom_id из ресурса события: сначала из списаний,
// затем из позиций заказа, затем из самого ресурса.
func customIDFromEvent(event *paypal.WebhookEvent) string {
	res := event.Resource
	if len(res.Payments.Captures) > 0 && res.Payments.Captures[0].CustomID != "" {
		return res.Payments.Captures[0].CustomID
	}
	if len(res.PurchaseUnits) > 0 && res.PurchaseUnits[0].CustomID != "" {
		return res.PurchaseUnits[0].CustomID
	}
	return res.CustomID
}

// splitCustomID разбирает строку вида "uid:plan".
func splitCustomID(customID string) (userUID, plan string, err error) {
	parts := strings.SplitN(customID, ":", 2)
	if len(parts) != 2 || parts[0] == "" || !models.IsPaidPlan(parts[1]) {
		return "", "", errors.New("malformed custom_id in capture")
	}
	return parts[0], parts[1], nil
}
