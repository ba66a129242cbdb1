// Package sender собирает приложение рассылки уведомлений.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/kokoroai/counselor-backend/internal/config"
	"github.com/kokoroai/counselor-backend/internal/email"
	"github.com/kokoroai/counselor-backend/internal/lib/rabbitmq"
	"github.com/kokoroai/counselor-backend/internal/lineapi"
	senderservice "github.com/kokoroai/counselor-backend/internal/services/sender"
)

// App представляет приложение рассылки уведомлений.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New создает новый экземпляр приложения рассылки.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	queues := rabbitmq.GetNotificationQueues()
	ch, err := rabbitmq.SetupChannel(conn, queues)
	if err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Error("failed to close connection", slog.Any("err", closeErr))
		}
		return nil, err
	}

	resendClient := email.NewResend(cfg.Resend)
	lineClient := lineapi.NewClient(cfg.Line)
	senderService := senderservice.NewService(resendClient, lineClient, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run подписывается на очередь уведомлений и работает до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	handler := func(body []byte) error {
		return a.senderService.Handle(ctx, body)
	}
	if err := rabbitmq.ConsumerMessage(ctx, a.ch, "notification.expiring", handler); err != nil {
		a.logger.Error("failed to start notification consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
