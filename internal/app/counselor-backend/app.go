// Package counselorbackend собирает и запускает основное HTTP-приложение.
package counselorbackend

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/kokoroai/counselor-backend/internal/cache"
	"github.com/kokoroai/counselor-backend/internal/config"
	"github.com/kokoroai/counselor-backend/internal/email"
	"github.com/kokoroai/counselor-backend/internal/lib/jwt"
	"github.com/kokoroai/counselor-backend/internal/lib/rabbitmq"
	"github.com/kokoroai/counselor-backend/internal/lineapi"
	"github.com/kokoroai/counselor-backend/internal/llm"
	"github.com/kokoroai/counselor-backend/internal/migrations"
	"github.com/kokoroai/counselor-backend/internal/paypal"
	accessservice "github.com/kokoroai/counselor-backend/internal/services/access"
	adminservice "github.com/kokoroai/counselor-backend/internal/services/admin"
	authservice "github.com/kokoroai/counselor-backend/internal/services/auth"
	campaignservice "github.com/kokoroai/counselor-backend/internal/services/campaign"
	chatservice "github.com/kokoroai/counselor-backend/internal/services/chat"
	counselorservice "github.com/kokoroai/counselor-backend/internal/services/counselor"
	newsletterservice "github.com/kokoroai/counselor-backend/internal/services/newsletter"
	paymentservice "github.com/kokoroai/counselor-backend/internal/services/payment"
	ragservice "github.com/kokoroai/counselor-backend/internal/services/rag"
	schedulerservice "github.com/kokoroai/counselor-backend/internal/services/scheduler"
	trialservice "github.com/kokoroai/counselor-backend/internal/services/trial"
	"github.com/kokoroai/counselor-backend/internal/storage/repository"
)

// App представляет основное приложение со всеми зависимостями.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// ExpiryTrigger связывает обход планировщика с каналом очереди,
// чтобы администратор мог запустить рассылку вне расписания.
type ExpiryTrigger struct {
	svc *schedulerservice.Service
	ch  *amqp.Channel
}

// TriggerExpiryScan выполняет один обход и возвращает число опубликованных уведомлений.
func (t *ExpiryTrigger) TriggerExpiryScan(ctx context.Context) (int, error) {
	return t.svc.ScanOnce(ctx, t.ch)
}

// New собирает все сервисы и возвращает готовое к запуску приложение.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		return nil, err
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	lineClient := lineapi.NewClient(cfg.Line)
	paypalClient := paypal.NewClient(cfg.PayPal)
	resendClient := email.NewResend(cfg.Resend)

	router := llm.NewRouter(
		llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIModel),
		llm.NewAnthropic(cfg.AnthropicAPIKey, cfg.ClaudeModel, cfg.ClaudeFallbackModel),
		llm.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiFallbackModel),
	)
	embedder := llm.NewOpenAIEmbedder(cfg.OpenAIAPIKey)

	authSvc := authservice.NewService(db, jwtMaker)
	accessSvc := accessservice.NewService(db, db, db, logger)
	counselorSvc := counselorservice.NewService(db, cacheRedis, logger)
	ragSvc := ragservice.NewService(db, embedder, logger)
	chatSvc := chatservice.NewService(db, accessSvc, counselorSvc, router, ragSvc, logger)
	trialSvc := trialservice.NewService(db, logger)
	campaignSvc := campaignservice.NewService(db, logger)
	paymentSvc := paymentservice.NewService(paypalClient, db, logger)
	newsletterSvc := newsletterservice.NewService(db, resendClient, logger)
	adminSvc := adminservice.NewService(db, logger)
	schedulerSvc := schedulerservice.NewService(db, logger)

	r := chi.NewRouter()
	RegisterRoutes(r, logger, &Services{
		Storage:    db,
		Auth:       authSvc,
		Access:     accessSvc,
		Counselor:  counselorSvc,
		Chat:       chatSvc,
		Trial:      trialSvc,
		Campaign:   campaignSvc,
		Payment:    paymentSvc,
		Newsletter: newsletterSvc,
		Admin:      adminSvc,
		Rag:        ragSvc,
		Line:       lineClient,
		PayPal:     paypalClient,
		Expiry:     &ExpiryTrigger{svc: schedulerSvc, ch: ch},
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      r,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if closeErr := a.ch.Close(); closeErr != nil {
			a.logger.Error("failed to close rabbitmq channel", slog.Any("err", closeErr))
		}
		if closeErr := a.conn.Close(); closeErr != nil {
			a.logger.Error("failed to close rabbitmq connection", slog.Any("err", closeErr))
		}
		if closeErr := a.db.Close(); closeErr != nil {
			a.logger.Error("failed to close storage", slog.Any("err", closeErr))
		}
		return err
	}
}
