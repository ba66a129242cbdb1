// Package counselorbackend предоставляет маршруты для основного приложения.
package counselorbackend

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	adminmetrics "github.com/kokoroai/counselor-backend/internal/http/handlers/admin/metrics"
	adminnewsletter "github.com/kokoroai/counselor-backend/internal/http/handlers/admin/newslettersend"
	adminnotify "github.com/kokoroai/counselor-backend/internal/http/handlers/admin/notifyexpiry"
	adminrag "github.com/kokoroai/counselor-backend/internal/http/handlers/admin/ragupload"
	adminusers "github.com/kokoroai/counselor-backend/internal/http/handlers/admin/users"
	accessstate "github.com/kokoroai/counselor-backend/internal/http/handlers/access/state"
	"github.com/kokoroai/counselor-backend/internal/http/handlers/auth/login"
	"github.com/kokoroai/counselor-backend/internal/http/handlers/auth/register"
	campaignredeem "github.com/kokoroai/counselor-backend/internal/http/handlers/campaign/redeem"
	chatsend "github.com/kokoroai/counselor-backend/internal/http/handlers/chat/send"
	conversationlist "github.com/kokoroai/counselor-backend/internal/http/handlers/conversation/list"
	conversationmessages "github.com/kokoroai/counselor-backend/internal/http/handlers/conversation/messages"
	conversationremove "github.com/kokoroai/counselor-backend/internal/http/handlers/conversation/remove"
	counselorlist "github.com/kokoroai/counselor-backend/internal/http/handlers/counselor/list"
	counselorread "github.com/kokoroai/counselor-backend/internal/http/handlers/counselor/read"
	"github.com/kokoroai/counselor-backend/internal/http/handlers/health"
	linewebhook "github.com/kokoroai/counselor-backend/internal/http/handlers/line/webhook"
	newslettersubscribe "github.com/kokoroai/counselor-backend/internal/http/handlers/newsletter/subscribe"
	paymentcapture "github.com/kokoroai/counselor-backend/internal/http/handlers/payment/capture"
	paymentcreate "github.com/kokoroai/counselor-backend/internal/http/handlers/payment/createorder"
	paymentwebhook "github.com/kokoroai/counselor-backend/internal/http/handlers/payment/webhook"
	triallinelink "github.com/kokoroai/counselor-backend/internal/http/handlers/trial/linelink"
	"github.com/kokoroai/counselor-backend/internal/http/middlewarectx"
	"github.com/kokoroai/counselor-backend/internal/lineapi"
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
	trialservice "github.com/kokoroai/counselor-backend/internal/services/trial"
	"github.com/kokoroai/counselor-backend/internal/storage/repository"
)

// Services объединяет сервисы, используемые маршрутами приложения.
type Services struct {
	Storage    *repository.Storage
	Auth       *authservice.Service
	Access     *accessservice.Service
	Counselor  *counselorservice.Service
	Chat       *chatservice.Service
	Trial      *trialservice.Service
	Campaign   *campaignservice.Service
	Payment    *paymentservice.Service
	Newsletter *newsletterservice.Service
	Admin      *adminservice.Service
	Rag        *ragservice.Service
	Line       *lineapi.Client
	PayPal     *paypal.Client
	Expiry     adminnotify.Service
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s *Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	limiter := rate.NewLimiter(50, 100)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/register", register.New(logger, s.Auth).ServeHTTP)
		r.Post("/auth/login", login.New(logger, s.Auth).ServeHTTP)
		r.Post("/newsletter/subscribe", newslettersubscribe.New(logger, s.Newsletter).ServeHTTP)
		r.Post("/line/webhook", linewebhook.New(logger, s.Line, s.Trial).ServeHTTP)
		r.Post("/payment/webhook", paymentwebhook.New(logger, s.PayPal, s.Payment).ServeHTTP)
		r.Get("/health", health.New(logger, s.Storage).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(s.Auth, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger, limiter))

			r.Get("/access/state", accessstate.New(logger, s.Access).ServeHTTP)
			r.Get("/counselors", counselorlist.New(logger, s.Counselor).ServeHTTP)
			r.Get("/counselors/{id}", counselorread.New(logger, s.Counselor).ServeHTTP)
			r.Post("/chat", chatsend.New(logger, s.Chat).ServeHTTP)
			r.Get("/conversations", conversationlist.New(logger, s.Chat).ServeHTTP)
			r.Get("/conversations/{id}/messages", conversationmessages.New(logger, s.Chat).ServeHTTP)
			r.Delete("/conversations/{id}", conversationremove.New(logger, s.Chat).ServeHTTP)
			r.Post("/trial/line", triallinelink.New(logger, s.Trial).ServeHTTP)
			r.Post("/campaign/redeem", campaignredeem.New(logger, s.Campaign).ServeHTTP)
			r.Post("/payment/orders", paymentcreate.New(logger, s.Payment).ServeHTTP)
			r.Post("/payment/capture", paymentcapture.New(logger, s.Payment).ServeHTTP)

			// Административная группа
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnlyMiddleware(logger))

				r.Get("/admin/users", adminusers.New(logger, s.Admin).ServeHTTP)
				r.Get("/admin/metrics", adminmetrics.New(logger, s.Admin).ServeHTTP)
				r.Post("/admin/newsletter", adminnewsletter.New(logger, s.Newsletter).ServeHTTP)
				r.Post("/admin/rag/documents", adminrag.New(logger, s.Rag).ServeHTTP)
				r.Post("/admin/notifications/expiry", adminnotify.New(logger, s.Expiry).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
