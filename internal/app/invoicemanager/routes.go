// Package invoicemanager собирает приложение и маршруты HTTP API.
package invoicemanager

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/invoice-manager/internal/config"
	"github.com/magabrotheeeer/invoice-manager/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/invoice-manager/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/invoice-manager/internal/http/handlers/auth/refresh"
	"github.com/magabrotheeeer/invoice-manager/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/invoice-manager/internal/http/handlers/invoice/create"
	"github.com/magabrotheeeer/invoice-manager/internal/http/handlers/invoice/draft"
	"github.com/magabrotheeeer/invoice-manager/internal/http/handlers/invoice/health"
	"github.com/magabrotheeeer/invoice-manager/internal/http/handlers/invoice/list"
	"github.com/magabrotheeeer/invoice-manager/internal/http/handlers/invoice/markpaid"
	"github.com/magabrotheeeer/invoice-manager/internal/http/handlers/invoice/read"
	"github.com/magabrotheeeer/invoice-manager/internal/http/handlers/invoice/remove"
	"github.com/magabrotheeeer/invoice-manager/internal/http/handlers/invoice/update"
	"github.com/magabrotheeeer/invoice-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/invoice-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/invoice-manager/internal/observability/metrics"
	authservice "github.com/magabrotheeeer/invoice-manager/internal/services/auth"
	invoiceservice "github.com/magabrotheeeer/invoice-manager/internal/services/invoice"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, tokens config.AuthTokens, maker jwt.Maker, authService *authservice.Service, invoiceService *invoiceservice.Service) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
		metrics.HTTPMetricsMiddleware,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/auth/signup", register.New(logger, authService, tokens.RefreshCookieName, tokens.RefreshTTL).ServeHTTP)
		r.Post("/auth/signin", login.New(logger, authService, tokens.RefreshCookieName, tokens.RefreshTTL).ServeHTTP)

		// Обновление токенов защищено refresh токеном из cookie
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RefreshMiddleware(maker, tokens.RefreshCookieName, logger))
			r.Post("/auth/refresh", refresh.New(logger, authService, tokens.RefreshCookieName, tokens.RefreshTTL).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(maker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/auth/logout", logout.New(logger, authService, tokens.RefreshCookieName).ServeHTTP)
			r.Get("/invoices", list.New(logger, invoiceService).ServeHTTP)
			r.Post("/invoices", create.New(logger, invoiceService).ServeHTTP)
			r.Post("/invoices/draft", draft.New(logger, invoiceService).ServeHTTP)
			r.Get("/invoices/{id}", read.New(logger, invoiceService).ServeHTTP)
			r.Patch("/invoices/{id}", update.New(logger, invoiceService).ServeHTTP)
			r.Delete("/invoices/{id}", remove.New(logger, invoiceService).ServeHTTP)
			r.Patch("/invoices/{id}/paid", markpaid.New(logger, invoiceService).ServeHTTP)
		})
	})

	r.Get("/health", health.New(logger).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
