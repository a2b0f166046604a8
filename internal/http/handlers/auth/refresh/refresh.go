// Package refresh реализует HTTP-обработчик обновления пары токенов.
//
// Обработчик работает за RefreshMiddleware: к моменту вызова refresh токен
// уже проверен криптографически, из контекста берутся идентификатор
// пользователя и исходный токен для сверки с сохраненным хешем.
package refresh

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/invoice-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/invoice-manager/internal/http/response"
	"github.com/magabrotheeeer/invoice-manager/internal/lib/sl"
	"github.com/magabrotheeeer/invoice-manager/internal/observability/metrics"
	"github.com/magabrotheeeer/invoice-manager/internal/services/auth"
)

// Handler обрабатывает HTTP-запросы обновления токенов.
type Handler struct {
	log        *slog.Logger
	service    Service
	cookieName string
	refreshTTL time.Duration
}

// Service описывает интерфейс бизнес-логики обновления токенов.
type Service interface {
	Refresh(ctx context.Context, userUID, rawToken string) (*auth.Result, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, cookieName string, refreshTTL time.Duration) *Handler {
	return &Handler{
		log:        log,
		service:    service,
		cookieName: cookieName,
		refreshTTL: refreshTTL,
	}
}

// ServeHTTP godoc
// @Summary Обновление пары токенов
// @Description Выпускает новую пару токенов по refresh токену из cookie.
// @Description Старый refresh токен становится недействительным.
// @Tags Auth
// @Produce  json
// @Success 200 {object} map[string]any "Новая пара токенов"
// @Failure 401 {object} response.ErrorResponse "Токен отозван или не совпадает с сохраненным"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/refresh [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.refresh"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	rawToken, ok := r.Context().Value(middlewarectx.RawRefreshToken).(string)
	if !ok || rawToken == "" {
		log.Error("refresh token not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	res, err := h.service.Refresh(r.Context(), userUID, rawToken)
	if err != nil {
		if errors.Is(err, auth.ErrRefreshDenied) {
			log.Error("refresh denied", sl.Err(err))
			metrics.ObserveAuthOperation("refresh", "denied")
			w.WriteHeader(http.StatusUnauthorized)
			render.JSON(w, r, response.Error("refresh denied"))
			return
		}
		log.Error("refresh failed", sl.Err(err))
		metrics.ObserveAuthOperation("refresh", "error")
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to refresh tokens"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    res.Tokens.RefreshToken,
		Path:     "/",
		MaxAge:   int(h.refreshTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info("tokens refreshed", slog.String("uid", userUID))
	metrics.ObserveAuthOperation("refresh", "ok")
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"user":         res.User,
		"access_token": res.Tokens.AccessToken,
	}))
}
