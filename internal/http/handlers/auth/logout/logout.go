// Package logout реализует HTTP-обработчик выхода из системы:
// сбрасывает хэш refresh-токена и очищает refresh cookie.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/invoice-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/invoice-manager/internal/http/response"
	"github.com/magabrotheeeer/invoice-manager/internal/lib/sl"
)

// Handler обрабатывает HTTP-запросы выхода из системы.
type Handler struct {
	log        *slog.Logger
	service    Service
	cookieName string
}

// Service описывает интерфейс бизнес-логики выхода.
type Service interface {
	Logout(ctx context.Context, userUID string) error
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service, cookieName string) *Handler {
	return &Handler{
		log:        log,
		service:    service,
		cookieName: cookieName,
	}
}

// ServeHTTP godoc
// @Summary Выход из системы
// @Description Сбрасывает сохраненный refresh токен пользователя и очищает cookie.
// @Description Повторный выход проходит без ошибки.
// @Tags Auth
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} map[string]any "Выход выполнен"
// @Failure 401 {object} response.ErrorResponse "Невалидный access токен"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

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

	if err := h.service.Logout(r.Context(), userUID); err != nil {
		log.Error("logout failed", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to logout"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	log.Info("logout success", slog.String("uid", userUID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"message": "logged out",
	}))
}
