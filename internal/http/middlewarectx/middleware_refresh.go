package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/invoice-manager/internal/http/response"
	"github.com/magabrotheeeer/invoice-manager/internal/lib/jwt"
	"github.com/magabrotheeeer/invoice-manager/internal/lib/sl"
)

// RefreshMiddleware возвращает HTTP middleware, который проверяет refresh токен
// в httpOnly cookie с именем cookieName.
//
// Если токен валиден, добавляет идентификатор пользователя, email и исходный
// токен в контекст запроса. Исходный токен нужен обработчику обновления,
// чтобы сверить его с хешем, сохранённым у пользователя.
func RefreshMiddleware(maker jwt.Maker, cookieName string, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.RefreshMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				log.Error("missing refresh token cookie")
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("missing refresh token"))
				return
			}

			claims, err := maker.ParseRefresh(cookie.Value)
			if err != nil {
				log.Error("invalid or expired refresh token", sl.Err(err))
				render.Status(r, http.StatusUnauthorized)
				render.JSON(w, r, response.Error("invalid or expired refresh token"))
				return
			}
			ctx := context.WithValue(r.Context(), UserUID, claims.UserUID)
			ctx = context.WithValue(ctx, UserEmail, claims.Email)
			ctx = context.WithValue(ctx, RawRefreshToken, cookie.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
