package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/invoice-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/invoice-manager/internal/http/response"
	"github.com/magabrotheeeer/invoice-manager/internal/lib/sl"
	"github.com/magabrotheeeer/invoice-manager/internal/models"
	"github.com/magabrotheeeer/invoice-manager/internal/services/invoice"
)

// Handler обрабатывает HTTP-запросы чтения одного счета.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения счета.
type Service interface {
	Read(ctx context.Context, id int, callerUID string) (*models.Invoice, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Чтение счета
// @Description Возвращает счет по идентификатору. Чужие счета недоступны.
// @Tags Invoices
// @Produce  json
// @Security BearerAuth
// @Param id path int true "Идентификатор счета"
// @Success 200 {object} map[string]any "Счет"
// @Failure 401 {object} response.ErrorResponse "Невалидный access токен"
// @Failure 403 {object} response.ErrorResponse "Счет принадлежит другому пользователю"
// @Failure 404 {object} response.ErrorResponse "Счет не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /invoices/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.invoice.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		log.Error("invalid id format", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	callerUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || callerUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	inv, err := h.service.Read(r.Context(), id, callerUID)
	if err != nil {
		switch {
		case errors.Is(err, invoice.ErrNotFound):
			log.Error("invoice not found", slog.Int("id", id))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("invoice not found"))
		case errors.Is(err, invoice.ErrNotOwner):
			log.Error("invoice belongs to another user", slog.Int("id", id))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("access denied"))
		default:
			log.Error("failed to read invoice", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to read invoice"))
		}
		return
	}

	log.Info("read invoice", slog.Int("id", id))
	render.JSON(w, r, response.StatusOKWithData(inv))
}
