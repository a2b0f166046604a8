// Package create реализует HTTP-обработчик создания счета.
//
// Конечная точка принимает полный счет: все поля обязательны,
// счет создается сразу в статусе pending. Частично заполненные
// счета создаются через конечную точку черновиков.
package create

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/magabrotheeeer/invoice-manager/internal/http/middlewarectx"
	"github.com/magabrotheeeer/invoice-manager/internal/http/response"
	"github.com/magabrotheeeer/invoice-manager/internal/lib/sl"
	"github.com/magabrotheeeer/invoice-manager/internal/models"
	"github.com/magabrotheeeer/invoice-manager/internal/observability/metrics"
)

// Handler обрабатывает HTTP-запросы создания счета.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс бизнес-логики создания счета.
type Service interface {
	Create(ctx context.Context, ownerUID string, req models.DummyInvoice, status string) (*models.Invoice, error)
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Создание счета
// @Description Создает счет в статусе pending. Все поля обязательны.
// @Tags Invoices
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.StrictInvoice true "Данные счета"
// @Success 201 {object} map[string]any "Счет создан"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Невалидный access токен"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /invoices [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.invoice.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.StrictInvoice
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to decode request"))
		return
	}
	log.Info("request body decoded")

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	log.Info("all fields are validated")

	ownerUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || ownerUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	inv, err := h.service.Create(r.Context(), ownerUID, req.Dummy(), models.StatusPending)
	if err != nil {
		log.Error("failed to create invoice", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not create invoice"))
		return
	}

	log.Info("invoice created", slog.Int("id", inv.ID))
	metrics.ObserveInvoiceCreated(inv.Status)
	w.WriteHeader(http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(inv))
}
