// Package moderate реализует действия администратора над статьёй:
// одобрение, отклонение с причиной, удаление и перевод в премиум.
package moderate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/chronicleink/newswave/internal/http/handlers"
	"github.com/chronicleink/newswave/internal/http/response"
	"github.com/chronicleink/newswave/internal/lib/sl"
	services "github.com/chronicleink/newswave/internal/services/content"
)

// Request содержит причину отклонения.
type Request struct {
	Reason string `json:"reason" validate:"max=500"`
}

// Handler обрабатывает модерацию.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает модерацию статьи.
type Service interface {
	Moderate(ctx context.Context, id string, action services.ModerationAction, reason string) error
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: handlers.NewValidator(),
	}
}

// ServeHTTP godoc
// @Summary Модерация статьи
// @Description action: approve, decline, delete или premium. Для decline нужна причина.
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param id path string true "ID статьи"
// @Param action path string true "Действие"
// @Param request body Request false "Причина отклонения"
// @Success 200 {object} response.Response "Готово"
// @Failure 400 {object} response.ErrorResponse "Неизвестное действие"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 422 {object} response.ErrorResponse "Нет причины отклонения"
// @Router /admin/articles/{id}/{action} [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.moderate"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	action, err := services.ParseModerationAction(chi.URLParam(r, "action"))
	if err != nil || id == "" {
		log.Warn("bad moderation request", slog.String("article", id), sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("unknown action"))
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	if action == services.ActionDecline && req.Reason == "" {
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("field Reason is a required field"))
		return
	}

	if err := h.service.Moderate(r.Context(), id, action, req.Reason); err != nil {
		handlers.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.OK())
}
