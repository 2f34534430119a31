// Package promote назначает пользователя администратором.
package promote

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/chronicleink/newswave/internal/http/handlers"
	"github.com/chronicleink/newswave/internal/http/response"
)

// Handler назначает администратора.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает назначение администратора.
type Service interface {
	MakeAdmin(ctx context.Context, id string) error
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Назначить администратором
// @Tags Admin
// @Produce  json
// @Param id path string true "ID пользователя"
// @Success 200 {object} response.Response "Готово"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Router /admin/users/{id}/admin [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.promote"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if id == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing user id"))
		return
	}
	if err := h.service.MakeAdmin(r.Context(), id); err != nil {
		handlers.WriteError(w, r, log, err)
		return
	}

	log.Info("user promoted", slog.String("user", id))
	render.JSON(w, r, response.OK())
}
