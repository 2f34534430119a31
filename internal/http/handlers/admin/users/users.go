// Package users отдаёт администратору постраничный список пользователей.
package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/chronicleink/newswave/internal/http/handlers"
	"github.com/chronicleink/newswave/internal/http/response"
	"github.com/chronicleink/newswave/internal/models"
)

// Handler отдаёт пользователей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает получение страницы пользователей.
type Service interface {
	Users(ctx context.Context, page, limit int) (models.UserPage, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Пользователи
// @Tags Admin
// @Produce  json
// @Param page query int false "Номер страницы"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} models.UserPage "Страница пользователей"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Router /admin/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	page, limit := handlers.Pagination(r)
	res, err := h.service.Users(r.Context(), page, limit)
	if err != nil {
		handlers.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(res))
}
