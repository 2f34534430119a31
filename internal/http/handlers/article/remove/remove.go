// Package remove удаляет статью текущего пользователя.
package remove

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

// Handler удаляет статью.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает удаление собственной статьи.
type Service interface {
	DeleteMyArticle(ctx context.Context, id string) error
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Удалить мою статью
// @Tags Articles
// @Produce  json
// @Param id path string true "ID статьи"
// @Success 200 {object} response.Response "Статья удалена"
// @Failure 401 {object} response.ErrorResponse "Пользователь не вошёл"
// @Failure 404 {object} response.ErrorResponse "Статья не найдена"
// @Router /my-articles/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	id := chi.URLParam(r, "id")
	if id == "" {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("missing article id"))
		return
	}

	if err := h.service.DeleteMyArticle(r.Context(), id); err != nil {
		handlers.WriteError(w, r, log, err)
		return
	}

	log.Info("article deleted", slog.String("article", id))
	render.JSON(w, r, response.OK())
}
