// Package read отдаёт статью по идентификатору.
package read

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/chronicleink/newswave/internal/http/handlers"
	"github.com/chronicleink/newswave/internal/http/response"
	"github.com/chronicleink/newswave/internal/models"
)

// Handler отдаёт статью.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение статьи.
type Service interface {
	Article(ctx context.Context, id string) (models.Article, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Статья
// @Description Возвращает статью по идентификатору.
// @Tags Articles
// @Produce  json
// @Param id path string true "ID статьи"
// @Success 200 {object} models.Article "Статья"
// @Failure 404 {object} response.ErrorResponse "Статья не найдена"
// @Router /articles/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.read"

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

	res, err := h.service.Article(r.Context(), id)
	if err != nil {
		handlers.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"article": res,
	}))
}
