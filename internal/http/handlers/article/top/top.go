// Package top отдаёт самые просматриваемые статьи.
package top

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

// Handler отдаёт список статей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает получение списка.
type Service interface {
	TopArticles(ctx context.Context) ([]models.Article, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Популярные статьи
// @Description Возвращает самые просматриваемые статьи.
// @Tags Articles
// @Produce  json
// @Success 200 {array} models.Article "Статьи"
// @Failure 503 {object} response.ErrorResponse "Бэкенд недоступен"
// @Router /articles/top [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.top"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	res, err := h.service.TopArticles(r.Context())
	if err != nil {
		handlers.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"articles": res,
	}))
}
