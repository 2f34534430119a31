// Package mine отдаёт статьи текущего пользователя.
package mine

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

// Handler отдаёт статьи автора.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает получение статей текущего пользователя.
type Service interface {
	MyArticles(ctx context.Context) ([]models.Article, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Мои статьи
// @Description Возвращает статьи текущего пользователя со статусами модерации.
// @Tags Articles
// @Produce  json
// @Success 200 {array} models.Article "Статьи"
// @Failure 401 {object} response.ErrorResponse "Пользователь не вошёл"
// @Router /my-articles [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.mine"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	res, err := h.service.MyArticles(r.Context())
	if err != nil {
		handlers.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"articles": res,
	}))
}
