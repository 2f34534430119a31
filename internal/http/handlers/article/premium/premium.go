// Package premium отдаёт премиум-статьи.
package premium

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
	PremiumArticles(ctx context.Context) ([]models.Article, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Премиум-статьи
// @Description Возвращает премиум-статьи. Доступно только пользователям с активной подпиской.
// @Tags Articles
// @Produce  json
// @Success 200 {array} models.Article "Статьи"
// @Failure 403 {object} response.ErrorResponse "Нет активной подписки"
// @Failure 503 {object} response.ErrorResponse "Бэкенд недоступен"
// @Router /premium-articles [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.premium"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	res, err := h.service.PremiumArticles(r.Context())
	if err != nil {
		handlers.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"articles": res,
	}))
}
