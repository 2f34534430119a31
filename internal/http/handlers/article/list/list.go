// Package list реализует постраничный список статей.
//
// Тот же обработчик обслуживает ленту читателя и список модерации в панели
// администратора: бэкенд сам решает, какие статьи видит обладатель токена.
package list

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

// Handler отдаёт страницу статей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает получение страницы статей.
type Service interface {
	Articles(ctx context.Context, page, limit int) (models.ArticlePage, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список статей
// @Description Возвращает страницу статей. page и limit по умолчанию 1 и 10.
// @Tags Articles
// @Produce  json
// @Param page query int false "Номер страницы"
// @Param limit query int false "Размер страницы"
// @Success 200 {object} models.ArticlePage "Страница статей"
// @Failure 503 {object} response.ErrorResponse "Бэкенд недоступен"
// @Router /articles [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	page, limit := handlers.Pagination(r)
	res, err := h.service.Articles(r.Context(), page, limit)
	if err != nil {
		handlers.WriteError(w, r, log, err)
		return
	}

	log.Debug("articles listed", slog.Int("page", page), slog.Int("count", len(res.Articles)))
	render.JSON(w, r, response.StatusOKWithData(res))
}
