// Package list отдаёт список издателей.
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

// Handler отдаёт издателей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает получение издателей.
type Service interface {
	Publishers(ctx context.Context) ([]models.Publisher, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Издатели
// @Tags Publishers
// @Produce  json
// @Success 200 {array} models.Publisher "Издатели"
// @Router /publishers [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.publisher.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	res, err := h.service.Publishers(r.Context())
	if err != nil {
		handlers.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"publishers": res,
	}))
}
