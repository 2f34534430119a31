// Package current отдаёт состояние сессии экземпляра и текущего пользователя.
package current

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/chronicleink/newswave/internal/http/handlers"
	"github.com/chronicleink/newswave/internal/http/response"
	"github.com/chronicleink/newswave/internal/session"
)

// Handler отдаёт состояние сессии.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает чтение состояния сессии.
type Service interface {
	Current(ctx context.Context) (session.Snapshot, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Текущая сессия
// @Description Возвращает состояние загрузки сессии и текущего пользователя, если он есть.
// @Tags Session
// @Produce  json
// @Success 200 {object} handlers.SessionView "Сессия"
// @Failure 503 {object} response.ErrorResponse "Сессия ещё загружается"
// @Router /session [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.session.current"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	snap, err := h.service.Current(r.Context())
	if err != nil {
		handlers.WriteError(w, r, log, err)
		return
	}
	render.JSON(w, r, response.StatusOKWithData(handlers.NewSessionView(snap)))
}
