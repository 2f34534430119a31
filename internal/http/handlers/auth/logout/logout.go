// Package logout реализует выход пользователя.
package logout

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/chronicleink/newswave/internal/http/response"
	"github.com/chronicleink/newswave/internal/lib/sl"
)

// Handler обрабатывает выход.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает выход пользователя.
type Service interface {
	SignOut(ctx context.Context) error
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Выход
// @Description Завершает сессию. Сессионный токен удаляется даже при ошибке провайдера.
// @Tags Auth
// @Produce  json
// @Success 200 {object} response.Response "Сессия завершена"
// @Failure 401 {object} response.ErrorResponse "Пользователь не вошёл"
// @Router /auth/logout [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.logout"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	// Локальная сессия к этому моменту уже очищена, поэтому ошибка
	// провайдера клиенту не возвращается.
	if err := h.service.SignOut(r.Context()); err != nil {
		log.Warn("sign out finished with provider error", sl.Err(err))
	}

	log.Info("signed out")
	render.JSON(w, r, response.OK())
}
