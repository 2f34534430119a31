// Package google реализует вход через Google по ID-токену, полученному клиентом.
package google

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/chronicleink/newswave/internal/http/handlers"
	"github.com/chronicleink/newswave/internal/http/response"
	"github.com/chronicleink/newswave/internal/lib/sl"
	"github.com/chronicleink/newswave/internal/session"
)

// Request содержит ID-токен Google.
type Request struct {
	IDToken string `json:"id_token" validate:"required"`
}

// Handler обрабатывает вход через Google.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает вход через Google.
type Service interface {
	GoogleSignIn(ctx context.Context, googleIDToken string) (session.Snapshot, error)
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: handlers.NewValidator(),
	}
}

// ServeHTTP godoc
// @Summary Вход через Google
// @Description Выполняет вход по ID-токену Google. Новый пользователь регистрируется на бэкенде.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "ID-токен Google"
// @Success 200 {object} handlers.SessionView "Сессия"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Токен отклонён"
// @Router /auth/google [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.google"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	snap, err := h.service.GoogleSignIn(r.Context(), req.IDToken)
	if err != nil {
		handlers.WriteError(w, r, log, err)
		return
	}

	log.Info("signed in with google", slog.String("state", snap.State.String()))
	render.JSON(w, r, response.StatusOKWithData(handlers.NewSessionView(snap)))
}
