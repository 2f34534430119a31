// Package login реализует HTTP-обработчик входа по email и паролю.
//
// Обработчик валидирует учетные данные, выполняет вход через сервис
// аутентификации и возвращает состояние сессии после её загрузки.
package login

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

// Request — учетные данные для входа.
type Request struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Handler обрабатывает запросы на вход.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает вход пользователя.
type Service interface {
	SignIn(ctx context.Context, email, password string) (session.Snapshot, error)
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
// @Summary Вход по email и паролю
// @Description Выполняет вход и возвращает состояние сессии с текущим пользователем.
// @Tags Auth
// @Accept  json
// @Produce  json
// @Param request body Request true "Учетные данные"
// @Success 200 {object} handlers.SessionView "Сессия"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 401 {object} response.ErrorResponse "Неверные учетные данные"
// @Failure 409 {object} response.ErrorResponse "Пользователь уже вошёл"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 503 {object} response.ErrorResponse "Сеть недоступна"
// @Router /auth/login [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.login"

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

	snap, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		handlers.WriteError(w, r, log, err)
		return
	}

	log.Info("signed in", slog.String("state", snap.State.String()))
	render.JSON(w, r, response.StatusOKWithData(handlers.NewSessionView(snap)))
}
