// Package register реализует HTTP-обработчик регистрации.
//
// Принимает JSON или multipart-форму с необязательным файлом аватара в поле photo.
package register

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/chronicleink/newswave/internal/http/handlers"
	"github.com/chronicleink/newswave/internal/http/response"
	"github.com/chronicleink/newswave/internal/lib/sl"
	services "github.com/chronicleink/newswave/internal/services/auth"
	"github.com/chronicleink/newswave/internal/session"
)

// Request — данные формы регистрации.
type Request struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,password"`
}

// Handler обрабатывает регистрацию.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает регистрацию пользователя.
type Service interface {
	Register(ctx context.Context, in services.SignUp) (session.Snapshot, error)
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
// @Summary Регистрация
// @Description Создает аккаунт у провайдера идентификации и запись пользователя на бэкенде.
// @Tags Auth
// @Accept  json,mpfd
// @Produce  json
// @Param request body Request true "Данные регистрации"
// @Success 200 {object} handlers.SessionView "Сессия"
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 409 {object} response.ErrorResponse "Аккаунт уже существует"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /auth/register [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.auth.register"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	var avatar *services.Image

	if handlers.IsMultipart(r) {
		if err := r.ParseMultipartForm(handlers.MaxFormMemory); err != nil {
			log.Error("failed to parse form", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid form"))
			return
		}
		req = Request{
			Name:     r.FormValue("name"),
			Email:    r.FormValue("email"),
			Password: r.FormValue("password"),
		}
		file, header, err := r.FormFile("photo")
		switch {
		case err == nil:
			defer file.Close()
			avatar = &services.Image{Filename: header.Filename, Body: file}
		case !errors.Is(err, http.ErrMissingFile):
			log.Error("failed to read photo", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid photo"))
			return
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
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

	snap, err := h.service.Register(r.Context(), services.SignUp{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Avatar:   avatar,
	})
	if err != nil {
		handlers.WriteError(w, r, log, err)
		return
	}

	log.Info("registered", slog.String("state", snap.State.String()))
	render.JSON(w, r, response.StatusOKWithData(handlers.NewSessionView(snap)))
}
