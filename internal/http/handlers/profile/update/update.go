// Package update реализует изменение профиля: имени и аватара.
package update

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

// Request — новые данные профиля.
type Request struct {
	Name string `json:"name" validate:"required,max=100"`
}

// Handler обрабатывает изменение профиля.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает изменение профиля.
type Service interface {
	UpdateProfile(ctx context.Context, name string, avatar *services.Image) (session.Snapshot, error)
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
// @Summary Изменить профиль
// @Description Меняет имя и, если передан файл image, аватар пользователя.
// @Tags Profile
// @Accept  json,mpfd
// @Produce  json
// @Param request body Request true "Данные профиля"
// @Success 200 {object} handlers.SessionView "Сессия"
// @Failure 401 {object} response.ErrorResponse "Пользователь не вошёл"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /profile [patch]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.profile.update"

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
		req.Name = r.FormValue("name")
		file, header, err := r.FormFile("image")
		switch {
		case err == nil:
			defer file.Close()
			avatar = &services.Image{Filename: header.Filename, Body: file}
		case !errors.Is(err, http.ErrMissingFile):
			log.Error("failed to read image", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("invalid image"))
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

	snap, err := h.service.UpdateProfile(r.Context(), req.Name, avatar)
	if err != nil {
		handlers.WriteError(w, r, log, err)
		return
	}

	log.Info("profile updated")
	render.JSON(w, r, response.StatusOKWithData(handlers.NewSessionView(snap)))
}
