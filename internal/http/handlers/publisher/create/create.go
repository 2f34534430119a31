// Package create реализует добавление издателя администратором.
package create

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/chronicleink/newswave/internal/http/handlers"
	"github.com/chronicleink/newswave/internal/http/response"
	"github.com/chronicleink/newswave/internal/lib/sl"
	"github.com/chronicleink/newswave/internal/models"
	services "github.com/chronicleink/newswave/internal/services/content"
)

// Request — текстовые поля формы издателя.
type Request struct {
	Name string `validate:"required,max=100"`
}

// Handler обрабатывает добавление издателя.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает добавление издателя.
type Service interface {
	AddPublisher(ctx context.Context, name string, logo services.Image) (models.Publisher, error)
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
// @Summary Добавить издателя
// @Tags Admin
// @Accept  mpfd
// @Produce  json
// @Param name formData string true "Название"
// @Param logo formData file true "Логотип"
// @Success 201 {object} models.Publisher "Издатель добавлен"
// @Failure 403 {object} response.ErrorResponse "Нет прав администратора"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /admin/publishers [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.publisher.create"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	if err := r.ParseMultipartForm(handlers.MaxFormMemory); err != nil {
		log.Error("failed to parse form", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid form"))
		return
	}

	req := Request{Name: strings.TrimSpace(r.FormValue("name"))}
	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	file, header, err := r.FormFile("logo")
	if err != nil {
		log.Warn("logo missing", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("field Logo is a required field"))
		return
	}
	defer file.Close()

	p, err := h.service.AddPublisher(r.Context(), req.Name, services.Image{Filename: header.Filename, Body: file})
	if err != nil {
		handlers.WriteError(w, r, log, err)
		return
	}

	log.Info("publisher added", slog.String("name", p.Name))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"publisher": p,
	}))
}
