// Package create реализует отправку новой статьи на модерацию.
//
// Форма приходит как multipart: поля title, publisher, description, tags
// (несколько значений или одно через запятую) и обязательный файл image.
// Автором статьи становится текущий пользователь.
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

// Request — текстовые поля формы статьи.
type Request struct {
	Title       string   `validate:"required,max=200"`
	Publisher   string   `validate:"required"`
	Description string   `validate:"required"`
	Tags        []string `validate:"required,min=1"`
}

// Handler обрабатывает отправку статьи.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает отправку статьи.
type Service interface {
	SubmitArticle(ctx context.Context, d services.ArticleDraft) (models.Article, error)
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
// @Summary Отправить статью
// @Description Загружает обложку и отправляет статью на модерацию со статусом Pending.
// @Tags Articles
// @Accept  mpfd
// @Produce  json
// @Param title formData string true "Заголовок"
// @Param publisher formData string true "Издатель"
// @Param description formData string true "Текст"
// @Param tags formData []string true "Теги"
// @Param image formData file true "Обложка"
// @Success 201 {object} models.Article "Статья отправлена"
// @Failure 400 {object} response.ErrorResponse "Некорректная форма"
// @Failure 401 {object} response.ErrorResponse "Пользователь не вошёл"
// @Failure 413 {object} response.ErrorResponse "Слишком большой файл"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /articles [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.article.create"

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

	req := Request{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Publisher:   r.FormValue("publisher"),
		Description: r.FormValue("description"),
		Tags:        parseTags(r.MultipartForm.Value["tags"]),
	}
	if err := h.validate.Struct(req); err != nil {
		log.Warn("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		log.Warn("image missing", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.Error("field Image is a required field"))
		return
	}
	defer file.Close()

	article, err := h.service.SubmitArticle(r.Context(), services.ArticleDraft{
		Title:       req.Title,
		Publisher:   req.Publisher,
		Description: req.Description,
		Tags:        req.Tags,
		Image:       services.Image{Filename: header.Filename, Body: file},
	})
	if err != nil {
		handlers.WriteError(w, r, log, err)
		return
	}

	log.Info("article submitted", slog.String("title", article.Title))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"article": article,
	}))
}

func parseTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}
