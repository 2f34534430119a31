// Package page отдаёт представления страниц веб-фронта. Доступ к странице
// решают правила gate, подключённые на маршруте; сам обработчик только
// описывает страницу и текущего пользователя.
package page

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/chronicleink/newswave/internal/gate"
	"github.com/chronicleink/newswave/internal/http/response"
	"github.com/chronicleink/newswave/internal/models"
)

// View — описание страницы.
type View struct {
	Page     string              `json:"page"`
	User     *models.CurrentUser `json:"user"`
	Redirect string              `json:"redirect,omitempty"`
}

// Handler отдаёт одну страницу.
type Handler struct {
	log  *slog.Logger
	name string
}

// New создает Handler для страницы name.
func New(log *slog.Logger, name string) *Handler {
	return &Handler{
		log:  log,
		name: name,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.page"

	h.log.Debug("page requested",
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("page", h.name),
	)

	render.JSON(w, r, response.StatusOKWithData(View{
		Page:     h.name,
		User:     gate.UserFromContext(r.Context()),
		Redirect: r.URL.Query().Get("redirect"),
	}))
}
