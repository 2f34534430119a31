// Package health отвечает на проверки живости сервиса.
package health

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/chronicleink/newswave/internal/http/response"
)

// Instances сообщает число экземпляров браузеров в памяти.
type Instances interface {
	Len() int
}

type Handler struct {
	log       *slog.Logger
	instances Instances
}

func New(log *slog.Logger, instances Instances) *Handler {
	return &Handler{
		log:       log,
		instances: instances,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status":    "ok",
		"instances": h.instances.Len(),
	}))
}
