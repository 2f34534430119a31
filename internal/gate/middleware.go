package gate

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/chronicleink/newswave/internal/http/response"
	"github.com/chronicleink/newswave/internal/obs"
)

// Require возвращает middleware, применяющее правило к пользователю из
// контекста. Запросы страниц получают 303 на адрес перенаправления,
// запросы API получают JSON-ошибку с заголовком Location.
func Require(log *slog.Logger, metrics *obs.Metrics, rule Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "gate.Require"

			d := rule.Decide(UserFromContext(r.Context()), r.URL.RequestURI())
			metrics.GateDecision(rule.Name(), d.Allow)
			if d.Allow {
				next.ServeHTTP(w, r)
				return
			}

			log.Debug("access denied",
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.String("rule", rule.Name()),
				slog.String("redirect", d.Redirect),
			)

			if wantsHTML(r) {
				http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
				return
			}
			w.Header().Set("Location", d.Redirect)
			render.Status(r, statusFor(d.Reason))
			render.JSON(w, r, response.ErrorWithData(messageFor(d.Reason), map[string]string{"redirect": d.Redirect}))
		})
	}
}

func statusFor(reason Reason) int {
	switch reason {
	case ReasonUnauthenticated:
		return http.StatusUnauthorized
	case ReasonAuthenticated:
		return http.StatusConflict
	default:
		return http.StatusForbidden
	}
}

func messageFor(reason Reason) string {
	switch reason {
	case ReasonUnauthenticated:
		return "authentication required"
	case ReasonAuthenticated:
		return "already signed in"
	default:
		return "access denied"
	}
}

func wantsHTML(r *http.Request) bool {
	return !strings.HasPrefix(r.URL.Path, "/api/") && strings.Contains(r.Header.Get("Accept"), "text/html")
}
