// Package middlewarectx содержит HTTP middleware веб-фронта.
//
// InstanceMiddleware находит экземпляр браузера по cookie, дожидается окончания
// загрузки его сессии и кладёт в контекст запроса экземпляр и текущего
// пользователя. Правила доступа из пакета gate читают пользователя уже из контекста.
package middlewarectx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/chronicleink/newswave/internal/gate"
	"github.com/chronicleink/newswave/internal/http/response"
	"github.com/chronicleink/newswave/internal/lib/sl"
	"github.com/chronicleink/newswave/internal/portal"
)

const cookieMaxAge = 365 * 24 * 60 * 60

// Instances выдаёт экземпляр браузера по идентификатору.
type Instances interface {
	Get(ctx context.Context, id string) (*portal.Instance, error)
}

// InstanceOptions — параметры cookie и ожидания сессии.
type InstanceOptions struct {
	CookieName    string
	CookieSecure  bool
	SettleTimeout time.Duration
}

// InstanceMiddleware привязывает запрос к экземпляру браузера. Запрос без
// действительной cookie получает новый экземпляр. Пока сессия в CHECKING,
// запрос ждёт; по истечении SettleTimeout отвечает 503.
func InstanceMiddleware(log *slog.Logger, instances Instances, opts InstanceOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.InstanceMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			id := instanceID(r, opts.CookieName)
			if id == "" {
				id = portal.NewInstanceID()
				http.SetCookie(w, &http.Cookie{
					Name:     opts.CookieName,
					Value:    id,
					Path:     "/",
					MaxAge:   cookieMaxAge,
					HttpOnly: true,
					Secure:   opts.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
				log.Debug("new browser instance", sl.Instance(id))
			}

			inst, err := instances.Get(r.Context(), id)
			if err != nil {
				log.Error("failed to open browser instance", sl.Instance(id), sl.Err(err))
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, response.Error("internal error"))
				return
			}

			waitCtx := r.Context()
			if opts.SettleTimeout > 0 {
				var cancel context.CancelFunc
				waitCtx, cancel = context.WithTimeout(waitCtx, opts.SettleTimeout)
				defer cancel()
			}
			snap, err := inst.Machine.Wait(waitCtx)
			if err != nil {
				if errors.Is(r.Context().Err(), context.Canceled) {
					return
				}
				log.Warn("session still checking", sl.Instance(id), sl.Err(err))
				w.Header().Set("Retry-After", "1")
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, response.Error("session is still being checked"))
				return
			}

			ctx := portal.WithInstance(r.Context(), inst)
			ctx = gate.ContextWithUser(ctx, snap.User)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func instanceID(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}
