package newswave

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/chronicleink/newswave/internal/gate"
	"github.com/chronicleink/newswave/internal/http/handlers/admin/moderate"
	"github.com/chronicleink/newswave/internal/http/handlers/admin/promote"
	"github.com/chronicleink/newswave/internal/http/handlers/admin/users"
	articlecreate "github.com/chronicleink/newswave/internal/http/handlers/article/create"
	articlelist "github.com/chronicleink/newswave/internal/http/handlers/article/list"
	"github.com/chronicleink/newswave/internal/http/handlers/article/mine"
	"github.com/chronicleink/newswave/internal/http/handlers/article/premium"
	"github.com/chronicleink/newswave/internal/http/handlers/article/read"
	"github.com/chronicleink/newswave/internal/http/handlers/article/remove"
	"github.com/chronicleink/newswave/internal/http/handlers/article/top"
	"github.com/chronicleink/newswave/internal/http/handlers/auth/google"
	"github.com/chronicleink/newswave/internal/http/handlers/auth/login"
	"github.com/chronicleink/newswave/internal/http/handlers/auth/logout"
	"github.com/chronicleink/newswave/internal/http/handlers/auth/register"
	"github.com/chronicleink/newswave/internal/http/handlers/health"
	"github.com/chronicleink/newswave/internal/http/handlers/page"
	"github.com/chronicleink/newswave/internal/http/handlers/profile/update"
	publishercreate "github.com/chronicleink/newswave/internal/http/handlers/publisher/create"
	publisherlist "github.com/chronicleink/newswave/internal/http/handlers/publisher/list"
	"github.com/chronicleink/newswave/internal/http/handlers/session/current"
	"github.com/chronicleink/newswave/internal/http/middlewarectx"
	"github.com/chronicleink/newswave/internal/obs"
	"github.com/chronicleink/newswave/internal/portal"
	authservice "github.com/chronicleink/newswave/internal/services/auth"
	contentservice "github.com/chronicleink/newswave/internal/services/content"

	_ "github.com/chronicleink/newswave/internal/docs"
)

// Deps — зависимости маршрутов.
type Deps struct {
	Logger   *slog.Logger
	Metrics  *obs.Metrics
	Gatherer prometheus.Gatherer
	Registry *portal.Registry
	Auth     *authservice.AuthService
	Content  *contentservice.ContentService
	Limiter  *middlewarectx.Limiter
	Instance middlewarectx.InstanceOptions
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, d Deps) {
	logger := d.Logger

	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		d.Metrics.Instrument,
	)

	r.Get("/health", health.New(logger, d.Registry).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)

	guestOnly := gate.Require(logger, d.Metrics, gate.GuestOnly)
	authenticated := gate.Require(logger, d.Metrics, gate.Authenticated)
	admin := gate.Require(logger, d.Metrics, gate.Admin)
	premiumOnly := gate.Require(logger, d.Metrics, gate.Premium)

	// Всё ниже привязано к экземпляру браузера
	r.Group(func(r chi.Router) {
		r.Use(middlewarectx.InstanceMiddleware(logger, d.Registry, d.Instance))

		// Страницы
		r.Get(gate.LandingPath, page.New(logger, "home").ServeHTTP)
		r.With(guestOnly).Get(gate.LoginPath, page.New(logger, "login").ServeHTTP)
		r.With(guestOnly).Get("/register", page.New(logger, "register").ServeHTTP)
		r.With(authenticated).Get("/my-profile", page.New(logger, "profile").ServeHTTP)
		r.With(authenticated).Get("/my-articles", page.New(logger, "my-articles").ServeHTTP)
		r.With(authenticated).Get("/add-article", page.New(logger, "add-article").ServeHTTP)
		r.With(authenticated).Get(gate.SubscriptionPath, page.New(logger, "subscription").ServeHTTP)
		r.With(premiumOnly).Get("/premium-articles", page.New(logger, "premium-articles").ServeHTTP)
		r.With(admin).Get("/dashboard", page.New(logger, "dashboard").ServeHTTP)

		r.Route("/api/v1", func(r chi.Router) {
			// Открытые конечные точки
			r.Get("/session", current.New(logger, d.Auth).ServeHTTP)
			r.Get("/articles", articlelist.New(logger, d.Content).ServeHTTP)
			r.Get("/articles/top", top.New(logger, d.Content).ServeHTTP)
			r.Get("/articles/{id}", read.New(logger, d.Content).ServeHTTP)
			r.Get("/publishers", publisherlist.New(logger, d.Content).ServeHTTP)

			// Только для гостей
			r.Group(func(r chi.Router) {
				r.Use(d.Limiter.Middleware)
				r.Use(guestOnly)
				r.Post("/auth/login", login.New(logger, d.Auth).ServeHTTP)
				r.Post("/auth/register", register.New(logger, d.Auth).ServeHTTP)
				r.Post("/auth/google", google.New(logger, d.Auth).ServeHTTP)
			})

			r.Group(func(r chi.Router) {
				r.Use(authenticated)
				r.Post("/auth/logout", logout.New(logger, d.Auth).ServeHTTP)
				r.Patch("/profile", update.New(logger, d.Auth).ServeHTTP)
				r.Post("/articles", articlecreate.New(logger, d.Content).ServeHTTP)
				r.Get("/my-articles", mine.New(logger, d.Content).ServeHTTP)
				r.Delete("/my-articles/{id}", remove.New(logger, d.Content).ServeHTTP)
			})

			r.With(premiumOnly).Get("/premium-articles", premium.New(logger, d.Content).ServeHTTP)

			r.Route("/admin", func(r chi.Router) {
				r.Use(admin)
				r.Get("/articles", articlelist.New(logger, d.Content).ServeHTTP)
				r.Post("/articles/{id}/{action}", moderate.New(logger, d.Content).ServeHTTP)
				r.Get("/users", users.New(logger, d.Content).ServeHTTP)
				r.Post("/users/{id}/admin", promote.New(logger, d.Content).ServeHTTP)
				r.Post("/publishers", publishercreate.New(logger, d.Content).ServeHTTP)
			})
		})
	})
}
