// Package newswave собирает веб-фронт портала: хранилище токенов, реестр
// экземпляров браузеров, сервисы и HTTP-сервер.
package newswave

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/chronicleink/newswave/internal/config"
	"github.com/chronicleink/newswave/internal/events"
	"github.com/chronicleink/newswave/internal/http/middlewarectx"
	"github.com/chronicleink/newswave/internal/identity"
	"github.com/chronicleink/newswave/internal/lib/sl"
	"github.com/chronicleink/newswave/internal/obs"
	"github.com/chronicleink/newswave/internal/portal"
	authservice "github.com/chronicleink/newswave/internal/services/auth"
	contentservice "github.com/chronicleink/newswave/internal/services/content"
	"github.com/chronicleink/newswave/internal/tokenstore"
	"github.com/chronicleink/newswave/internal/upload"
)

const limiterTTL = 10 * time.Minute

type App struct {
	server    *http.Server
	logger    *slog.Logger
	stores    tokenstore.Provider
	publisher events.Publisher
	registry  *portal.Registry
	limiter   *middlewarectx.Limiter
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.newswave.New"

	stores, err := tokenstore.NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.RabbitMQ.URL != "" {
		p, err := events.Dial(ctx, cfg.RabbitMQ.URL, cfg.Exchange)
		if err != nil {
			logger.Warn("session events disabled", sl.Op(op), sl.Err(err))
		} else {
			publisher = p
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := obs.NewMetrics(reg)

	registry := portal.NewRegistry(logger, portal.Options{
		Backend:        cfg.Backend,
		PollInterval:   cfg.PollInterval,
		MaxPolls:       cfg.MaxPolls,
		IdleTTL:        cfg.IdleTTL,
		RestoreTimeout: cfg.TimeoutIdentity,
	}, stores, identity.NewFirebase(cfg.Identity), publisher, metrics)

	uploader := upload.New(cfg.Upload)
	limiter := middlewarectx.NewLimiter(logger, cfg.RPS, cfg.Burst, cfg.CookieName)

	router := chi.NewRouter()
	RegisterRoutes(router, Deps{
		Logger:   logger,
		Metrics:  metrics,
		Gatherer: reg,
		Registry: registry,
		Auth:     authservice.NewAuthService(logger, uploader, cfg.SettleTimeout),
		Content:  contentservice.NewContentService(logger, uploader),
		Limiter:  limiter,
		Instance: middlewarectx.InstanceOptions{
			CookieName:    cfg.CookieName,
			CookieSecure:  cfg.CookieSecure,
			SettleTimeout: cfg.SettleTimeout,
		},
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:    srv,
		logger:    logger,
		stores:    stores,
		publisher: publisher,
		registry:  registry,
		limiter:   limiter,
	}, nil
}

// Handler возвращает корневой обработчик сервера.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

func (a *App) Run(ctx context.Context) error {
	go a.registry.Run(ctx)
	go a.cleanupLimiter(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	const op = "app.newswave.close"

	a.registry.Close()
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("failed to close event publisher", sl.Op(op), sl.Err(err))
	}
	if err := a.stores.Close(); err != nil {
		a.logger.Warn("failed to close token stores", sl.Op(op), sl.Err(err))
	}
}

func (a *App) cleanupLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.limiter.Cleanup(limiterTTL)
		}
	}
}
