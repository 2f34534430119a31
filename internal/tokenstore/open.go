package tokenstore

import (
	"context"
	"fmt"

	"github.com/chronicleink/newswave/internal/config"
)

// NewProvider выбирает реализацию по token_store.driver.
func NewProvider(ctx context.Context, cfg *config.Config) (Provider, error) {
	switch cfg.TokenStore.Driver {
	case config.DriverMemory, "":
		return NewMemoryProvider(), nil
	case config.DriverFile:
		return NewFileProvider(cfg.TokenStore.Path)
	case config.DriverSQLite:
		return NewSQLiteProvider(ctx, cfg.TokenStore.Path)
	case config.DriverRedis:
		return NewRedisProvider(ctx, cfg.RedisConnection)
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.TokenStore.Driver)
	}
}
