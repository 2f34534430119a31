package tokenstore

import (
	"context"
	"time"
)

// WaitFor ждёт появления ключа, опрашивая хранилище не более maxTries раз
// с интервалом interval. Возвращает true, как только ключ найден, и false,
// если попытки исчерпаны или контекст отменён.
func WaitFor(ctx context.Context, s Store, key string, interval time.Duration, maxTries int) bool {
	if maxTries <= 0 {
		return false
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for try := 0; ; try++ {
		if v, err := s.Get(ctx, key); err == nil && v != "" {
			return true
		}
		if try+1 >= maxTries {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
		}
	}
}
