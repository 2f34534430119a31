package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/render"
	"golang.org/x/time/rate"

	"github.com/chronicleink/newswave/internal/http/response"
)

// Limiter ограничивает частоту запросов отдельно для каждого экземпляра
// браузера, а при отсутствии cookie для каждого адреса клиента.
type Limiter struct {
	log        *slog.Logger
	rps        rate.Limit
	burst      int
	cookieName string

	mu      sync.Mutex
	clients map[string]*client
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLimiter создает ограничитель с rps запросов в секунду и запасом burst.
func NewLimiter(log *slog.Logger, rps float64, burst int, cookieName string) *Limiter {
	return &Limiter{
		log:        log,
		rps:        rate.Limit(rps),
		burst:      burst,
		cookieName: cookieName,
		clients:    make(map[string]*client),
	}
}

// Middleware отвечает 429, если ключ запроса исчерпал лимит.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := l.key(r)
		if !l.allow(key, time.Now()) {
			l.log.Warn("too many requests", slog.String("key", key))
			render.Status(r, http.StatusTooManyRequests)
			render.JSON(w, r, response.Error("too many requests"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *Limiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// Cleanup забывает ключи, не встречавшиеся дольше ttl.
func (l *Limiter) Cleanup(ttl time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	deadline := time.Now().Add(-ttl)
	n := 0
	for key, c := range l.clients {
		if c.lastSeen.Before(deadline) {
			delete(l.clients, key)
			n++
		}
	}
	return n
}

func (l *Limiter) key(r *http.Request) string {
	if id := instanceID(r, l.cookieName); id != "" {
		return "instance:" + id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}
