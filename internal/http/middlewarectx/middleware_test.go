package middlewarectx_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicleink/newswave/internal/config"
	"github.com/chronicleink/newswave/internal/gate"
	"github.com/chronicleink/newswave/internal/http/middlewarectx"
	"github.com/chronicleink/newswave/internal/models"
	"github.com/chronicleink/newswave/internal/portal"
	"github.com/chronicleink/newswave/internal/tokenstore"
)

type nopProvider struct{}

func (nopProvider) SignUp(context.Context, string, string) (models.IdentityAssertion, error) {
	return models.IdentityAssertion{}, nil
}

func (nopProvider) SignInWithPassword(context.Context, string, string) (models.IdentityAssertion, error) {
	return models.IdentityAssertion{}, nil
}

func (nopProvider) SignInWithIdp(context.Context, string, string) (models.IdentityAssertion, error) {
	return models.IdentityAssertion{}, nil
}

func (nopProvider) UpdateProfile(context.Context, string, string, string) (models.IdentityAssertion, error) {
	return models.IdentityAssertion{}, nil
}

func (nopProvider) Refresh(context.Context, string) (models.IdentityAssertion, error) {
	return models.IdentityAssertion{}, nil
}

func (nopProvider) SignOut(context.Context, string) error { return nil }

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func newRegistry(t *testing.T) *portal.Registry {
	t.Helper()
	r := portal.NewRegistry(newNoopLogger(), portal.Options{
		Backend:      config.Backend{BaseURL: "http://127.0.0.1:1"},
		PollInterval: time.Millisecond,
		MaxPolls:     1,
	}, tokenstore.NewMemoryProvider(), nopProvider{}, nil, nil)
	t.Cleanup(r.Close)
	return r
}

var opts = middlewarectx.InstanceOptions{CookieName: "nw_sid", SettleTimeout: time.Second}

func TestInstanceMiddleware_IssuesCookie(t *testing.T) {
	registry := newRegistry(t)

	var gotInstance *portal.Instance
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inst, err := portal.FromContext(r.Context())
		require.NoError(t, err)
		gotInstance = inst
		assert.Nil(t, gate.UserFromContext(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
	h := middlewarectx.InstanceMiddleware(newNoopLogger(), registry, opts)(next)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/session", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "nw_sid", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	require.NotNil(t, gotInstance)
	assert.Equal(t, cookies[0].Value, gotInstance.ID)
}

func TestInstanceMiddleware_ReusesCookie(t *testing.T) {
	registry := newRegistry(t)
	id := portal.NewInstanceID()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inst, err := portal.FromContext(r.Context())
		require.NoError(t, err)
		assert.Equal(t, id, inst.ID)
	})
	h := middlewarectx.InstanceMiddleware(newNoopLogger(), registry, opts)(next)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "nw_sid", Value: id})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Empty(t, rec.Result().Cookies())
	}
	assert.Equal(t, 1, registry.Len())
}

func TestInstanceMiddleware_ReplacesInvalidCookie(t *testing.T) {
	registry := newRegistry(t)
	h := middlewarectx.InstanceMiddleware(newNoopLogger(), registry, opts)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "nw_sid", Value: "../../etc/passwd"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.NotEqual(t, "../../etc/passwd", cookies[0].Value)
}

type failingInstances struct{}

func (failingInstances) Get(context.Context, string) (*portal.Instance, error) {
	return nil, errors.New("store unavailable")
}

func TestInstanceMiddleware_RegistryError(t *testing.T) {
	called := false
	h := middlewarectx.InstanceMiddleware(newNoopLogger(), failingInstances{}, opts)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, called)
}

func TestLimiter(t *testing.T) {
	l := middlewarectx.NewLimiter(newNoopLogger(), 0.001, 2, "nw_sid")
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(id string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.AddCookie(&http.Cookie{Name: "nw_sid", Value: id})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	first := portal.NewInstanceID()
	assert.Equal(t, http.StatusOK, send(first))
	assert.Equal(t, http.StatusOK, send(first))
	assert.Equal(t, http.StatusTooManyRequests, send(first))

	assert.Equal(t, http.StatusOK, send(portal.NewInstanceID()), "лимит считается отдельно для каждого экземпляра")

	assert.Equal(t, 0, l.Cleanup(time.Hour))
	assert.Equal(t, 2, l.Cleanup(-time.Second))
}
