package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronicleink/newswave/internal/backend"
	"github.com/chronicleink/newswave/internal/identity"
	"github.com/chronicleink/newswave/internal/models"
	"github.com/chronicleink/newswave/internal/portal"
	"github.com/chronicleink/newswave/internal/session"
	"github.com/chronicleink/newswave/internal/tokenstore"
	"github.com/chronicleink/newswave/internal/upload"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err      error
		status   int
		location string
	}{
		{identity.ErrInvalidCredentials, http.StatusUnauthorized, ""},
		{identity.ErrInvalidCredentialsFormat, http.StatusUnprocessableEntity, ""},
		{identity.ErrDuplicateAccount, http.StatusConflict, ""},
		{backend.ErrUnauthorized, http.StatusUnauthorized, "/login"},
		{identity.ErrSessionExpired, http.StatusUnauthorized, "/login"},
		{identity.ErrNetworkUnavailable, http.StatusServiceUnavailable, ""},
		{backend.ErrNetworkUnavailable, http.StatusServiceUnavailable, ""},
		{session.ErrNotSettled, http.StatusServiceUnavailable, ""},
		{backend.ErrNotFound, http.StatusNotFound, ""},
		{upload.ErrTooLarge, http.StatusRequestEntityTooLarge, ""},
		{fmt.Errorf("wrap: %w", backend.ErrUserFetch), http.StatusBadGateway, ""},
		{&backend.StatusError{Code: http.StatusBadRequest, Message: "title too long"}, http.StatusBadRequest, ""},
		{&backend.StatusError{Code: http.StatusInternalServerError}, http.StatusBadGateway, ""},
		{errors.New("boom"), http.StatusInternalServerError, ""},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			p := Classify(fmt.Errorf("op: %w", tt.err))
			assert.Equal(t, tt.status, p.Status)
			assert.Equal(t, tt.location, p.Location)
		})
	}
}

type nopProvider struct{}

func (nopProvider) SignUp(context.Context, string, string) (models.IdentityAssertion, error) {
	return models.IdentityAssertion{}, nil
}

func (nopProvider) SignInWithPassword(context.Context, string, string) (models.IdentityAssertion, error) {
	return models.IdentityAssertion{UID: "u1", IDToken: "id"}, nil
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

func TestWriteError_SignsOutOnRejectedToken(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	store, err := tokenstore.NewMemoryProvider().Open(ctx, portal.NewInstanceID())
	require.NoError(t, err)
	adapter := identity.NewAdapter(log, nopProvider{}, store)
	_, err = adapter.SignIn(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, tokenstore.SessionKey, "stale"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/my-articles", nil)
	req = req.WithContext(portal.WithInstance(req.Context(), &portal.Instance{Identity: adapter, Store: store}))
	rec := httptest.NewRecorder()

	WriteError(rec, req, log, fmt.Errorf("backend.MyArticles: %w", backend.ErrUnauthorized))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.JSONEq(t, `{"status":"Error","error":"session expired","data":{"redirect":"/login"}}`, rec.Body.String())

	_, err = store.Get(ctx, tokenstore.SessionKey)
	assert.ErrorIs(t, err, tokenstore.ErrNotFound)
	assert.Nil(t, adapter.Current())
}

func TestWriteError_RetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), slog.New(slog.NewTextHandler(io.Discard, nil)), session.ErrNotSettled)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query       string
		page, limit int
	}{
		{"", 1, 10},
		{"page=3&limit=25", 3, 25},
		{"page=0&limit=-4", 1, 10},
		{"limit=500", 1, 100},
	}
	for _, tt := range tests {
		page, limit := Pagination(httptest.NewRequest(http.MethodGet, "/?"+tt.query, nil))
		assert.Equal(t, tt.page, page, tt.query)
		assert.Equal(t, tt.limit, limit, tt.query)
	}
}

func TestNewValidator_Password(t *testing.T) {
	v := NewValidator()
	type form struct {
		Password string `validate:"password"`
	}
	assert.NoError(t, v.Struct(form{Password: "Secret1"}))
	assert.Error(t, v.Struct(form{Password: "secret1"}))
	assert.Error(t, v.Struct(form{Password: "SECRET1"}))
}
