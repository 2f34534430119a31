package login

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/chronicleink/newswave/internal/identity"
	"github.com/chronicleink/newswave/internal/models"
	"github.com/chronicleink/newswave/internal/session"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) SignIn(ctx context.Context, email, password string) (session.Snapshot, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(session.Snapshot), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestLoginHandler_ServeHTTP(t *testing.T) {
	signedIn := session.Snapshot{
		State: session.StateAuthenticated,
		User:  &models.CurrentUser{UID: "u1", Email: "ann@example.com", Role: models.RoleAdmin},
	}

	tests := []struct {
		name       string
		body       any
		setup      func(m *MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "успешный вход",
			body: Request{Email: "ann@example.com", Password: "secret1"},
			setup: func(m *MockService) {
				m.On("SignIn", mock.Anything, "ann@example.com", "secret1").Return(signedIn, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"state":"authenticated"`,
		},
		{
			name:       "некорректный JSON",
			body:       "not a json",
			setup:      func(*MockService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `"error":"invalid request body"`,
		},
		{
			name:       "невалидный email",
			body:       Request{Email: "ann", Password: "secret1"},
			setup:      func(*MockService) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "field Email must be a valid email",
		},
		{
			name: "неверный пароль",
			body: Request{Email: "ann@example.com", Password: "secret1"},
			setup: func(m *MockService) {
				m.On("SignIn", mock.Anything, "ann@example.com", "secret1").
					Return(session.Snapshot{}, identity.ErrInvalidCredentials).Once()
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `"error":"invalid email or password"`,
		},
		{
			name: "провайдер недоступен",
			body: Request{Email: "ann@example.com", Password: "secret1"},
			setup: func(m *MockService) {
				m.On("SignIn", mock.Anything, "ann@example.com", "secret1").
					Return(session.Snapshot{}, identity.ErrNetworkUnavailable).Once()
			},
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `"error":"network unavailable"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setup(svc)
			h := New(newNoopLogger(), svc)

			var body []byte
			if s, ok := tt.body.(string); ok {
				body = []byte(s)
			} else {
				body, _ = json.Marshal(tt.body)
			}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewReader(body))
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
