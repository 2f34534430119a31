package update

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/chronicleink/newswave/internal/backend"
	services "github.com/chronicleink/newswave/internal/services/auth"
	"github.com/chronicleink/newswave/internal/session"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) UpdateProfile(ctx context.Context, name string, avatar *services.Image) (session.Snapshot, error) {
	args := m.Called(ctx, name, avatar)
	return args.Get(0).(session.Snapshot), args.Error(1)
}

func TestUpdateHandler(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		setup        func(m *MockService)
		wantStatus   int
		wantLocation string
	}{
		{
			name: "успешное обновление",
			body: `{"name":"Ann B"}`,
			setup: func(m *MockService) {
				m.On("UpdateProfile", mock.Anything, "Ann B", (*services.Image)(nil)).
					Return(session.Snapshot{State: session.StateAuthenticated}, nil).Once()
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "пустое имя",
			body:       `{"name":""}`,
			setup:      func(*MockService) {},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name: "бэкенд отклонил токен",
			body: `{"name":"Ann B"}`,
			setup: func(m *MockService) {
				m.On("UpdateProfile", mock.Anything, "Ann B", (*services.Image)(nil)).
					Return(session.Snapshot{}, backend.ErrUnauthorized).Once()
			},
			wantStatus:   http.StatusUnauthorized,
			wantLocation: "/login",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setup(svc)

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPatch, "/api/v1/profile", strings.NewReader(tt.body))
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLocation, rec.Header().Get("Location"))
			svc.AssertExpectations(t)
		})
	}
}
