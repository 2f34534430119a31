package register

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chronicleink/newswave/internal/identity"
	services "github.com/chronicleink/newswave/internal/services/auth"
	"github.com/chronicleink/newswave/internal/session"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, in services.SignUp) (session.Snapshot, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(session.Snapshot), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestRegisterHandler_JSON(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(m *MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "успешная регистрация",
			body: `{"name":"Ann","email":"ann@example.com","password":"Secret1"}`,
			setup: func(m *MockService) {
				m.On("Register", mock.Anything, services.SignUp{Name: "Ann", Email: "ann@example.com", Password: "Secret1"}).
					Return(session.Snapshot{State: session.StateAuthenticated}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"state":"authenticated"`,
		},
		{
			name:       "пароль без заглавной буквы",
			body:       `{"name":"Ann","email":"ann@example.com","password":"secret1"}`,
			setup:      func(*MockService) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "field Password must contain an uppercase and a lowercase letter",
		},
		{
			name:       "нет имени",
			body:       `{"email":"ann@example.com","password":"Secret1"}`,
			setup:      func(*MockService) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "field Name is a required field",
		},
		{
			name: "email занят",
			body: `{"name":"Ann","email":"ann@example.com","password":"Secret1"}`,
			setup: func(m *MockService) {
				m.On("Register", mock.Anything, mock.Anything).
					Return(session.Snapshot{}, identity.ErrDuplicateAccount).Once()
			},
			wantStatus: http.StatusConflict,
			wantBody:   `"error":"account already exists"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setup(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			New(newNoopLogger(), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}

func TestRegisterHandler_MultipartWithPhoto(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("name", "Ann"))
	require.NoError(t, mw.WriteField("email", "ann@example.com"))
	require.NoError(t, mw.WriteField("password", "Secret1"))
	fw, err := mw.CreateFormFile("photo", "me.png")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("png-bytes"))
	require.NoError(t, mw.Close())

	svc := new(MockService)
	svc.On("Register", mock.Anything, mock.MatchedBy(func(in services.SignUp) bool {
		return in.Name == "Ann" && in.Avatar != nil && in.Avatar.Filename == "me.png"
	})).Return(session.Snapshot{State: session.StateAuthenticated}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	New(newNoopLogger(), svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}
