package users

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/chronicleink/newswave/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Users(ctx context.Context, page, limit int) (models.UserPage, error) {
	args := m.Called(ctx, page, limit)
	return args.Get(0).(models.UserPage), args.Error(1)
}

func TestUsersHandler(t *testing.T) {
	svc := new(MockService)
	svc.On("Users", mock.Anything, 3, 20).
		Return(models.UserPage{Users: []models.UserSummary{{Email: "ann@example.com"}}, TotalPages: 4}, nil).Once()

	rec := httptest.NewRecorder()
	New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/users?page=3&limit=20", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ann@example.com"`)
	svc.AssertExpectations(t)
}
