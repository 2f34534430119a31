package read

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/chronicleink/newswave/internal/backend"
	"github.com/chronicleink/newswave/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Article(ctx context.Context, id string) (models.Article, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.Article), args.Error(1)
}

func TestReadHandler(t *testing.T) {
	tests := []struct {
		name       string
		id         string
		setup      func(m *MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "статья найдена",
			id:   "a1",
			setup: func(m *MockService) {
				m.On("Article", mock.Anything, "a1").Return(models.Article{ID: "a1", Title: "Go"}, nil).Once()
			},
			wantStatus: http.StatusOK,
			wantBody:   `"title":"Go"`,
		},
		{
			name: "статья не найдена",
			id:   "missing",
			setup: func(m *MockService) {
				m.On("Article", mock.Anything, "missing").Return(models.Article{}, backend.ErrNotFound).Once()
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `"error":"not found"`,
		},
		{
			name:       "пустой id",
			id:         "",
			setup:      func(*MockService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "missing article id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setup(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/articles/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			rec := httptest.NewRecorder()
			New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.True(t, strings.Contains(rec.Body.String(), tt.wantBody), rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
