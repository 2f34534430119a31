package identity

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chronicleink/newswave/internal/models"
)

// MockProvider реализует интерфейс Provider
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) SignUp(ctx context.Context, email, password string) (models.IdentityAssertion, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(models.IdentityAssertion), args.Error(1)
}

func (m *MockProvider) SignInWithPassword(ctx context.Context, email, password string) (models.IdentityAssertion, error) {
	args := m.Called(ctx, email, password)
	return args.Get(0).(models.IdentityAssertion), args.Error(1)
}

func (m *MockProvider) SignInWithIdp(ctx context.Context, providerID, idpToken string) (models.IdentityAssertion, error) {
	args := m.Called(ctx, providerID, idpToken)
	return args.Get(0).(models.IdentityAssertion), args.Error(1)
}

func (m *MockProvider) UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (models.IdentityAssertion, error) {
	args := m.Called(ctx, idToken, displayName, photoURL)
	return args.Get(0).(models.IdentityAssertion), args.Error(1)
}

func (m *MockProvider) Refresh(ctx context.Context, refreshToken string) (models.IdentityAssertion, error) {
	args := m.Called(ctx, refreshToken)
	return args.Get(0).(models.IdentityAssertion), args.Error(1)
}

func (m *MockProvider) SignOut(ctx context.Context, idToken string) error {
	args := m.Called(ctx, idToken)
	return args.Error(0)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signedToken(t *testing.T, sub, email, name, picture string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Email:   email,
		Name:    name,
		Picture: picture,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})
	s, err := tok.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}
