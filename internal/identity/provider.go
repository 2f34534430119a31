package identity

import (
	"context"

	"github.com/chronicleink/newswave/internal/models"
)

// GoogleProviderID — идентификатор OAuth-провайдера Google.
const GoogleProviderID = "google.com"

// Provider — удалённый провайдер идентификации.
type Provider interface {
	SignUp(ctx context.Context, email, password string) (models.IdentityAssertion, error)
	SignInWithPassword(ctx context.Context, email, password string) (models.IdentityAssertion, error)
	SignInWithIdp(ctx context.Context, providerID, idpToken string) (models.IdentityAssertion, error)
	UpdateProfile(ctx context.Context, idToken, displayName, photoURL string) (models.IdentityAssertion, error)
	Refresh(ctx context.Context, refreshToken string) (models.IdentityAssertion, error)
	SignOut(ctx context.Context, idToken string) error
}
