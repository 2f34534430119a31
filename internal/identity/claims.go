package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chronicleink/newswave/internal/models"
)

// Claims — поля ID-токена провайдера, которые нужны порталу.
type Claims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// ParseClaims разбирает ID-токен без проверки подписи. Подпись проверяет
// бэкенд при обмене токена; здесь нужны только отображаемые поля и срок.
func ParseClaims(idToken string) (*Claims, error) {
	const op = "identity.ParseClaims"
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%s: token has no subject", op)
	}
	return claims, nil
}

// assertionFromToken строит утверждение по ID-токену. Пустые поля fallback
// дополняются из claims.
func assertionFromToken(idToken, refreshToken string, fallback models.IdentityAssertion) (models.IdentityAssertion, error) {
	claims, err := ParseClaims(idToken)
	if err != nil {
		return models.IdentityAssertion{}, err
	}
	a := fallback
	a.IDToken = idToken
	a.RefreshToken = refreshToken
	if a.UID == "" {
		a.UID = claims.Subject
	}
	if a.Email == "" {
		a.Email = claims.Email
	}
	if a.DisplayName == "" {
		a.DisplayName = claims.Name
	}
	if a.PhotoURL == "" {
		a.PhotoURL = claims.Picture
	}
	if claims.ExpiresAt != nil {
		a.ExpiresAt = claims.ExpiresAt.Time
	} else if a.ExpiresAt.IsZero() {
		a.ExpiresAt = time.Now().Add(time.Hour)
	}
	return a, nil
}
