package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/chronicleink/newswave/internal/models"
)

// ExchangeSession обменивает ID-токен провайдера на сессионный токен бэкенда.
// ID-токен передаётся как bearer, а не токен из хранилища.
func (c *Client) ExchangeSession(ctx context.Context, rawIDToken string) (string, error) {
	const op = "backend.ExchangeSession"

	req, err := c.newRequest(ctx, http.MethodPost, "/auth", nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrTokenExchange, err)
	}
	req.Header.Set("Authorization", "Bearer "+rawIDToken)

	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrTokenExchange, err)
	}
	if out.Token == "" {
		return "", fmt.Errorf("%s: %w: empty token", op, ErrTokenExchange)
	}
	return out.Token, nil
}

// UserData возвращает запись текущего пользователя.
func (c *Client) UserData(ctx context.Context) (models.UserRecord, error) {
	const op = "backend.UserData"
	var out struct {
		User *models.UserRecord `json:"user"`
	}
	if err := c.call(ctx, http.MethodGet, "/users/user-data", nil, &out); err != nil {
		return models.UserRecord{}, fmt.Errorf("%s: %w: %w", op, ErrUserFetch, err)
	}
	if out.User == nil {
		return models.UserRecord{}, fmt.Errorf("%s: %w: empty user", op, ErrUserFetch)
	}
	return *out.User, nil
}

// TouchLastLogin отмечает время последнего входа.
func (c *Client) TouchLastLogin(ctx context.Context, uid string) error {
	const op = "backend.TouchLastLogin"
	if err := c.call(ctx, http.MethodPatch, "/users/"+url.PathEscape(uid)+"/last-login", nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RegisterUser создаёт запись пользователя на бэкенде.
func (c *Client) RegisterUser(ctx context.Context, reg models.Registration) error {
	const op = "backend.RegisterUser"
	if err := c.call(ctx, http.MethodPost, "/users/register", reg, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UserExists проверяет, есть ли запись пользователя с данным uid.
func (c *Client) UserExists(ctx context.Context, uid string) (bool, error) {
	const op = "backend.UserExists"
	var out struct {
		Exists bool `json:"exists"`
	}
	if err := c.call(ctx, http.MethodGet, "/users/"+url.PathEscape(uid)+"/check-exist", nil, &out); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return out.Exists, nil
}

// UpdateProfile отправляет изменения профиля.
func (c *Client) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) error {
	const op = "backend.UpdateProfile"
	if err := c.call(ctx, http.MethodPatch, "/users/update", upd, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
