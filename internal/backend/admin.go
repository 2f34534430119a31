package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/chronicleink/newswave/internal/models"
)

// ApproveArticle одобряет статью.
func (c *Client) ApproveArticle(ctx context.Context, id string) error {
	const op = "backend.ApproveArticle"
	if err := c.call(ctx, http.MethodPatch, "/articles/approve/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeclineArticle отклоняет статью с указанием причины.
func (c *Client) DeclineArticle(ctx context.Context, id, reason string) error {
	const op = "backend.DeclineArticle"
	body := map[string]string{"reason": reason}
	if err := c.call(ctx, http.MethodPatch, "/articles/decline/"+url.PathEscape(id), body, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// DeleteArticle удаляет любую статью.
func (c *Client) DeleteArticle(ctx context.Context, id string) error {
	const op = "backend.DeleteArticle"
	if err := c.call(ctx, http.MethodDelete, "/articles/delete/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MakeArticlePremium помечает статью премиальной.
func (c *Client) MakeArticlePremium(ctx context.Context, id string) error {
	const op = "backend.MakeArticlePremium"
	if err := c.call(ctx, http.MethodPatch, "/articles/premium/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AllUsers возвращает страницу пользователей.
func (c *Client) AllUsers(ctx context.Context, page, limit int) (models.UserPage, error) {
	const op = "backend.AllUsers"
	var out models.UserPage
	if err := c.call(ctx, http.MethodGet, "/all-users"+pageQuery(page, limit), nil, &out); err != nil {
		return models.UserPage{}, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// MakeAdmin выдаёт пользователю роль администратора.
func (c *Client) MakeAdmin(ctx context.Context, id string) error {
	const op = "backend.MakeAdmin"
	if err := c.call(ctx, http.MethodPatch, "/users/admin/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// AddPublisher добавляет издателя.
func (c *Client) AddPublisher(ctx context.Context, p models.Publisher) error {
	const op = "backend.AddPublisher"
	if err := c.call(ctx, http.MethodPost, "/admin/add-publisher", p, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
