package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/chronicleink/newswave/internal/models"
)

// Articles возвращает страницу статей. Тот же эндпоинт служит списком для модерации.
func (c *Client) Articles(ctx context.Context, page, limit int) (models.ArticlePage, error) {
	const op = "backend.Articles"
	var out models.ArticlePage
	if err := c.call(ctx, http.MethodGet, "/articles"+pageQuery(page, limit), nil, &out); err != nil {
		return models.ArticlePage{}, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// TopArticles возвращает самые читаемые статьи.
func (c *Client) TopArticles(ctx context.Context) ([]models.Article, error) {
	const op = "backend.TopArticles"
	var out []models.Article
	if err := c.call(ctx, http.MethodGet, "/top-articles", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// PremiumArticles возвращает премиум-статьи.
func (c *Client) PremiumArticles(ctx context.Context) ([]models.Article, error) {
	const op = "backend.PremiumArticles"
	var out []models.Article
	if err := c.call(ctx, http.MethodGet, "/premium-articles", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// Article возвращает статью по id.
func (c *Client) Article(ctx context.Context, id string) (models.Article, error) {
	const op = "backend.Article"
	var out models.Article
	if err := c.call(ctx, http.MethodGet, "/articles/"+url.PathEscape(id), nil, &out); err != nil {
		return models.Article{}, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// SubmitArticle отправляет статью на модерацию.
func (c *Client) SubmitArticle(ctx context.Context, a models.Article) error {
	const op = "backend.SubmitArticle"
	if err := c.call(ctx, http.MethodPost, "/articles", a, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// MyArticles возвращает статьи автора.
func (c *Client) MyArticles(ctx context.Context, email string) ([]models.Article, error) {
	const op = "backend.MyArticles"
	var out []models.Article
	if err := c.call(ctx, http.MethodGet, "/user/articles?email="+url.QueryEscape(email), nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// DeleteMyArticle удаляет собственную статью.
func (c *Client) DeleteMyArticle(ctx context.Context, id string) error {
	const op = "backend.DeleteMyArticle"
	if err := c.call(ctx, http.MethodDelete, "/article/delete/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publishers возвращает список издателей.
func (c *Client) Publishers(ctx context.Context) ([]models.Publisher, error) {
	const op = "backend.Publishers"
	var out []models.Publisher
	if err := c.call(ctx, http.MethodGet, "/publishers", nil, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}
