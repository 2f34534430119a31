// Package services предоставляет операции над статьями, издателями и
// пользователями от имени экземпляра браузера, обратившегося с запросом.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/chronicleink/newswave/internal/gate"
	"github.com/chronicleink/newswave/internal/models"
	"github.com/chronicleink/newswave/internal/portal"
)

// ErrNoUser возвращается операциями, которым нужен вошедший пользователь.
var ErrNoUser = errors.New("no signed-in user")

// ContentAPI — методы бэкенда для статей, издателей и администрирования.
type ContentAPI interface {
	Articles(ctx context.Context, page, limit int) (models.ArticlePage, error)
	TopArticles(ctx context.Context) ([]models.Article, error)
	PremiumArticles(ctx context.Context) ([]models.Article, error)
	Article(ctx context.Context, id string) (models.Article, error)
	SubmitArticle(ctx context.Context, a models.Article) error
	MyArticles(ctx context.Context, email string) ([]models.Article, error)
	DeleteMyArticle(ctx context.Context, id string) error
	Publishers(ctx context.Context) ([]models.Publisher, error)

	ApproveArticle(ctx context.Context, id string) error
	DeclineArticle(ctx context.Context, id, reason string) error
	DeleteArticle(ctx context.Context, id string) error
	MakeArticlePremium(ctx context.Context, id string) error
	AllUsers(ctx context.Context, page, limit int) (models.UserPage, error)
	MakeAdmin(ctx context.Context, id string) error
	AddPublisher(ctx context.Context, p models.Publisher) error
}

// Uploader загружает изображение и возвращает его публичный адрес.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (string, error)
}

// Image — загружаемый файл.
type Image struct {
	Filename string
	Body     io.Reader
}

// ArticleDraft — данные формы новой статьи.
type ArticleDraft struct {
	Title       string
	Publisher   string
	Description string
	Tags        []string
	Image       Image
}

// ContentService выполняет операции над контентом.
type ContentService struct {
	log      *slog.Logger
	uploader Uploader
	resolve  func(ctx context.Context) (ContentAPI, error)
}

// NewContentService создает сервис.
func NewContentService(log *slog.Logger, uploader Uploader) *ContentService {
	return &ContentService{
		log:      log,
		uploader: uploader,
		resolve:  fromPortal,
	}
}

func fromPortal(ctx context.Context) (ContentAPI, error) {
	inst, err := portal.FromContext(ctx)
	if err != nil {
		return nil, err
	}
	return inst.Backend, nil
}

// Articles возвращает страницу одобренных статей.
func (s *ContentService) Articles(ctx context.Context, page, limit int) (models.ArticlePage, error) {
	const op = "services.content.Articles"
	api, err := s.resolve(ctx)
	if err != nil {
		return models.ArticlePage{}, fmt.Errorf("%s: %w", op, err)
	}
	res, err := api.Articles(ctx, page, limit)
	if err != nil {
		return models.ArticlePage{}, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// TopArticles возвращает самые просматриваемые статьи.
func (s *ContentService) TopArticles(ctx context.Context) ([]models.Article, error) {
	const op = "services.content.TopArticles"
	api, err := s.resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := api.TopArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// PremiumArticles возвращает премиум-статьи.
func (s *ContentService) PremiumArticles(ctx context.Context) ([]models.Article, error) {
	const op = "services.content.PremiumArticles"
	api, err := s.resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := api.PremiumArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// Article возвращает статью по идентификатору.
func (s *ContentService) Article(ctx context.Context, id string) (models.Article, error) {
	const op = "services.content.Article"
	api, err := s.resolve(ctx)
	if err != nil {
		return models.Article{}, fmt.Errorf("%s: %w", op, err)
	}
	res, err := api.Article(ctx, id)
	if err != nil {
		return models.Article{}, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// SubmitArticle загружает обложку и отправляет статью на модерацию
// от имени текущего пользователя.
func (s *ContentService) SubmitArticle(ctx context.Context, d ArticleDraft) (models.Article, error) {
	const op = "services.content.SubmitArticle"

	user := gate.UserFromContext(ctx)
	if user == nil {
		return models.Article{}, fmt.Errorf("%s: %w", op, ErrNoUser)
	}
	api, err := s.resolve(ctx)
	if err != nil {
		return models.Article{}, fmt.Errorf("%s: %w", op, err)
	}

	image, err := s.uploader.Upload(ctx, d.Image.Filename, d.Image.Body)
	if err != nil {
		return models.Article{}, fmt.Errorf("%s: %w", op, err)
	}

	article := models.NewArticleDraft(d.Title, image, d.Publisher, d.Description, d.Tags, *user)
	if err := api.SubmitArticle(ctx, article); err != nil {
		return models.Article{}, fmt.Errorf("%s: %w", op, err)
	}
	return article, nil
}

// MyArticles возвращает статьи текущего пользователя.
func (s *ContentService) MyArticles(ctx context.Context) ([]models.Article, error) {
	const op = "services.content.MyArticles"

	user := gate.UserFromContext(ctx)
	if user == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrNoUser)
	}
	api, err := s.resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := api.MyArticles(ctx, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// DeleteMyArticle удаляет статью текущего пользователя.
func (s *ContentService) DeleteMyArticle(ctx context.Context, id string) error {
	const op = "services.content.DeleteMyArticle"
	api, err := s.resolve(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := api.DeleteMyArticle(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publishers возвращает список издателей.
func (s *ContentService) Publishers(ctx context.Context) ([]models.Publisher, error) {
	const op = "services.content.Publishers"
	api, err := s.resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	res, err := api.Publishers(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// AddPublisher загружает логотип и создает издателя. Автором записывается
// текущий пользователь.
func (s *ContentService) AddPublisher(ctx context.Context, name string, logo Image) (models.Publisher, error) {
	const op = "services.content.AddPublisher"

	user := gate.UserFromContext(ctx)
	if user == nil {
		return models.Publisher{}, fmt.Errorf("%s: %w", op, ErrNoUser)
	}
	api, err := s.resolve(ctx)
	if err != nil {
		return models.Publisher{}, fmt.Errorf("%s: %w", op, err)
	}

	url, err := s.uploader.Upload(ctx, logo.Filename, logo.Body)
	if err != nil {
		return models.Publisher{}, fmt.Errorf("%s: %w", op, err)
	}
	p := models.Publisher{
		Name:   name,
		Logo:   url,
		Author: models.Author{Name: user.Name, Email: user.Email, Image: user.Image},
	}
	if err := api.AddPublisher(ctx, p); err != nil {
		return models.Publisher{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// Moderate применяет к статье действие модерации.
func (s *ContentService) Moderate(ctx context.Context, id string, action ModerationAction, reason string) error {
	const op = "services.content.Moderate"
	api, err := s.resolve(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	switch action {
	case ActionApprove:
		err = api.ApproveArticle(ctx, id)
	case ActionDecline:
		err = api.DeclineArticle(ctx, id, reason)
	case ActionDelete:
		err = api.DeleteArticle(ctx, id)
	case ActionPremium:
		err = api.MakeArticlePremium(ctx, id)
	default:
		err = ErrUnknownAction
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("article moderated", slog.String("op", op), slog.String("article", id), slog.String("action", string(action)))
	return nil
}

// Users возвращает страницу пользователей.
func (s *ContentService) Users(ctx context.Context, page, limit int) (models.UserPage, error) {
	const op = "services.content.Users"
	api, err := s.resolve(ctx)
	if err != nil {
		return models.UserPage{}, fmt.Errorf("%s: %w", op, err)
	}
	res, err := api.AllUsers(ctx, page, limit)
	if err != nil {
		return models.UserPage{}, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

// MakeAdmin назначает пользователя администратором.
func (s *ContentService) MakeAdmin(ctx context.Context, id string) error {
	const op = "services.content.MakeAdmin"
	api, err := s.resolve(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := api.MakeAdmin(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
