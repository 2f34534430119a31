package models

import "time"

// ArticleStatus — статус модерации статьи.
type ArticleStatus string

const (
	ArticlePending  ArticleStatus = "Pending"
	ArticleApproved ArticleStatus = "Approved"
	ArticleDeclined ArticleStatus = "Declined"
)

// Article — статья в том виде, в каком её отдаёт бэкенд.
type Article struct {
	ID            string        `json:"_id,omitempty"`
	Title         string        `json:"title"`
	Image         string        `json:"image"`
	Publisher     string        `json:"publisher"`
	Tags          []string      `json:"tags"`
	Description   string        `json:"description"`
	AuthorName    string        `json:"authorName"`
	AuthorImage   string        `json:"authorImage,omitempty"`
	AuthorEmail   string        `json:"authorEmail"`
	Status        ArticleStatus `json:"status"`
	DeclineReason string        `json:"declineReason,omitempty"`
	IsPremium     bool          `json:"isPremium"`
	Views         int           `json:"views"`
	CreatedAt     *time.Time    `json:"createdAt,omitempty"`
}

// ArticlePage — страница списка статей.
type ArticlePage struct {
	Articles   []Article `json:"articles"`
	TotalPages int       `json:"totalPages"`
}

// NewArticleDraft заполняет поля, которые клиент проставляет при отправке
// статьи на модерацию.
func NewArticleDraft(title, image, publisher, description string, tags []string, author CurrentUser) Article {
	return Article{
		Title:       title,
		Image:       image,
		Publisher:   publisher,
		Tags:        tags,
		Description: description,
		AuthorName:  author.Name,
		AuthorImage: author.Image,
		AuthorEmail: author.Email,
		Status:      ArticlePending,
		IsPremium:   false,
		Views:       0,
	}
}
