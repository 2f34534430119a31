package gate

import (
	"context"

	"github.com/chronicleink/newswave/internal/models"
)

type userKey struct{}

// ContextWithUser кладёт текущего пользователя в контекст запроса.
func ContextWithUser(ctx context.Context, u *models.CurrentUser) context.Context {
	return context.WithValue(ctx, userKey{}, u)
}

// UserFromContext достаёт текущего пользователя; nil, если его нет.
func UserFromContext(ctx context.Context) *models.CurrentUser {
	u, _ := ctx.Value(userKey{}).(*models.CurrentUser)
	return u
}
