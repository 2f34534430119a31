package models

import "time"

// CurrentUser — объединённое представление, которое видит UI.
// Отображаемые поля берутся из IdentityAssertion, роль и премиум берутся
// только из UserRecord.
type CurrentUser struct {
	UID     string `json:"uid"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Image   string `json:"image,omitempty"`
	IDToken string `json:"-"`
	Role    Role   `json:"role"`
	Premium bool   `json:"isPremiumTaken"`
}

// MergeCurrentUser строит CurrentUser из утверждения провайдера и записи бэкенда.
func MergeCurrentUser(a IdentityAssertion, rec UserRecord, now time.Time) CurrentUser {
	return CurrentUser{
		UID:     a.UID,
		Name:    a.DisplayName,
		Email:   a.Email,
		Image:   a.PhotoURL,
		IDToken: a.IDToken,
		Role:    rec.NormalizedRole(),
		Premium: rec.HasActivePremium(now),
	}
}

// IsAdmin сообщает, является ли пользователь администратором.
func (u *CurrentUser) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}
