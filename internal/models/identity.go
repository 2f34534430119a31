package models

import "time"

// IdentityAssertion — удостоверение, выданное провайдером идентификации
// после входа, регистрации или восстановления сессии. Поля роли и премиума
// здесь намеренно отсутствуют: провайдеру в вопросах авторизации не доверяем.
type IdentityAssertion struct {
	UID          string    `json:"uid"`
	DisplayName  string    `json:"displayName,omitempty"`
	Email        string    `json:"email"`
	PhotoURL     string    `json:"photoURL,omitempty"`
	IDToken      string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// Expired сообщает, истёк ли сырой токен на момент now.
func (a IdentityAssertion) Expired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt)
}
