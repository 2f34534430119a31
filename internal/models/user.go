// Package models содержит доменные модели портала: утверждение личности от
// провайдера, авторитетную запись пользователя с бэкенда, объединённое
// представление текущего пользователя, а также статьи и издателей.
package models

import (
	"strings"
	"time"
)

// Role — роль пользователя в системе.
type Role string

const (
	// Обычный читатель.
	RoleStandard Role = "standard"
	// Читатель с оплаченной подпиской.
	RolePremium Role = "premium"
	// Администратор.
	RoleAdmin Role = "admin"
)

// ParseRole нормализует роль, пришедшую с бэкенда. Бэкенд исторически
// отдаёт "user" для обычных читателей; всё неизвестное считается standard.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RolePremium:
		return RolePremium
	default:
		return RoleStandard
	}
}

// UserRecord — авторитетный профиль пользователя на стороне бэкенда.
// Клиент его только читает и отправляет запросы на изменение.
type UserRecord struct {
	ID            string     `json:"_id,omitempty"`
	UID           string     `json:"uid"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Image         string     `json:"image,omitempty"`
	Role          string     `json:"role"`
	PremiumTaken  *time.Time `json:"premiumTaken,omitempty"`
	PremiumExpiry *time.Time `json:"premiumExpiry,omitempty"`
	LastLogin     *time.Time `json:"lastLogin,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// NormalizedRole возвращает роль записи в нормализованном виде.
func (u UserRecord) NormalizedRole() Role {
	return ParseRole(u.Role)
}

// HasActivePremium сообщает, действует ли премиум-подписка на момент now.
// Подписка считается взятой, если роль premium или проставлена дата покупки;
// истёкшая подписка не даёт доступа независимо от роли.
func (u UserRecord) HasActivePremium(now time.Time) bool {
	taken := u.NormalizedRole() == RolePremium || u.PremiumTaken != nil
	if !taken {
		return false
	}
	if u.PremiumExpiry == nil {
		return true
	}
	return u.PremiumExpiry.After(now)
}

// UserSummary — строка в административном списке пользователей.
type UserSummary struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Image string `json:"image,omitempty"`
	Role  string `json:"role"`
}

// UserPage — страница административного списка пользователей.
type UserPage struct {
	Users      []UserSummary `json:"users"`
	TotalPages int           `json:"totalPages"`
}

// Registration — данные для регистрации пользователя на бэкенде.
type Registration struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	UID   string `json:"uid"`
	Image string `json:"image,omitempty"`
}

// ProfileUpdate — запрос на изменение профиля на бэкенде.
type ProfileUpdate struct {
	Name  string `json:"name,omitempty"`
	Image string `json:"image,omitempty"`
}
