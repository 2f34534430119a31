package backend

import "errors"

var (
	// Бэкенд не выдал сессионный токен.
	ErrTokenExchange = errors.New("session token exchange failed")
	// Не удалось получить запись пользователя.
	ErrUserFetch = errors.New("user record fetch failed")
	// Бэкенд отклонил токен (сессия истекла).
	ErrUnauthorized = errors.New("session expired")
	// Бэкенд недоступен.
	ErrNetworkUnavailable = errors.New("backend unavailable")
	// Ресурс не найден.
	ErrNotFound = errors.New("not found")
)

// StatusError — ответ бэкенда с неожиданным статусом.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return "unexpected status: " + httpStatusText(e.Code)
	}
	return "unexpected status: " + httpStatusText(e.Code) + ": " + e.Message
}
