// Package tokenstore хранит локальные данные экземпляра браузера: сессионный
// токен бэкенда и учётные данные провайдера идентификации. Каждый экземпляр
// получает собственное пространство ключей; под ключом SessionKey лежит не
// более одного токена.
package tokenstore

import (
	"context"
	"errors"
)

// Фиксированные ключи хранилища.
const (
	// Ключ сессионного токена бэкенда.
	SessionKey = "token"
	// Ключ refresh-токена провайдера идентификации.
	IdentityKey = "identity"
)

// ErrNotFound возвращается, если ключ отсутствует.
var ErrNotFound = errors.New("key not found")

// Store — хранилище ключ/значение одного экземпляра.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// Provider открывает хранилища по идентификатору экземпляра.
type Provider interface {
	Open(ctx context.Context, instance string) (Store, error)
	Close() error
}
