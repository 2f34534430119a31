// Package events публикует события активности сессий во внешнюю шину.
package events

import (
	"context"
	"time"
)

// Виды событий сессии.
const (
	KindSignedIn  = "signed_in"
	KindSignedOut = "signed_out"
	KindDegraded  = "degraded"
)

// SessionEvent — событие смены состояния сессии экземпляра браузера.
type SessionEvent struct {
	Instance string    `json:"instance"`
	UID      string    `json:"uid,omitempty"`
	Role     string    `json:"role,omitempty"`
	Kind     string    `json:"kind"`
	At       time.Time `json:"at"`
}

// Publisher публикует события.
type Publisher interface {
	Publish(ctx context.Context, e SessionEvent) error
	Close() error
}

// Noop — публикатор, который ничего не делает. Используется, когда шина не настроена.
type Noop struct{}

func (Noop) Publish(context.Context, SessionEvent) error { return nil }
func (Noop) Close() error                                { return nil }
