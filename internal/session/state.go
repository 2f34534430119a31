package session

import (
	"fmt"

	"github.com/chronicleink/newswave/internal/models"
)

// State — состояние машины загрузки сессии.
type State int

const (
	// Идёт загрузка, решение о пользователе ещё не принято.
	StateChecking State = iota
	// Пользователя нет.
	StateUnauthenticated
	// Пользователь загружен.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateChecking:
		return "CHECKING"
	case StateUnauthenticated:
		return "UNAUTHENTICATED"
	case StateAuthenticated:
		return "AUTHENTICATED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// MarshalText выводит состояние строкой.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Snapshot — опубликованное состояние сессии.
type Snapshot struct {
	State State               `json:"state"`
	User  *models.CurrentUser `json:"user"`
	// Провайдер подтвердил личность, но запись пользователя получить не удалось.
	Degraded bool `json:"degraded,omitempty"`
}

// Settled сообщает, вышла ли машина из CHECKING.
func (s Snapshot) Settled() bool {
	return s.State != StateChecking
}
