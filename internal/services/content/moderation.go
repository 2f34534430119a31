package services

import "errors"

// ModerationAction — действие администратора над статьёй.
type ModerationAction string

const (
	ActionApprove ModerationAction = "approve"
	ActionDecline ModerationAction = "decline"
	ActionDelete  ModerationAction = "delete"
	ActionPremium ModerationAction = "premium"
)

// ErrUnknownAction возвращается для неизвестного действия модерации.
var ErrUnknownAction = errors.New("unknown moderation action")

// ParseModerationAction разбирает действие из пути запроса.
func ParseModerationAction(s string) (ModerationAction, error) {
	switch a := ModerationAction(s); a {
	case ActionApprove, ActionDecline, ActionDelete, ActionPremium:
		return a, nil
	}
	return "", ErrUnknownAction
}
