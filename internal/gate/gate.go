// Package gate содержит правила доступа к маршрутам. Правило является чистой
// функцией от текущего пользователя: оно только решает, пропустить запрос
// или куда его перенаправить, и никогда не меняет пользователя.
package gate

import (
	"net/url"

	"github.com/chronicleink/newswave/internal/models"
)

// Маршруты, на которые перенаправляют правила.
const (
	LandingPath      = "/"
	LoginPath        = "/login"
	SubscriptionPath = "/user/subscription"
)

// Reason — причина отказа.
type Reason int

const (
	// Доступ разрешён.
	ReasonNone Reason = iota
	// Требуется вход.
	ReasonUnauthenticated
	// Маршрут только для гостей.
	ReasonAuthenticated
	// Не хватает роли или подписки.
	ReasonForbidden
)

// Decision — результат проверки правила.
type Decision struct {
	Allow    bool
	Redirect string
	Reason   Reason
}

func allow() Decision {
	return Decision{Allow: true}
}

// Rule — именованное правило доступа.
type Rule struct {
	name   string
	decide func(u *models.CurrentUser, requested string) Decision
}

// Name возвращает имя правила для логов и метрик.
func (r Rule) Name() string { return r.name }

// Decide применяет правило. В requested передаётся исходный адрес запроса, он
// сохраняется в перенаправлении на вход.
func (r Rule) Decide(u *models.CurrentUser, requested string) Decision {
	return r.decide(u, requested)
}

var (
	// GuestOnly пускает только без пользователя (страницы входа и регистрации).
	GuestOnly = Rule{name: "guest_only", decide: guestOnly}
	// Authenticated пускает только с пользователем.
	Authenticated = Rule{name: "authenticated", decide: authenticated}
	// Admin требует роль admin.
	Admin = Rule{name: "admin", decide: admin}
	// Premium требует активную подписку независимо от роли.
	Premium = Rule{name: "premium", decide: premium}
)

func guestOnly(u *models.CurrentUser, _ string) Decision {
	if u != nil {
		return Decision{Redirect: LandingPath, Reason: ReasonAuthenticated}
	}
	return allow()
}

func authenticated(u *models.CurrentUser, requested string) Decision {
	if u == nil {
		return Decision{Redirect: LoginRedirect(requested), Reason: ReasonUnauthenticated}
	}
	return allow()
}

func admin(u *models.CurrentUser, requested string) Decision {
	if d := authenticated(u, requested); !d.Allow {
		return d
	}
	if u.Role != models.RoleAdmin {
		return Decision{Redirect: LandingPath, Reason: ReasonForbidden}
	}
	return allow()
}

func premium(u *models.CurrentUser, requested string) Decision {
	if d := authenticated(u, requested); !d.Allow {
		return d
	}
	if !u.Premium {
		return Decision{Redirect: SubscriptionPath, Reason: ReasonForbidden}
	}
	return allow()
}

// LoginRedirect строит адрес страницы входа с сохранением исходного адреса.
func LoginRedirect(requested string) string {
	if requested == "" || requested == LoginPath {
		return LoginPath
	}
	return LoginPath + "?redirect=" + url.QueryEscape(requested)
}
