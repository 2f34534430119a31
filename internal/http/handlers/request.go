package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator"

	"github.com/chronicleink/newswave/internal/models"
	"github.com/chronicleink/newswave/internal/session"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// Pagination читает page и limit из строки запроса. Некорректные значения
// заменяются значениями по умолчанию.
func Pagination(r *http.Request) (page, limit int) {
	page, limit = defaultPage, defaultLimit
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = min(v, maxLimit)
	}
	return page, limit
}

// NewValidator возвращает валидатор с правилом password: в пароле должны
// быть заглавная и строчная буквы.
func NewValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		var upper, lower bool
		for _, r := range fl.Field().String() {
			switch {
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsLower(r):
				lower = true
			}
		}
		return upper && lower
	})
	return v
}

// SessionView — представление сессии в ответах API.
type SessionView struct {
	State    session.State       `json:"state"`
	User     *models.CurrentUser `json:"user"`
	Degraded bool                `json:"degraded,omitempty"`
}

// NewSessionView строит представление из снимка машины загрузки.
func NewSessionView(s session.Snapshot) SessionView {
	return SessionView{State: s.State, User: s.User, Degraded: s.Degraded}
}

// MaxFormMemory — объём multipart-формы, который держится в памяти.
const MaxFormMemory = 8 << 20

// IsMultipart сообщает, отправлена ли форма как multipart/form-data.
func IsMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}
