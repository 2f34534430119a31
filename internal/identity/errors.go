package identity

import "errors"

var (
	// Неверная пара email/пароль или заблокированный аккаунт.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// Некорректный email или слабый пароль.
	ErrInvalidCredentialsFormat = errors.New("invalid credentials format")
	// Аккаунт с таким email уже существует.
	ErrDuplicateAccount = errors.New("account already exists")
	// Провайдер недоступен.
	ErrNetworkUnavailable = errors.New("identity provider unavailable")
	// Операция требует активной сессии провайдера.
	ErrNoSession = errors.New("no active identity session")
	// Refresh-токен отозван или истёк.
	ErrSessionExpired = errors.New("identity session expired")
)

// errorFromCode сопоставляет коды ошибок Firebase с таксономией ошибок.
// Сообщение может содержать пояснение после кода: "WEAK_PASSWORD : Password should be ...".
func errorFromCode(message string) error {
	code := message
	for i := 0; i < len(message); i++ {
		if message[i] == ' ' || message[i] == ':' {
			code = message[:i]
			break
		}
	}
	switch code {
	case "EMAIL_EXISTS":
		return ErrDuplicateAccount
	case "INVALID_EMAIL", "WEAK_PASSWORD", "MISSING_PASSWORD", "MISSING_EMAIL":
		return ErrInvalidCredentialsFormat
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED", "INVALID_IDP_RESPONSE":
		return ErrInvalidCredentials
	case "TOKEN_EXPIRED", "INVALID_REFRESH_TOKEN", "USER_NOT_FOUND", "INVALID_ID_TOKEN", "CREDENTIAL_TOO_OLD_LOGIN_AGAIN":
		return ErrSessionExpired
	default:
		return errors.New(message)
	}
}
