// Package handlers содержит общие для HTTP-обработчиков функции: разбор
// пагинации, регистрацию валидатора и перевод ошибок сервисов в HTTP-ответы.
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"github.com/chronicleink/newswave/internal/backend"
	"github.com/chronicleink/newswave/internal/gate"
	"github.com/chronicleink/newswave/internal/http/response"
	"github.com/chronicleink/newswave/internal/identity"
	"github.com/chronicleink/newswave/internal/lib/sl"
	"github.com/chronicleink/newswave/internal/portal"
	content "github.com/chronicleink/newswave/internal/services/content"
	"github.com/chronicleink/newswave/internal/session"
	"github.com/chronicleink/newswave/internal/upload"
)

// Problem — HTTP-представление ошибки сервиса.
type Problem struct {
	Status   int
	Message  string
	Location string
}

// Classify переводит ошибку в статус и сообщение для клиента.
func Classify(err error) Problem {
	var statusErr *backend.StatusError
	switch {
	case errors.Is(err, identity.ErrInvalidCredentials):
		return Problem{Status: http.StatusUnauthorized, Message: "invalid email or password"}
	case errors.Is(err, identity.ErrInvalidCredentialsFormat):
		return Problem{Status: http.StatusUnprocessableEntity, Message: "invalid email or password format"}
	case errors.Is(err, identity.ErrDuplicateAccount):
		return Problem{Status: http.StatusConflict, Message: "account already exists"}
	case errors.Is(err, backend.ErrUnauthorized),
		errors.Is(err, identity.ErrSessionExpired),
		errors.Is(err, identity.ErrNoSession),
		errors.Is(err, content.ErrNoUser):
		return Problem{Status: http.StatusUnauthorized, Message: "session expired", Location: gate.LoginPath}
	case errors.Is(err, session.ErrNotSettled):
		return Problem{Status: http.StatusServiceUnavailable, Message: "session is still being checked"}
	case errors.Is(err, identity.ErrNetworkUnavailable), errors.Is(err, backend.ErrNetworkUnavailable):
		return Problem{Status: http.StatusServiceUnavailable, Message: "network unavailable"}
	case errors.Is(err, backend.ErrNotFound):
		return Problem{Status: http.StatusNotFound, Message: "not found"}
	case errors.Is(err, content.ErrUnknownAction):
		return Problem{Status: http.StatusBadRequest, Message: "unknown action"}
	case errors.Is(err, upload.ErrTooLarge):
		return Problem{Status: http.StatusRequestEntityTooLarge, Message: "image is too large"}
	case errors.Is(err, upload.ErrNotConfigured):
		return Problem{Status: http.StatusServiceUnavailable, Message: "image upload is not available"}
	case errors.Is(err, upload.ErrUpload),
		errors.Is(err, backend.ErrTokenExchange),
		errors.Is(err, backend.ErrUserFetch):
		return Problem{Status: http.StatusBadGateway, Message: "upstream error"}
	case errors.As(err, &statusErr) && statusErr.Code >= 400 && statusErr.Code < 500:
		msg := statusErr.Message
		if msg == "" {
			msg = http.StatusText(statusErr.Code)
		}
		return Problem{Status: statusErr.Code, Message: msg}
	case errors.As(err, &statusErr):
		return Problem{Status: http.StatusBadGateway, Message: "upstream error"}
	default:
		return Problem{Status: http.StatusInternalServerError, Message: "internal error"}
	}
}

// WriteError пишет ответ с ошибкой. Если бэкенд отклонил сессионный токен,
// сессия экземпляра завершается и клиент направляется на страницу входа.
func WriteError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	p := Classify(err)
	if p.Status >= http.StatusInternalServerError {
		log.Error("request failed", sl.Err(err))
	} else {
		log.Warn("request rejected", sl.Err(err))
	}

	if errors.Is(err, backend.ErrUnauthorized) {
		if inst, ierr := portal.FromContext(r.Context()); ierr == nil {
			if serr := inst.Identity.SignOut(context.WithoutCancel(r.Context())); serr != nil {
				log.Warn("sign out after rejected token failed", sl.Err(serr))
			}
		}
	}

	if p.Status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	if p.Location != "" {
		w.Header().Set("Location", p.Location)
		render.Status(r, p.Status)
		render.JSON(w, r, response.ErrorWithData(p.Message, map[string]string{"redirect": p.Location}))
		return
	}
	render.Status(r, p.Status)
	render.JSON(w, r, response.Error(p.Message))
}
