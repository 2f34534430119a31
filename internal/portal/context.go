package portal

import (
	"context"
	"errors"
)

// ErrNoInstance возвращается, если в контексте запроса нет экземпляра браузера.
var ErrNoInstance = errors.New("no browser instance in context")

type ctxKey struct{}

// WithInstance кладёт экземпляр в контекст запроса.
func WithInstance(ctx context.Context, inst *Instance) context.Context {
	return context.WithValue(ctx, ctxKey{}, inst)
}

// FromContext достаёт экземпляр, положенный WithInstance.
func FromContext(ctx context.Context) (*Instance, error) {
	inst, ok := ctx.Value(ctxKey{}).(*Instance)
	if !ok || inst == nil {
		return nil, ErrNoInstance
	}
	return inst, nil
}
