package worker

import (
	"context"
	"errors"
)

type EventHandler func(ctx context.Context, data []byte) error

// Router dispatches a broker event to every handler registered for its name.
type Router struct {
	handlers map[string][]EventHandler
}

func NewRouter(handlers map[string][]EventHandler) *Router {
	return &Router{
		handlers: handlers,
	}
}

// Handle runs the handlers of event in order. Events without handlers are
// ignored and report false.
func (this *Router) Handle(ctx context.Context, event string, data []byte) (bool, error) {
	handlers, ok := this.handlers[event]
	if !ok {
		return false, nil
	}

	var errs []error
	for _, handler := range handlers {
		err := handler(ctx, data)
		if err != nil {
			errs = append(errs, err)
		}
	}

	return true, errors.Join(errs...)
}
