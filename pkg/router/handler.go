package router

import (
	"context"
	"runtime/debug"
	"slices"
)

// Handler binds one predicate to one terminal handler and its route-scoped
// middleware.
type Handler[U, E, R any] struct {
	match       MatchFunc[U, E]
	handler     HandlerFunc[U, E, R]
	middlewares []MiddlewareFunc[U, E, R]
}

func NewHandler[U, E, R any](match MatchFunc[U, E], handler HandlerFunc[U, E, R], middlewares ...MiddlewareFunc[U, E, R]) *Handler[U, E, R] {
	return &Handler[U, E, R]{
		match:       match,
		handler:     handler,
		middlewares: slices.Clone(middlewares),
	}
}

func (h *Handler[U, E, R]) Match(update U, env E) bool {
	return h.match(update, env)
}

// Handle runs the route's middleware followed by its terminal handler.
func (h *Handler[U, E, R]) Handle(ctx context.Context, update U, env E) (R, error) {
	return execute(ctx, update, env, h.middlewares, h.handler)
}

// execute runs one chain. The cursor is local to the call, so concurrent
// dispatches never share position.
func execute[U, E, R any](ctx context.Context, update U, env E, middlewares []MiddlewareFunc[U, E, R], handler HandlerFunc[U, E, R]) (result R, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			var zero R
			result = zero
			err = &PanicError{Value: recovered, Stack: string(debug.Stack())}
		}
	}()

	index := 0
	var next HandlerFunc[U, E, R]
	next = func(ctx context.Context, update U, env E) (R, error) {
		if index < len(middlewares) {
			middleware := middlewares[index]
			// advance first so a nested next() resumes after this middleware
			index++

			outcome, err := middleware(ctx, update, next, env)
			if err != nil {
				var zero R
				return zero, err
			}
			if value, ok := outcome.Value(); ok {
				return value, nil
			}
		}
		return handler(ctx, update, env)
	}

	return next(ctx, update, env)
}
