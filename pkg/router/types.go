package router

import "context"

// MatchFunc reports whether a route accepts the update.
type MatchFunc[U, E any] func(update U, env E) bool

// HandlerFunc is the terminal handler of a route. The next continuation handed
// to middleware has the same shape.
type HandlerFunc[U, E, R any] func(ctx context.Context, update U, env E) (R, error)

// MiddlewareFunc runs ahead of the terminal handler.
type MiddlewareFunc[U, E, R any] func(ctx context.Context, update U, next HandlerFunc[U, E, R], env E) (Outcome[R], error)

// ErrorHandlerFunc turns a failed dispatch into a result.
type ErrorHandlerFunc[U, E, R any] func(ctx context.Context, update U, err error, env E) (R, error)

// Outcome is what a middleware decided: either a final value or fall through.
// The zero Outcome falls through.
type Outcome[R any] struct {
	value R
	done  bool
}

// Return ends the chain with value.
func Return[R any](value R) Outcome[R] {
	return Outcome[R]{value: value, done: true}
}

// Continue falls through to the terminal handler.
func Continue[R any]() Outcome[R] {
	return Outcome[R]{}
}

// Value returns the short-circuit value and whether there is one.
func (o Outcome[R]) Value() (R, bool) {
	return o.value, o.done
}
