package ctxman

import "context"

type (
	// LangKey holds the texts.Lang chosen for the current update.
	LangKey struct{}
)

func With(ctx context.Context, key, value any) context.Context {
	return context.WithValue(ctx, key, value)
}

func Get[T any](ctx context.Context, key any) (T, bool) {
	var result T

	value := ctx.Value(key)
	if value == nil {
		return result, false
	}

	result, ok := value.(T)
	return result, ok
}

func Has(ctx context.Context, key any) bool {
	return ctx.Value(key) != nil
}
