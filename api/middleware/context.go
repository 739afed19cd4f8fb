package middleware

import "context"

type contextKey string

const ctxDirectorID contextKey = "director_id"

func DirectorIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxDirectorID).(string); ok {
		return v
	}
	return ""
}

// WithDirectorID injects the acting director's identifier into the context.
func WithDirectorID(ctx context.Context, directorID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxDirectorID, directorID)
}
