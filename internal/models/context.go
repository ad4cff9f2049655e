package models

import "context"

type callerContextKey struct{}

// Caller identifies the front end that issued an operation (web, admin, bot).
// It is carried through context so the store interfaces stay unchanged.
type Caller struct {
	Source  string
	ActorId string
}

// WithCaller attaches caller data to a context.
func WithCaller(ctx context.Context, c *Caller) context.Context {
	return context.WithValue(ctx, callerContextKey{}, c)
}

// CallerFromContext retrieves caller data from context, or nil if absent.
func CallerFromContext(ctx context.Context) *Caller {
	c, _ := ctx.Value(callerContextKey{}).(*Caller)
	return c
}

// CallerSource returns the caller source, or an empty string.
func CallerSource(ctx context.Context) string {
	if c := CallerFromContext(ctx); c != nil {
		return c.Source
	}
	return ""
}
