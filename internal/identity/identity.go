// Package identity carries the acting owner through a context.Context.
// The engine consumes identity; issuing sessions is the caller's problem.
package identity

import "context"

// Actor is the authenticated owner performing an operation.
type Actor struct {
	ID   string
	Name string
}

type ctxKey struct{}

// WithActor returns a context carrying the given actor.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// ActorFrom extracts the actor from the context. ok is false when the
// context carries no identity.
func ActorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}
