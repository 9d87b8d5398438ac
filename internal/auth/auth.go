// Package auth is the identity provider: account signup and login, bcrypt
// password hashing and HS256 bearer tokens that resolve to a user id.
package auth

import "context"

// Authenticator turns a bearer token into a verified user id.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

type actorKey struct{}

// WithActor returns a copy of ctx carrying the verified user id.
func WithActor(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorFrom returns the user id stored by WithActor.
func ActorFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(actorKey{}).(string)
	return id, ok && id != ""
}
