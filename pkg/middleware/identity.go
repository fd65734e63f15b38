package middleware

import (
	"context"
)

type contextKeyType string

const identityKey contextKeyType = "identity"

// Identity is the authenticated caller attached to the request context by the
// authentication middleware. Role is the role name current in the store at
// request time, not the one embedded in the token.
type Identity struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// WithIdentity returns a new context carrying the authenticated identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext extracts the authenticated identity from the request
// context. ok is false for anonymous requests.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
