package authorizer

import (
	"context"

	"github.com/sharingd/sharingd"
	"github.com/sharingd/sharingd/kit/platform/errors"
)

type contextKey string

const principalContextKey contextKey = "principal"

// WithPrincipal returns a context carrying the authenticated caller
// identity. The authentication layer installs it before any policy-checked
// call is made.
func WithPrincipal(ctx context.Context, p sharingd.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext retrieves the authenticated caller identity.
func PrincipalFromContext(ctx context.Context) (sharingd.Principal, error) {
	p, ok := ctx.Value(principalContextKey).(sharingd.Principal)
	if !ok {
		return "", &errors.Error{
			Code: errors.EUnauthorized,
			Msg:  "no principal found on context",
		}
	}
	return p, nil
}
