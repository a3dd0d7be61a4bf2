package mock

import (
	"context"

	"github.com/sharingd/sharingd"
)

var _ sharingd.Policy = (*Policy)(nil)

// Policy is a mock implementation of sharingd.Policy.
type Policy struct {
	AuthorizeFn func(ctx context.Context, principal sharingd.Principal, permission sharingd.Permission, resource sharingd.ResourceIdent) (sharingd.Decision, error)
}

// NewPolicy returns a mock policy that allows everything, where its
// behavior can be overridden by setting AuthorizeFn.
func NewPolicy() *Policy {
	return &Policy{
		AuthorizeFn: func(context.Context, sharingd.Principal, sharingd.Permission, sharingd.ResourceIdent) (sharingd.Decision, error) {
			return sharingd.Allow, nil
		},
	}
}

func (p *Policy) Authorize(ctx context.Context, principal sharingd.Principal, permission sharingd.Permission, resource sharingd.ResourceIdent) (sharingd.Decision, error) {
	return p.AuthorizeFn(ctx, principal, permission, resource)
}
