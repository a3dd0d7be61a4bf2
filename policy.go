package sharingd

import (
	"context"
)

// Principal is the externally authenticated caller identity. It is supplied
// by the authentication layer and passed through to policy checks opaquely;
// this core neither parses nor validates it.
type Principal string

// Permission is the action a policy check authorizes.
type Permission string

const (
	PermissionRead   Permission = "read"
	PermissionWrite  Permission = "write"
	PermissionManage Permission = "manage"
	PermissionCreate Permission = "create"
)

// Decision is the outcome of a policy check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

// String renders the decision for logs.
func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Policy decides whether a principal may perform an action on a resource.
// The resource may be identified by an Undefined ref for kind-scoped checks
// such as "may this principal create resources of this label".
//
// Implementations must be safe for concurrent use.
type Policy interface {
	Authorize(ctx context.Context, principal Principal, permission Permission, resource ResourceIdent) (Decision, error)
}

// OpenPolicy allows every action. Useful for embedding and tests.
type OpenPolicy struct{}

var _ Policy = (*OpenPolicy)(nil)

func (OpenPolicy) Authorize(context.Context, Principal, Permission, ResourceIdent) (Decision, error) {
	return Allow, nil
}
