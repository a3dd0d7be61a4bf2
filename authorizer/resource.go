// Package authorizer wraps the resource store with policy checks: single-item
// operations fail outright when denied, listings are filtered item by item.
package authorizer

import (
	"context"

	"github.com/sharingd/sharingd"
	"github.com/sharingd/sharingd/kit/platform/errors"
)

var _ sharingd.ResourceStore = (*ResourceService)(nil)

// ResourceService wraps a sharingd.ResourceStore and authorizes every
// operation against the configured policy, using the principal carried on
// the context.
type ResourceService struct {
	s      sharingd.ResourceStore
	policy sharingd.Policy
}

// NewResourceService constructs an authorizing resource service.
func NewResourceService(s sharingd.ResourceStore, policy sharingd.Policy) *ResourceService {
	return &ResourceService{
		s:      s,
		policy: policy,
	}
}

// check fails with ErrNotAllowed unless the policy allows the permission on
// the resource for the context's principal.
func (s *ResourceService) check(ctx context.Context, permission sharingd.Permission, ident sharingd.ResourceIdent) error {
	principal, err := PrincipalFromContext(ctx)
	if err != nil {
		return err
	}
	decision, err := s.policy.Authorize(ctx, principal, permission, ident)
	if err != nil {
		return err
	}
	if decision != sharingd.Allow {
		return sharingd.ErrNotAllowed
	}
	return nil
}

// Get resolves the reference and then requires read access on the canonical
// identity. There is nothing to filter for a single-item lookup, so a denial
// fails the whole call.
func (s *ResourceService) Get(ctx context.Context, ident sharingd.ResourceIdent) (sharingd.Resource, sharingd.ResourceRef, error) {
	r, ref, err := s.s.Get(ctx, ident)
	if err != nil {
		return nil, sharingd.ResourceRef{}, err
	}
	if err := s.check(ctx, sharingd.PermissionRead, sharingd.Ident(r.ObjectLabel(), ref)); err != nil {
		return nil, sharingd.ResourceRef{}, err
	}
	return r, ref, nil
}

func (s *ResourceService) GetMany(ctx context.Context, idents []sharingd.ResourceIdent) ([]sharingd.ResolvedResource, error) {
	out := make([]sharingd.ResolvedResource, 0, len(idents))
	for _, ident := range idents {
		r, ref, err := s.Get(ctx, ident)
		if err != nil {
			return nil, err
		}
		out = append(out, sharingd.ResolvedResource{Resource: r, Ref: ref})
	}
	return out, nil
}

// List fetches a raw page and retains only the resources the policy allows
// the principal to read, preserving relative order. A page can come back
// empty while its continuation token is non-empty; callers that must not
// surface that as end-of-results use the discovery layer's skip loop.
//
// A missing principal fails the whole call; only policy denials for
// individual items are filtered out.
func (s *ResourceService) List(ctx context.Context, label sharingd.ObjectLabel, opts sharingd.ListOptions) ([]sharingd.Resource, string, error) {
	if _, err := PrincipalFromContext(ctx); err != nil {
		return nil, "", err
	}

	rs, next, err := s.s.List(ctx, label, opts)
	if err != nil {
		return nil, "", err
	}

	filtered := rs[:0]
	for _, r := range rs {
		err := s.check(ctx, sharingd.PermissionRead, sharingd.Ident(r.ObjectLabel(), r.ResourceRef()))
		if err != nil && errors.ErrorCode(err) != errors.EUnauthorized {
			return nil, "", err
		}
		if err != nil {
			continue
		}
		filtered = append(filtered, r)
	}
	return filtered, next, nil
}

// Create requires create access on the label, checked against the undefined
// wildcard reference since the resource does not exist yet.
func (s *ResourceService) Create(ctx context.Context, r sharingd.Resource) (sharingd.Resource, sharingd.ResourceRef, error) {
	if err := s.check(ctx, sharingd.PermissionCreate, sharingd.Ident(r.ObjectLabel(), sharingd.UndefinedRef())); err != nil {
		return nil, sharingd.ResourceRef{}, err
	}
	return s.s.Create(ctx, r)
}

// Update requires write access on the resolved resource.
func (s *ResourceService) Update(ctx context.Context, ident sharingd.ResourceIdent, r sharingd.Resource) (sharingd.Resource, sharingd.ResourceRef, error) {
	cur, ref, err := s.s.Get(ctx, ident)
	if err != nil {
		return nil, sharingd.ResourceRef{}, err
	}
	if err := s.check(ctx, sharingd.PermissionWrite, sharingd.Ident(cur.ObjectLabel(), ref)); err != nil {
		return nil, sharingd.ResourceRef{}, err
	}
	return s.s.Update(ctx, ident, r)
}

// Delete requires manage access on the resolved resource.
func (s *ResourceService) Delete(ctx context.Context, ident sharingd.ResourceIdent) error {
	cur, ref, err := s.s.Get(ctx, ident)
	if err != nil {
		return err
	}
	if err := s.check(ctx, sharingd.PermissionManage, sharingd.Ident(cur.ObjectLabel(), ref)); err != nil {
		return err
	}
	return s.s.Delete(ctx, ident)
}

// AddAssociation requires write access on the source and read access on the
// target.
func (s *ResourceService) AddAssociation(ctx context.Context, from, to sharingd.ResourceIdent, label sharingd.AssociationLabel, properties map[string]interface{}) error {
	if err := s.check(ctx, sharingd.PermissionWrite, from); err != nil {
		return err
	}
	if err := s.check(ctx, sharingd.PermissionRead, to); err != nil {
		return err
	}
	return s.s.AddAssociation(ctx, from, to, label, properties)
}

// RemoveAssociation requires write access on the source.
func (s *ResourceService) RemoveAssociation(ctx context.Context, from, to sharingd.ResourceIdent, label sharingd.AssociationLabel) error {
	if err := s.check(ctx, sharingd.PermissionWrite, from); err != nil {
		return err
	}
	return s.s.RemoveAssociation(ctx, from, to, label)
}

// ListAssociations requires read access on the source resource and filters
// the listed targets down to those the principal may read.
func (s *ResourceService) ListAssociations(ctx context.Context, resource sharingd.ResourceIdent, label sharingd.AssociationLabel, opts sharingd.AssociationListOptions) ([]sharingd.ResourceIdent, string, error) {
	if err := s.check(ctx, sharingd.PermissionRead, resource); err != nil {
		return nil, "", err
	}

	idents, next, err := s.s.ListAssociations(ctx, resource, label, opts)
	if err != nil {
		return nil, "", err
	}

	filtered := idents[:0]
	for _, ident := range idents {
		err := s.check(ctx, sharingd.PermissionRead, ident)
		if err != nil && errors.ErrorCode(err) != errors.EUnauthorized {
			return nil, "", err
		}
		if err != nil {
			continue
		}
		filtered = append(filtered, ident)
	}
	return filtered, next, nil
}
