package mock

import (
	"context"

	"github.com/sharingd/sharingd"
)

var _ sharingd.ResourceStore = (*ResourceStore)(nil)

// ResourceStore is a mock implementation of sharingd.ResourceStore. Unset
// functions return the NotFound sentinel so a test only scripts the calls it
// cares about.
type ResourceStore struct {
	GetFn               func(ctx context.Context, ident sharingd.ResourceIdent) (sharingd.Resource, sharingd.ResourceRef, error)
	GetManyFn           func(ctx context.Context, idents []sharingd.ResourceIdent) ([]sharingd.ResolvedResource, error)
	ListFn              func(ctx context.Context, label sharingd.ObjectLabel, opts sharingd.ListOptions) ([]sharingd.Resource, string, error)
	CreateFn            func(ctx context.Context, r sharingd.Resource) (sharingd.Resource, sharingd.ResourceRef, error)
	UpdateFn            func(ctx context.Context, ident sharingd.ResourceIdent, r sharingd.Resource) (sharingd.Resource, sharingd.ResourceRef, error)
	DeleteFn            func(ctx context.Context, ident sharingd.ResourceIdent) error
	AddAssociationFn    func(ctx context.Context, from, to sharingd.ResourceIdent, label sharingd.AssociationLabel, properties map[string]interface{}) error
	RemoveAssociationFn func(ctx context.Context, from, to sharingd.ResourceIdent, label sharingd.AssociationLabel) error
	ListAssociationsFn  func(ctx context.Context, resource sharingd.ResourceIdent, label sharingd.AssociationLabel, opts sharingd.AssociationListOptions) ([]sharingd.ResourceIdent, string, error)
}

func (s *ResourceStore) Get(ctx context.Context, ident sharingd.ResourceIdent) (sharingd.Resource, sharingd.ResourceRef, error) {
	if s.GetFn == nil {
		return nil, sharingd.ResourceRef{}, sharingd.ErrResourceNotFound
	}
	return s.GetFn(ctx, ident)
}

func (s *ResourceStore) GetMany(ctx context.Context, idents []sharingd.ResourceIdent) ([]sharingd.ResolvedResource, error) {
	if s.GetManyFn == nil {
		return nil, sharingd.ErrResourceNotFound
	}
	return s.GetManyFn(ctx, idents)
}

func (s *ResourceStore) List(ctx context.Context, label sharingd.ObjectLabel, opts sharingd.ListOptions) ([]sharingd.Resource, string, error) {
	if s.ListFn == nil {
		return nil, "", nil
	}
	return s.ListFn(ctx, label, opts)
}

func (s *ResourceStore) Create(ctx context.Context, r sharingd.Resource) (sharingd.Resource, sharingd.ResourceRef, error) {
	if s.CreateFn == nil {
		return nil, sharingd.ResourceRef{}, sharingd.ErrResourceNotFound
	}
	return s.CreateFn(ctx, r)
}

func (s *ResourceStore) Update(ctx context.Context, ident sharingd.ResourceIdent, r sharingd.Resource) (sharingd.Resource, sharingd.ResourceRef, error) {
	if s.UpdateFn == nil {
		return nil, sharingd.ResourceRef{}, sharingd.ErrResourceNotFound
	}
	return s.UpdateFn(ctx, ident, r)
}

func (s *ResourceStore) Delete(ctx context.Context, ident sharingd.ResourceIdent) error {
	if s.DeleteFn == nil {
		return sharingd.ErrResourceNotFound
	}
	return s.DeleteFn(ctx, ident)
}

func (s *ResourceStore) AddAssociation(ctx context.Context, from, to sharingd.ResourceIdent, label sharingd.AssociationLabel, properties map[string]interface{}) error {
	if s.AddAssociationFn == nil {
		return sharingd.ErrResourceNotFound
	}
	return s.AddAssociationFn(ctx, from, to, label, properties)
}

func (s *ResourceStore) RemoveAssociation(ctx context.Context, from, to sharingd.ResourceIdent, label sharingd.AssociationLabel) error {
	if s.RemoveAssociationFn == nil {
		return sharingd.ErrResourceNotFound
	}
	return s.RemoveAssociationFn(ctx, from, to, label)
}

func (s *ResourceStore) ListAssociations(ctx context.Context, resource sharingd.ResourceIdent, label sharingd.AssociationLabel, opts sharingd.AssociationListOptions) ([]sharingd.ResourceIdent, string, error) {
	if s.ListAssociationsFn == nil {
		return nil, "", nil
	}
	return s.ListAssociationsFn(ctx, resource, label, opts)
}
