// Package sharing implements the recipient-facing discovery surface: the
// shares, schemas, and tables visible to the calling principal.
package sharing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/sharingd/sharingd"
	"github.com/sharingd/sharingd/kit/platform/errors"
)

var _ sharingd.SharingService = (*Service)(nil)

// Service answers discovery queries against an authorization-filtered
// resource store (see authorizer.ResourceService). Because filtering happens
// after fetch, a raw page can filter down to nothing while more pages
// remain; listings here advance the cursor until a visible item or a real
// end of results, so an empty terminal page is never premature.
type Service struct {
	store sharingd.ResourceStore
	log   *zap.Logger
}

// NewService returns a discovery service over the given store. The store is
// expected to filter listings by the context principal's read access.
func NewService(log *zap.Logger, store sharingd.ResourceStore) *Service {
	return &Service{
		store: store,
		log:   log,
	}
}

// listVisible pages through the store until a page survives filtering or
// the store reports no more pages.
func (s *Service) listVisible(ctx context.Context, label sharingd.ObjectLabel, opts sharingd.ListOptions) ([]sharingd.Resource, string, error) {
	for {
		page, next, err := s.store.List(ctx, label, opts)
		if err != nil {
			return nil, "", err
		}
		if len(page) > 0 || next == "" {
			return page, next, nil
		}
		// every item on the raw page was denied; advance the cursor
		opts.PageToken = next
	}
}

// listVisibleAssociations is listVisible over association targets.
func (s *Service) listVisibleAssociations(ctx context.Context, resource sharingd.ResourceIdent, label sharingd.AssociationLabel, opts sharingd.AssociationListOptions) ([]sharingd.ResourceIdent, string, error) {
	for {
		page, next, err := s.store.ListAssociations(ctx, resource, label, opts)
		if err != nil {
			return nil, "", err
		}
		if len(page) > 0 || next == "" {
			return page, next, nil
		}
		opts.PageToken = next
	}
}

func (s *Service) ListShares(ctx context.Context, opts sharingd.ListOptions) ([]*sharingd.Share, string, error) {
	page, next, err := s.listVisible(ctx, sharingd.ObjectLabelShare, opts)
	if err != nil {
		return nil, "", err
	}

	shares := make([]*sharingd.Share, 0, len(page))
	for _, r := range page {
		share, ok := r.(*sharingd.Share)
		if !ok {
			return nil, "", unexpectedVariantErr(r)
		}
		shares = append(shares, share)
	}
	return shares, next, nil
}

func (s *Service) GetShare(ctx context.Context, name string) (*sharingd.Share, error) {
	rn, err := sharingd.NewResourceName(name)
	if err != nil {
		return nil, err
	}

	r, _, err := s.store.Get(ctx, sharingd.Ident(sharingd.ObjectLabelShare, sharingd.NameRef(rn)))
	if err != nil {
		return nil, err
	}
	share, ok := r.(*sharingd.Share)
	if !ok {
		return nil, unexpectedVariantErr(r)
	}
	return share, nil
}

func (s *Service) ListSchemas(ctx context.Context, share string, opts sharingd.ListOptions) ([]*sharingd.SharingSchema, string, error) {
	shareRef, err := s.shareIdent(ctx, share)
	if err != nil {
		return nil, "", err
	}

	idents, next, err := s.listVisibleAssociations(ctx,
		sharingd.Ident(sharingd.ObjectLabelShare, shareRef),
		sharingd.AssociationLabelParentOf,
		sharingd.AssociationListOptions{
			TargetLabel: sharingd.ObjectLabelSharingSchema,
			MaxResults:  opts.MaxResults,
			PageToken:   opts.PageToken,
		})
	if err != nil {
		return nil, "", err
	}

	resolved, err := s.store.GetMany(ctx, idents)
	if err != nil {
		return nil, "", err
	}
	schemas := make([]*sharingd.SharingSchema, 0, len(resolved))
	for _, rr := range resolved {
		schema, ok := rr.Resource.(*sharingd.SharingSchema)
		if !ok {
			return nil, "", unexpectedVariantErr(rr.Resource)
		}
		schemas = append(schemas, schema)
	}
	return schemas, next, nil
}

func (s *Service) ListSchemaTables(ctx context.Context, share, schema string, opts sharingd.ListOptions) ([]*sharingd.SharingTable, string, error) {
	rn, err := sharingd.NewResourceName(share, schema)
	if err != nil {
		return nil, "", err
	}
	_, schemaRef, err := s.store.Get(ctx, sharingd.Ident(sharingd.ObjectLabelSharingSchema, sharingd.NameRef(rn)))
	if err != nil {
		return nil, "", err
	}

	idents, next, err := s.listVisibleAssociations(ctx,
		sharingd.Ident(sharingd.ObjectLabelSharingSchema, schemaRef),
		sharingd.AssociationLabelParentOf,
		sharingd.AssociationListOptions{
			TargetLabel: sharingd.ObjectLabelSharingTable,
			MaxResults:  opts.MaxResults,
			PageToken:   opts.PageToken,
		})
	if err != nil {
		return nil, "", err
	}

	resolved, err := s.store.GetMany(ctx, idents)
	if err != nil {
		return nil, "", err
	}
	tables := make([]*sharingd.SharingTable, 0, len(resolved))
	for _, rr := range resolved {
		table, ok := rr.Resource.(*sharingd.SharingTable)
		if !ok {
			return nil, "", unexpectedVariantErr(rr.Resource)
		}
		tables = append(tables, table)
	}
	return tables, next, nil
}

// ListShareTables lists every visible table in the share across all of its
// schemas, via a namespace-prefix listing.
func (s *Service) ListShareTables(ctx context.Context, share string, opts sharingd.ListOptions) ([]*sharingd.SharingTable, string, error) {
	if _, err := s.shareIdent(ctx, share); err != nil {
		return nil, "", err
	}

	prefix, err := sharingd.NewResourceName(share)
	if err != nil {
		return nil, "", err
	}
	opts.NamespacePrefix = prefix

	page, next, err := s.listVisible(ctx, sharingd.ObjectLabelSharingTable, opts)
	if err != nil {
		return nil, "", err
	}
	tables := make([]*sharingd.SharingTable, 0, len(page))
	for _, r := range page {
		table, ok := r.(*sharingd.SharingTable)
		if !ok {
			return nil, "", unexpectedVariantErr(r)
		}
		tables = append(tables, table)
	}
	return tables, next, nil
}

// shareIdent resolves a share by name, surfacing NotFound or NotAllowed
// before any listing work happens.
func (s *Service) shareIdent(ctx context.Context, share string) (sharingd.ResourceRef, error) {
	rn, err := sharingd.NewResourceName(share)
	if err != nil {
		return sharingd.ResourceRef{}, err
	}
	_, ref, err := s.store.Get(ctx, sharingd.Ident(sharingd.ObjectLabelShare, sharingd.NameRef(rn)))
	return ref, err
}

func unexpectedVariantErr(r sharingd.Resource) error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  fmt.Sprintf("unexpected resource variant %T in listing", r),
	}
}
