package sharingd

import (
	"context"
)

// Listing page size bounds shared by all store backends.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListOptions carries the optional parameters of a resource listing.
// PageToken values are backend-specific and opaque; a token minted by one
// backend is never valid against another.
type ListOptions struct {
	// NamespacePrefix scopes the listing to names under the given prefix.
	NamespacePrefix ResourceName
	// MaxResults caps the page size; it is clamped to MaxPageSize and
	// defaults to DefaultPageSize when zero.
	MaxResults int
	// PageToken resumes a previous listing.
	PageToken string
}

// AssociationListOptions carries the optional parameters of an association
// listing.
type AssociationListOptions struct {
	// TargetLabel restricts results to endpoints of the given kind.
	TargetLabel ObjectLabel
	MaxResults  int
	PageToken   string
}

// PageSize clamps the requested page size into the backend bounds.
func PageSize(requested int) int {
	if requested <= 0 {
		return DefaultPageSize
	}
	if requested > MaxPageSize {
		return MaxPageSize
	}
	return requested
}

// ResolvedResource pairs a resource with its canonical UUID reference.
type ResolvedResource struct {
	Resource Resource
	Ref      ResourceRef
}

// ResourceStore is the contract every catalog backend satisfies. All
// operations are safe for concurrent use; mutating operations are atomic per
// call only to the extent the backend documents.
type ResourceStore interface {
	// Get resolves a reference to the current resource and its canonical
	// UUID reference. Undefined references are rejected.
	Get(ctx context.Context, ident ResourceIdent) (Resource, ResourceRef, error)

	// GetMany resolves each ident independently; any single failure fails
	// the whole call.
	GetMany(ctx context.Context, idents []ResourceIdent) ([]ResolvedResource, error)

	// List returns resources of the label matching the optional namespace
	// prefix, newest-first by creation order. The returned token is
	// non-empty iff the page was full.
	List(ctx context.Context, label ObjectLabel, opts ListOptions) ([]Resource, string, error)

	// Create stores a new resource, minting its UUID. A resource with the
	// same (label, name) must not already exist.
	Create(ctx context.Context, r Resource) (Resource, ResourceRef, error)

	// Update replaces the payload of the resolved resource in place,
	// preserving its UUID and migrating the name index when the name
	// changed.
	Update(ctx context.Context, ident ResourceIdent, r Resource) (Resource, ResourceRef, error)

	// Delete removes the resolved resource.
	Delete(ctx context.Context, ident ResourceIdent) error

	// AddAssociation installs the labeled edge and its inverse between two
	// stored resources.
	AddAssociation(ctx context.Context, from, to ResourceIdent, label AssociationLabel, properties map[string]interface{}) error

	// RemoveAssociation removes the labeled edge and its inverse.
	RemoveAssociation(ctx context.Context, from, to ResourceIdent, label AssociationLabel) error

	// ListAssociations lists the other endpoints of edges with the given
	// label originating at the resource, newest-first.
	ListAssociations(ctx context.Context, resource ResourceIdent, label AssociationLabel, opts AssociationListOptions) ([]ResourceIdent, string, error)
}
