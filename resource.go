package sharingd

import (
	"strings"

	"github.com/google/uuid"

	"github.com/sharingd/sharingd/kit/platform/errors"
)

// ObjectLabel identifies the kind of a catalog resource. The set is closed;
// every store backend and the policy engine switch exhaustively over it.
type ObjectLabel string

const (
	ObjectLabelShare            ObjectLabel = "share"
	ObjectLabelSharingSchema    ObjectLabel = "sharing_schema"
	ObjectLabelSharingTable     ObjectLabel = "sharing_table"
	ObjectLabelCredential       ObjectLabel = "credential"
	ObjectLabelCatalog          ObjectLabel = "catalog"
	ObjectLabelSchema           ObjectLabel = "schema"
	ObjectLabelTable            ObjectLabel = "table"
	ObjectLabelExternalLocation ObjectLabel = "external_location"
	ObjectLabelRecipient        ObjectLabel = "recipient"
	ObjectLabelColumn           ObjectLabel = "column"
)

// Valid reports whether l is one of the known labels.
func (l ObjectLabel) Valid() bool {
	switch l {
	case ObjectLabelShare, ObjectLabelSharingSchema, ObjectLabelSharingTable,
		ObjectLabelCredential, ObjectLabelCatalog, ObjectLabelSchema,
		ObjectLabelTable, ObjectLabelExternalLocation, ObjectLabelRecipient,
		ObjectLabelColumn:
		return true
	}
	return false
}

// ResourceName is an ordered, non-empty sequence of case-normalized path
// segments, e.g. [catalog, schema, table]. Names are unique within an
// (ObjectLabel, namespace-prefix) scope.
type ResourceName []string

// NewResourceName builds a name from its segments. Segments are lower-cased;
// empty segments are rejected.
func NewResourceName(segments ...string) (ResourceName, error) {
	if len(segments) == 0 {
		return nil, &errors.Error{
			Code: errors.EInvalid,
			Msg:  "resource name must have at least one segment",
		}
	}
	n := make(ResourceName, 0, len(segments))
	for _, seg := range segments {
		if seg == "" {
			return nil, &errors.Error{
				Code: errors.EInvalid,
				Msg:  "resource name segment must not be empty",
			}
		}
		n = append(n, strings.ToLower(seg))
	}
	return n, nil
}

// ParseResourceName parses a dotted string ("share.schema.table") into a
// resource name, rejecting empty segments.
func ParseResourceName(s string) (ResourceName, error) {
	return NewResourceName(strings.Split(s, ".")...)
}

// String renders the name in dotted form.
func (n ResourceName) String() string {
	return strings.Join(n, ".")
}

// Equal reports whether both names have identical segment sequences.
func (n ResourceName) Equal(other ResourceName) bool {
	if len(n) != len(other) {
		return false
	}
	for i := range n {
		if n[i] != other[i] {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix matches the leading segments of n. It is
// used to scope listings to a namespace; every name has the empty prefix.
func (n ResourceName) HasPrefix(prefix ResourceName) bool {
	if len(prefix) > len(n) {
		return false
	}
	for i := range prefix {
		if n[i] != prefix[i] {
			return false
		}
	}
	return true
}

// RefKind discriminates the variants of a ResourceRef.
type RefKind int

const (
	// RefUndefined is the wildcard reference. It never resolves to a stored
	// resource; it is only meaningful for kind-scoped policy checks such as
	// "may this recipient create resources of this label".
	RefUndefined RefKind = iota
	// RefUUID references a resource by its immutable 128-bit identifier.
	RefUUID
	// RefName references a resource by its mutable, label-scoped name.
	RefName
)

// ResourceRef is a reference to a resource: a UUID, a name, or the undefined
// wildcard. Equality is kind-sensitive — a UUID ref and a name ref are never
// equal, even when they resolve to the same resource. Resolving a ref to its
// canonical identity is the store's job, not this layer's.
type ResourceRef struct {
	kind RefKind
	id   uuid.UUID
	name ResourceName
}

// UUIDRef references a resource by UUID.
func UUIDRef(id uuid.UUID) ResourceRef {
	return ResourceRef{kind: RefUUID, id: id}
}

// NameRef references a resource by name.
func NameRef(name ResourceName) ResourceRef {
	return ResourceRef{kind: RefName, name: name}
}

// UndefinedRef is the wildcard reference. The zero ResourceRef is equivalent.
func UndefinedRef() ResourceRef {
	return ResourceRef{kind: RefUndefined}
}

// Kind returns the variant of the reference.
func (r ResourceRef) Kind() RefKind {
	return r.kind
}

// IsUndefined reports whether the ref is the wildcard.
func (r ResourceRef) IsUndefined() bool {
	return r.kind == RefUndefined
}

// UUID returns the referenced UUID. ok is false unless Kind is RefUUID.
func (r ResourceRef) UUID() (uuid.UUID, bool) {
	return r.id, r.kind == RefUUID
}

// Name returns the referenced name. ok is false unless Kind is RefName.
func (r ResourceRef) Name() (ResourceName, bool) {
	return r.name, r.kind == RefName
}

// Equal compares two refs. The comparison is reference-kind-sensitive.
func (r ResourceRef) Equal(other ResourceRef) bool {
	if r.kind != other.kind {
		return false
	}
	switch r.kind {
	case RefUUID:
		return r.id == other.id
	case RefName:
		return r.name.Equal(other.name)
	}
	return true
}

// String renders the ref for logs and error messages.
func (r ResourceRef) String() string {
	switch r.kind {
	case RefUUID:
		return r.id.String()
	case RefName:
		return r.name.String()
	}
	return "<undefined>"
}

// ResourceIdent pairs an ObjectLabel with a ResourceRef. It is the canonical
// handle accepted by every store operation and every policy check.
type ResourceIdent struct {
	Label ObjectLabel
	Ref   ResourceRef
}

// Ident builds a ResourceIdent.
func Ident(label ObjectLabel, ref ResourceRef) ResourceIdent {
	return ResourceIdent{Label: label, Ref: ref}
}

// String renders the ident for logs and error messages.
func (i ResourceIdent) String() string {
	return string(i.Label) + ":" + i.Ref.String()
}
