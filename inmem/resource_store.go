package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sharingd/sharingd"
	"github.com/sharingd/sharingd/kit/platform/errors"
	"github.com/sharingd/sharingd/uuidgen"
)

var _ sharingd.ResourceStore = (*ResourceStore)(nil)

// ResourceStore is a concurrent, map-backed catalog store intended for tests
// and embedding.
//
// Three independent maps hold the state: resources by UUID, a per-label
// name index, and labeled edges. Individual map operations are atomic but
// sequences across maps are not wrapped in a cross-map lock: two concurrent
// creates of the same name can race past the uniqueness pre-check, and
// delete does not cascade association removal. Both gaps are intentional
// for this backend and covered by tests.
type ResourceStore struct {
	resources    sync.Map // uuid.UUID -> *sharingd.Object
	names        sync.Map // sharingd.ObjectLabel -> *sync.Map (name string -> uuid.UUID)
	associations sync.Map // edgeKey -> *sync.Map (uuid.UUID -> edge)

	idGen *uuidgen.IDGenerator
	time  func() time.Time
}

type edgeKey struct {
	from  uuid.UUID
	label sharingd.AssociationLabel
}

// edge carries the payload of one direction of an association. The target
// label is denormalized so listings do not depend on the target resource
// still existing.
type edge struct {
	properties  map[string]interface{}
	targetLabel sharingd.ObjectLabel
}

// NewResourceStore creates an empty in-process store.
func NewResourceStore() *ResourceStore {
	return &ResourceStore{
		idGen: uuidgen.NewIDGenerator(),
		time:  time.Now,
	}
}

// WithTime overrides the clock used for created/updated stamps. Tests only.
func (s *ResourceStore) WithTime(fn func() time.Time) {
	s.time = fn
}

func (s *ResourceStore) nameIndex(label sharingd.ObjectLabel) *sync.Map {
	idx, _ := s.names.LoadOrStore(label, &sync.Map{})
	return idx.(*sync.Map)
}

func (s *ResourceStore) edges(from uuid.UUID, label sharingd.AssociationLabel) *sync.Map {
	m, _ := s.associations.LoadOrStore(edgeKey{from: from, label: label}, &sync.Map{})
	return m.(*sync.Map)
}

// resolve returns the stored object an ident refers to.
func (s *ResourceStore) resolve(ident sharingd.ResourceIdent) (*sharingd.Object, error) {
	switch ident.Ref.Kind() {
	case sharingd.RefUUID:
		id, _ := ident.Ref.UUID()
		v, ok := s.resources.Load(id)
		if !ok {
			return nil, sharingd.ErrResourceNotFound
		}
		obj := v.(*sharingd.Object)
		if obj.Label != ident.Label {
			return nil, sharingd.ErrResourceNotFound
		}
		return obj, nil
	case sharingd.RefName:
		name, _ := ident.Ref.Name()
		v, ok := s.nameIndex(ident.Label).Load(name.String())
		if !ok {
			return nil, sharingd.ErrResourceNotFound
		}
		return s.resolve(sharingd.Ident(ident.Label, sharingd.UUIDRef(v.(uuid.UUID))))
	}
	return nil, sharingd.ErrUndefinedRef
}

func (s *ResourceStore) Get(ctx context.Context, ident sharingd.ResourceIdent) (sharingd.Resource, sharingd.ResourceRef, error) {
	obj, err := s.resolve(ident)
	if err != nil {
		return nil, sharingd.ResourceRef{}, err
	}
	r, err := obj.Resource()
	if err != nil {
		return nil, sharingd.ResourceRef{}, err
	}
	return r, sharingd.UUIDRef(obj.ID), nil
}

func (s *ResourceStore) GetMany(ctx context.Context, idents []sharingd.ResourceIdent) ([]sharingd.ResolvedResource, error) {
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

func (s *ResourceStore) List(ctx context.Context, label sharingd.ObjectLabel, opts sharingd.ListOptions) ([]sharingd.Resource, string, error) {
	limit := sharingd.PageSize(opts.MaxResults)

	var cursor uuid.UUID
	hasCursor := opts.PageToken != ""
	if hasCursor {
		id, err := uuid.Parse(opts.PageToken)
		if err != nil {
			return nil, "", sharingd.ErrInvalidPageToken
		}
		cursor = id
	}

	var ids []uuid.UUID
	var rangeErr error
	s.nameIndex(label).Range(func(k, v interface{}) bool {
		if len(opts.NamespacePrefix) > 0 {
			name, err := sharingd.ParseResourceName(k.(string))
			if err != nil {
				rangeErr = err
				return false
			}
			if !name.HasPrefix(opts.NamespacePrefix) {
				return true
			}
		}
		ids = append(ids, v.(uuid.UUID))
		return true
	})
	if rangeErr != nil {
		return nil, "", rangeErr
	}

	// Newest first; IDs are time-ordered.
	sort.Slice(ids, func(i, j int) bool { return uuidgen.Less(ids[j], ids[i]) })

	resources := make([]sharingd.Resource, 0, limit)
	var last uuid.UUID
	for _, id := range ids {
		if hasCursor && !uuidgen.Less(id, cursor) {
			continue
		}
		v, ok := s.resources.Load(id)
		if !ok {
			// raced with a delete
			continue
		}
		r, err := v.(*sharingd.Object).Resource()
		if err != nil {
			return nil, "", err
		}
		resources = append(resources, r)
		last = id
		if len(resources) == limit {
			break
		}
	}

	next := ""
	if len(resources) == limit {
		next = last.String()
	}
	return resources, next, nil
}

func (s *ResourceStore) Create(ctx context.Context, r sharingd.Resource) (sharingd.Resource, sharingd.ResourceRef, error) {
	obj, err := sharingd.ObjectFromResource(r)
	if err != nil {
		return nil, sharingd.ResourceRef{}, err
	}
	if !obj.Label.Valid() {
		return nil, sharingd.ResourceRef{}, &errors.Error{
			Code: errors.EInvalid,
			Msg:  "invalid object label",
		}
	}

	idx := s.nameIndex(obj.Label)
	nameKey := obj.Name.String()
	if _, ok := idx.Load(nameKey); ok {
		return nil, sharingd.ResourceRef{}, sharingd.ErrResourceAlreadyExists
	}

	obj.ID = s.idGen.ID()
	now := s.time()
	obj.CreatedAt = now
	obj.UpdatedAt = now

	// The pre-check above and these two inserts are not covered by a single
	// lock; concurrent creates of the same name can race.
	s.resources.Store(obj.ID, obj)
	idx.Store(nameKey, obj.ID)

	created, err := obj.Resource()
	if err != nil {
		return nil, sharingd.ResourceRef{}, err
	}
	return created, sharingd.UUIDRef(obj.ID), nil
}

func (s *ResourceStore) Update(ctx context.Context, ident sharingd.ResourceIdent, r sharingd.Resource) (sharingd.Resource, sharingd.ResourceRef, error) {
	cur, err := s.resolve(ident)
	if err != nil {
		return nil, sharingd.ResourceRef{}, err
	}

	obj, err := sharingd.ObjectFromResource(r)
	if err != nil {
		return nil, sharingd.ResourceRef{}, err
	}
	obj.ID = cur.ID
	obj.CreatedAt = cur.CreatedAt
	obj.UpdatedAt = s.time()

	if obj.Label != cur.Label || !obj.Name.Equal(cur.Name) {
		idx := s.nameIndex(obj.Label)
		nameKey := obj.Name.String()
		if _, ok := idx.Load(nameKey); ok {
			return nil, sharingd.ResourceRef{}, sharingd.ErrResourceAlreadyExists
		}
		s.nameIndex(cur.Label).Delete(cur.Name.String())
		idx.Store(nameKey, obj.ID)
	}
	s.resources.Store(obj.ID, obj)

	updated, err := obj.Resource()
	if err != nil {
		return nil, sharingd.ResourceRef{}, err
	}
	return updated, sharingd.UUIDRef(obj.ID), nil
}

// Delete removes the resource record and its name-index entry. Associations
// touching the resource are left in place; listings that can no longer
// resolve an endpoint surface the dangling edge as-is.
func (s *ResourceStore) Delete(ctx context.Context, ident sharingd.ResourceIdent) error {
	obj, err := s.resolve(ident)
	if err != nil {
		return err
	}
	s.resources.Delete(obj.ID)
	s.nameIndex(obj.Label).Delete(obj.Name.String())
	return nil
}

func (s *ResourceStore) AddAssociation(ctx context.Context, from, to sharingd.ResourceIdent, label sharingd.AssociationLabel, properties map[string]interface{}) error {
	if !label.Valid() {
		return sharingd.ErrInvalidAssociationLabel
	}
	fromObj, err := s.resolve(from)
	if err != nil {
		return err
	}
	toObj, err := s.resolve(to)
	if err != nil {
		return err
	}

	forward := s.edges(fromObj.ID, label)
	if _, ok := forward.Load(toObj.ID); ok {
		return sharingd.ErrAssociationAlreadyExists
	}
	forward.Store(toObj.ID, edge{properties: properties, targetLabel: toObj.Label})
	s.edges(toObj.ID, label.Inverse()).Store(fromObj.ID, edge{properties: properties, targetLabel: fromObj.Label})
	return nil
}

func (s *ResourceStore) RemoveAssociation(ctx context.Context, from, to sharingd.ResourceIdent, label sharingd.AssociationLabel) error {
	if !label.Valid() {
		return sharingd.ErrInvalidAssociationLabel
	}
	fromObj, err := s.resolve(from)
	if err != nil {
		return err
	}
	toObj, err := s.resolve(to)
	if err != nil {
		return err
	}

	forward := s.edges(fromObj.ID, label)
	if _, ok := forward.Load(toObj.ID); !ok {
		return sharingd.ErrAssociationNotFound
	}
	forward.Delete(toObj.ID)
	s.edges(toObj.ID, label.Inverse()).Delete(fromObj.ID)
	return nil
}

func (s *ResourceStore) ListAssociations(ctx context.Context, resource sharingd.ResourceIdent, label sharingd.AssociationLabel, opts sharingd.AssociationListOptions) ([]sharingd.ResourceIdent, string, error) {
	if !label.Valid() {
		return nil, "", sharingd.ErrInvalidAssociationLabel
	}
	obj, err := s.resolve(resource)
	if err != nil {
		return nil, "", err
	}

	limit := sharingd.PageSize(opts.MaxResults)
	var cursor uuid.UUID
	hasCursor := opts.PageToken != ""
	if hasCursor {
		id, err := uuid.Parse(opts.PageToken)
		if err != nil {
			return nil, "", sharingd.ErrInvalidPageToken
		}
		cursor = id
	}

	type target struct {
		id    uuid.UUID
		label sharingd.ObjectLabel
	}
	var targets []target
	s.edges(obj.ID, label).Range(func(k, v interface{}) bool {
		e := v.(edge)
		if opts.TargetLabel != "" && e.targetLabel != opts.TargetLabel {
			return true
		}
		targets = append(targets, target{id: k.(uuid.UUID), label: e.targetLabel})
		return true
	})

	sort.Slice(targets, func(i, j int) bool { return uuidgen.Less(targets[j].id, targets[i].id) })

	idents := make([]sharingd.ResourceIdent, 0, limit)
	var last uuid.UUID
	for _, t := range targets {
		if hasCursor && !uuidgen.Less(t.id, cursor) {
			continue
		}
		idents = append(idents, sharingd.Ident(t.label, sharingd.UUIDRef(t.id)))
		last = t.id
		if len(idents) == limit {
			break
		}
	}

	next := ""
	if len(idents) == limit {
		next = last.String()
	}
	return idents, next, nil
}
