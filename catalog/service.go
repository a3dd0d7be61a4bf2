// Package catalog implements the durable, sqlite-backed resource store.
// Every multi-row mutation runs inside a single transaction: deletes cascade
// association removal, and writing an edge always writes its inverse in the
// same transaction.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/sharingd/sharingd"
	"github.com/sharingd/sharingd/kit/platform/errors"
	"github.com/sharingd/sharingd/sqlite"
	"github.com/sharingd/sharingd/uuidgen"
)

var _ sharingd.ResourceStore = (*Service)(nil)

// Service is the relational resource store.
type Service struct {
	store *sqlite.SqlStore
	log   *zap.Logger
	idGen *uuidgen.IDGenerator
	time  func() time.Time
}

// NewService returns a resource store backed by the given metadata database.
func NewService(log *zap.Logger, store *sqlite.SqlStore) *Service {
	return &Service{
		store: store,
		log:   log,
		idGen: uuidgen.NewIDGenerator(),
		time:  time.Now,
	}
}

var objectColumns = []string{"id", "label", "namespace", "name", "properties", "created_at", "updated_at"}

type objectRow struct {
	ID         string         `db:"id"`
	Label      string         `db:"label"`
	Namespace  string         `db:"namespace"`
	Name       string         `db:"name"`
	Properties sql.NullString `db:"properties"`
	CreatedAt  time.Time      `db:"created_at"`
	UpdatedAt  time.Time      `db:"updated_at"`
}

func (r *objectRow) object() (*sharingd.Object, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, corruptObjectErr(err)
	}

	segments := []string{}
	if r.Namespace != "" {
		segments = strings.Split(r.Namespace, ".")
	}
	segments = append(segments, r.Name)

	var props map[string]interface{}
	if r.Properties.Valid && r.Properties.String != "" {
		if err := json.Unmarshal([]byte(r.Properties.String), &props); err != nil {
			return nil, corruptObjectErr(err)
		}
	}

	return &sharingd.Object{
		ID:         id,
		Label:      sharingd.ObjectLabel(r.Label),
		Name:       sharingd.ResourceName(segments),
		Properties: props,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}, nil
}

func (r *objectRow) resource() (sharingd.Resource, sharingd.ResourceRef, error) {
	obj, err := r.object()
	if err != nil {
		return nil, sharingd.ResourceRef{}, err
	}
	res, err := obj.Resource()
	if err != nil {
		return nil, sharingd.ResourceRef{}, err
	}
	return res, sharingd.UUIDRef(obj.ID), nil
}

// splitName separates a resource name into its namespace (all leading
// segments, dotted) and its final segment.
func splitName(name sharingd.ResourceName) (string, string) {
	if len(name) == 0 {
		return "", ""
	}
	return strings.Join(name[:len(name)-1], "."), name[len(name)-1]
}

func marshalProperties(props map[string]interface{}) (sql.NullString, error) {
	if len(props) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(props)
	if err != nil {
		return sql.NullString{}, &errors.Error{
			Code: errors.EInvalid,
			Msg:  "unable to serialize resource properties",
			Err:  err,
		}
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func corruptObjectErr(err error) *errors.Error {
	return &errors.Error{
		Code: errors.EInternal,
		Msg:  "stored object is corrupt",
		Err:  err,
	}
}

func internalErr(err error) error {
	if err == nil {
		return nil
	}
	return &errors.Error{
		Code: errors.EInternal,
		Err:  err,
	}
}

// resolve loads the object row an ident refers to, within q.
func (s *Service) resolve(ctx context.Context, q sqlx.QueryerContext, ident sharingd.ResourceIdent) (*objectRow, error) {
	b := sq.Select(objectColumns...).From("objects")

	switch ident.Ref.Kind() {
	case sharingd.RefUUID:
		id, _ := ident.Ref.UUID()
		b = b.Where(sq.Eq{"id": id.String(), "label": string(ident.Label)})
	case sharingd.RefName:
		name, _ := ident.Ref.Name()
		ns, n := splitName(name)
		b = b.Where(sq.Eq{"label": string(ident.Label), "namespace": ns, "name": n})
	default:
		return nil, sharingd.ErrUndefinedRef
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, internalErr(err)
	}

	var row objectRow
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, sharingd.ErrResourceNotFound
		}
		return nil, internalErr(err)
	}
	return &row, nil
}

func (s *Service) Get(ctx context.Context, ident sharingd.ResourceIdent) (sharingd.Resource, sharingd.ResourceRef, error) {
	row, err := s.resolve(ctx, s.store.DB, ident)
	if err != nil {
		return nil, sharingd.ResourceRef{}, err
	}
	return row.resource()
}

func (s *Service) GetMany(ctx context.Context, idents []sharingd.ResourceIdent) ([]sharingd.ResolvedResource, error) {
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

// likeEscape escapes the LIKE metacharacters in s so a name segment
// containing "_" or "%" matches only itself.
func likeEscape(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// namespacePrefixCond builds the WHERE fragment matching every name whose
// segment sequence starts with prefix: the name equal to the prefix itself,
// direct children, and deeper descendants.
func namespacePrefixCond(prefix sharingd.ResourceName) sq.Sqlizer {
	ns, n := splitName(prefix)
	full := prefix.String()
	return sq.Or{
		sq.Eq{"namespace": ns, "name": n},
		sq.Eq{"namespace": full},
		sq.Expr(`namespace LIKE ? ESCAPE '\'`, likeEscape(full)+".%"),
	}
}

func (s *Service) List(ctx context.Context, label sharingd.ObjectLabel, opts sharingd.ListOptions) ([]sharingd.Resource, string, error) {
	limit := sharingd.PageSize(opts.MaxResults)

	b := sq.Select(objectColumns...).
		From("objects").
		Where(sq.Eq{"label": string(label)}).
		OrderBy("id DESC").
		Limit(uint64(limit))

	if len(opts.NamespacePrefix) > 0 {
		b = b.Where(namespacePrefixCond(opts.NamespacePrefix))
	}
	if opts.PageToken != "" {
		cursor, err := decodePageToken(opts.PageToken)
		if err != nil {
			return nil, "", err
		}
		b = b.Where(sq.Lt{"id": cursor.String()})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, "", internalErr(err)
	}

	rows := []objectRow{}
	if err := s.store.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, "", internalErr(err)
	}

	resources := make([]sharingd.Resource, 0, len(rows))
	for i := range rows {
		r, _, err := rows[i].resource()
		if err != nil {
			return nil, "", err
		}
		resources = append(resources, r)
	}

	// a full page may have a successor
	next := ""
	if len(rows) == limit {
		last := rows[len(rows)-1]
		id, err := uuid.Parse(last.ID)
		if err != nil {
			return nil, "", corruptObjectErr(err)
		}
		next = encodePageToken(last.CreatedAt, id)
	}
	return resources, next, nil
}

// exists reports whether a resource with the same (label, name) is already
// stored, within q.
func (s *Service) exists(ctx context.Context, q sqlx.QueryerContext, label sharingd.ObjectLabel, name sharingd.ResourceName) (bool, error) {
	ns, n := splitName(name)
	query, args, err := sq.Select("id").
		From("objects").
		Where(sq.Eq{"label": string(label), "namespace": ns, "name": n}).
		ToSql()
	if err != nil {
		return false, internalErr(err)
	}

	var id string
	if err := sqlx.GetContext(ctx, q, &id, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, internalErr(err)
	}
	return true, nil
}

func (s *Service) Create(ctx context.Context, r sharingd.Resource) (sharingd.Resource, sharingd.ResourceRef, error) {
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

	props, err := marshalProperties(obj.Properties)
	if err != nil {
		return nil, sharingd.ResourceRef{}, err
	}

	s.store.Mu.Lock()
	defer s.store.Mu.Unlock()

	tx, err := s.store.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, sharingd.ResourceRef{}, internalErr(err)
	}

	taken, err := s.exists(ctx, tx, obj.Label, obj.Name)
	if err != nil {
		tx.Rollback()
		return nil, sharingd.ResourceRef{}, err
	}
	if taken {
		tx.Rollback()
		return nil, sharingd.ResourceRef{}, sharingd.ErrResourceAlreadyExists
	}

	obj.ID = s.idGen.ID()
	now := s.time().UTC()
	obj.CreatedAt = now
	obj.UpdatedAt = now

	ns, n := splitName(obj.Name)
	query, args, err := sq.Insert("objects").
		Columns(objectColumns...).
		Values(obj.ID.String(), string(obj.Label), ns, n, props, obj.CreatedAt, obj.UpdatedAt).
		ToSql()
	if err != nil {
		tx.Rollback()
		return nil, sharingd.ResourceRef{}, internalErr(err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		tx.Rollback()
		return nil, sharingd.ResourceRef{}, internalErr(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, sharingd.ResourceRef{}, internalErr(err)
	}

	created, err := obj.Resource()
	if err != nil {
		return nil, sharingd.ResourceRef{}, err
	}
	return created, sharingd.UUIDRef(obj.ID), nil
}

func (s *Service) Update(ctx context.Context, ident sharingd.ResourceIdent, r sharingd.Resource) (sharingd.Resource, sharingd.ResourceRef, error) {
	obj, err := sharingd.ObjectFromResource(r)
	if err != nil {
		return nil, sharingd.ResourceRef{}, err
	}

	props, err := marshalProperties(obj.Properties)
	if err != nil {
		return nil, sharingd.ResourceRef{}, err
	}

	s.store.Mu.Lock()
	defer s.store.Mu.Unlock()

	tx, err := s.store.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, sharingd.ResourceRef{}, internalErr(err)
	}

	cur, err := s.resolve(ctx, tx, ident)
	if err != nil {
		tx.Rollback()
		return nil, sharingd.ResourceRef{}, err
	}

	curObj, err := cur.object()
	if err != nil {
		tx.Rollback()
		return nil, sharingd.ResourceRef{}, err
	}

	// the UUID and creation stamp survive every update; renames retire the
	// old name and install the new one inside this same transaction
	obj.ID = curObj.ID
	obj.CreatedAt = curObj.CreatedAt
	obj.UpdatedAt = s.time().UTC()

	if obj.Label != curObj.Label || !obj.Name.Equal(curObj.Name) {
		taken, err := s.exists(ctx, tx, obj.Label, obj.Name)
		if err != nil {
			tx.Rollback()
			return nil, sharingd.ResourceRef{}, err
		}
		if taken {
			tx.Rollback()
			return nil, sharingd.ResourceRef{}, sharingd.ErrResourceAlreadyExists
		}
	}

	ns, n := splitName(obj.Name)
	query, args, err := sq.Update("objects").
		SetMap(sq.Eq{
			"label":      string(obj.Label),
			"namespace":  ns,
			"name":       n,
			"properties": props,
			"updated_at": obj.UpdatedAt,
		}).
		Where(sq.Eq{"id": obj.ID.String()}).
		ToSql()
	if err != nil {
		tx.Rollback()
		return nil, sharingd.ResourceRef{}, internalErr(err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		tx.Rollback()
		return nil, sharingd.ResourceRef{}, internalErr(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, sharingd.ResourceRef{}, internalErr(err)
	}

	updated, err := obj.Resource()
	if err != nil {
		return nil, sharingd.ResourceRef{}, err
	}
	return updated, sharingd.UUIDRef(obj.ID), nil
}

// Delete removes the resource and, in the same transaction, every
// association row where it is either endpoint. No dangling edge remains
// observable.
func (s *Service) Delete(ctx context.Context, ident sharingd.ResourceIdent) error {
	s.store.Mu.Lock()
	defer s.store.Mu.Unlock()

	tx, err := s.store.DB.BeginTxx(ctx, nil)
	if err != nil {
		return internalErr(err)
	}

	row, err := s.resolve(ctx, tx, ident)
	if err != nil {
		tx.Rollback()
		return err
	}

	query, args, err := sq.Delete("associations").
		Where(sq.Or{sq.Eq{"from_id": row.ID}, sq.Eq{"to_id": row.ID}}).
		ToSql()
	if err != nil {
		tx.Rollback()
		return internalErr(err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		tx.Rollback()
		return internalErr(err)
	}

	query, args, err = sq.Delete("objects").Where(sq.Eq{"id": row.ID}).ToSql()
	if err != nil {
		tx.Rollback()
		return internalErr(err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		tx.Rollback()
		return internalErr(err)
	}

	return internalErr(tx.Commit())
}

// edgeExists reports whether the forward edge is already stored, within q.
func (s *Service) edgeExists(ctx context.Context, q sqlx.QueryerContext, from, to, label string) (bool, error) {
	query, args, err := sq.Select("id").
		From("associations").
		Where(sq.Eq{"from_id": from, "label": label, "to_id": to}).
		ToSql()
	if err != nil {
		return false, internalErr(err)
	}

	var id string
	if err := sqlx.GetContext(ctx, q, &id, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, internalErr(err)
	}
	return true, nil
}

// AddAssociation writes the forward edge and its inverse in one transaction;
// partial failure rolls back both.
func (s *Service) AddAssociation(ctx context.Context, from, to sharingd.ResourceIdent, label sharingd.AssociationLabel, properties map[string]interface{}) error {
	if !label.Valid() {
		return sharingd.ErrInvalidAssociationLabel
	}

	props, err := marshalProperties(properties)
	if err != nil {
		return err
	}

	s.store.Mu.Lock()
	defer s.store.Mu.Unlock()

	tx, err := s.store.DB.BeginTxx(ctx, nil)
	if err != nil {
		return internalErr(err)
	}

	fromRow, err := s.resolve(ctx, tx, from)
	if err != nil {
		tx.Rollback()
		return err
	}
	toRow, err := s.resolve(ctx, tx, to)
	if err != nil {
		tx.Rollback()
		return err
	}

	taken, err := s.edgeExists(ctx, tx, fromRow.ID, toRow.ID, string(label))
	if err != nil {
		tx.Rollback()
		return err
	}
	if taken {
		tx.Rollback()
		return sharingd.ErrAssociationAlreadyExists
	}

	now := s.time().UTC()
	b := sq.Insert("associations").
		Columns("id", "from_id", "label", "to_id", "properties", "created_at", "updated_at").
		Values(s.idGen.ID().String(), fromRow.ID, string(label), toRow.ID, props, now, now).
		Values(s.idGen.ID().String(), toRow.ID, string(label.Inverse()), fromRow.ID, props, now, now)

	query, args, err := b.ToSql()
	if err != nil {
		tx.Rollback()
		return internalErr(err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		tx.Rollback()
		return internalErr(err)
	}

	return internalErr(tx.Commit())
}

// RemoveAssociation deletes the forward edge and its inverse in one
// transaction.
func (s *Service) RemoveAssociation(ctx context.Context, from, to sharingd.ResourceIdent, label sharingd.AssociationLabel) error {
	if !label.Valid() {
		return sharingd.ErrInvalidAssociationLabel
	}

	s.store.Mu.Lock()
	defer s.store.Mu.Unlock()

	tx, err := s.store.DB.BeginTxx(ctx, nil)
	if err != nil {
		return internalErr(err)
	}

	fromRow, err := s.resolve(ctx, tx, from)
	if err != nil {
		tx.Rollback()
		return err
	}
	toRow, err := s.resolve(ctx, tx, to)
	if err != nil {
		tx.Rollback()
		return err
	}

	query, args, err := sq.Delete("associations").
		Where(sq.Eq{"from_id": fromRow.ID, "label": string(label), "to_id": toRow.ID}).
		ToSql()
	if err != nil {
		tx.Rollback()
		return internalErr(err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		tx.Rollback()
		return internalErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		tx.Rollback()
		return internalErr(err)
	}
	if affected == 0 {
		tx.Rollback()
		return sharingd.ErrAssociationNotFound
	}

	query, args, err = sq.Delete("associations").
		Where(sq.Eq{"from_id": toRow.ID, "label": string(label.Inverse()), "to_id": fromRow.ID}).
		ToSql()
	if err != nil {
		tx.Rollback()
		return internalErr(err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		tx.Rollback()
		return internalErr(err)
	}

	return internalErr(tx.Commit())
}

type associationRow struct {
	AssocID     string    `db:"assoc_id"`
	TargetID    string    `db:"target_id"`
	TargetLabel string    `db:"target_label"`
	CreatedAt   time.Time `db:"assoc_created_at"`
}

func (s *Service) ListAssociations(ctx context.Context, resource sharingd.ResourceIdent, label sharingd.AssociationLabel, opts sharingd.AssociationListOptions) ([]sharingd.ResourceIdent, string, error) {
	if !label.Valid() {
		return nil, "", sharingd.ErrInvalidAssociationLabel
	}

	row, err := s.resolve(ctx, s.store.DB, resource)
	if err != nil {
		return nil, "", err
	}

	limit := sharingd.PageSize(opts.MaxResults)
	b := sq.Select(
		"a.id AS assoc_id",
		"o.id AS target_id",
		"o.label AS target_label",
		"a.created_at AS assoc_created_at",
	).
		From("associations a").
		Join("objects o ON o.id = a.to_id").
		Where(sq.Eq{"a.from_id": row.ID, "a.label": string(label)}).
		OrderBy("a.id DESC").
		Limit(uint64(limit))

	if opts.TargetLabel != "" {
		b = b.Where(sq.Eq{"o.label": string(opts.TargetLabel)})
	}
	if opts.PageToken != "" {
		cursor, err := decodePageToken(opts.PageToken)
		if err != nil {
			return nil, "", err
		}
		b = b.Where(sq.Lt{"a.id": cursor.String()})
	}

	query, args, err := b.ToSql()
	if err != nil {
		return nil, "", internalErr(err)
	}

	rows := []associationRow{}
	if err := s.store.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, "", internalErr(err)
	}

	idents := make([]sharingd.ResourceIdent, 0, len(rows))
	for _, r := range rows {
		id, err := uuid.Parse(r.TargetID)
		if err != nil {
			return nil, "", corruptObjectErr(err)
		}
		idents = append(idents, sharingd.Ident(sharingd.ObjectLabel(r.TargetLabel), sharingd.UUIDRef(id)))
	}

	next := ""
	if len(rows) == limit {
		last := rows[len(rows)-1]
		id, err := uuid.Parse(last.AssocID)
		if err != nil {
			return nil, "", corruptObjectErr(err)
		}
		next = encodePageToken(last.CreatedAt, id)
	}
	return idents, next, nil
}
