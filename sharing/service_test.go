package sharing

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sharingd/sharingd"
	"github.com/sharingd/sharingd/authorizer"
	"github.com/sharingd/sharingd/inmem"
	"github.com/sharingd/sharingd/kit/platform/errors"
	"github.com/sharingd/sharingd/mock"
)

// newDiscovery wires the full read path: raw store -> authorizer -> service.
func newDiscovery(t *testing.T, raw sharingd.ResourceStore, policy sharingd.Policy) (*Service, context.Context) {
	t.Helper()
	authed := authorizer.NewResourceService(raw, policy)
	ctx := authorizer.WithPrincipal(context.Background(), "partner")
	return NewService(zap.NewNop(), authed), ctx
}

// denyNamePrefix denies reading any resource whose name starts with the
// given prefix. Policy checks arrive with resolved uuid references, so the
// policy looks the resource up to recover its name.
func denyNamePrefix(raw sharingd.ResourceStore, prefix string) *mock.Policy {
	policy := mock.NewPolicy()
	policy.AuthorizeFn = func(ctx context.Context, _ sharingd.Principal, _ sharingd.Permission, resource sharingd.ResourceIdent) (sharingd.Decision, error) {
		if resource.Ref.IsUndefined() {
			return sharingd.Allow, nil
		}
		r, _, err := raw.Get(ctx, resource)
		if err != nil {
			return sharingd.Allow, nil
		}
		if strings.HasPrefix(r.ResourceName().String(), prefix) {
			return sharingd.Deny, nil
		}
		return sharingd.Allow, nil
	}
	return policy
}

func seedShare(t *testing.T, raw sharingd.ResourceStore, name string, schemas map[string][]string) {
	t.Helper()
	ctx := context.Background()

	_, shareRef, err := raw.Create(ctx, &sharingd.Share{Name: name})
	require.NoError(t, err)
	shareID := sharingd.Ident(sharingd.ObjectLabelShare, shareRef)

	for schema, tables := range schemas {
		_, schemaRef, err := raw.Create(ctx, &sharingd.SharingSchema{Share: name, Name: schema})
		require.NoError(t, err)
		schemaID := sharingd.Ident(sharingd.ObjectLabelSharingSchema, schemaRef)
		require.NoError(t, raw.AddAssociation(ctx, shareID, schemaID, sharingd.AssociationLabelParentOf, nil))

		for _, table := range tables {
			_, tableRef, err := raw.Create(ctx, &sharingd.SharingTable{Share: name, Schema: schema, Name: table})
			require.NoError(t, err)
			tableID := sharingd.Ident(sharingd.ObjectLabelSharingTable, tableRef)
			require.NoError(t, raw.AddAssociation(ctx, schemaID, tableID, sharingd.AssociationLabelParentOf, nil))
		}
	}
}

func TestListShares(t *testing.T) {
	t.Parallel()

	raw := inmem.NewResourceStore()
	svc, ctx := newDiscovery(t, raw, denyNamePrefix(raw, "hidden-"))

	seedShare(t, raw, "acme", nil)
	seedShare(t, raw, "hidden-internal", nil)
	seedShare(t, raw, "umbrella", nil)

	shares, next, err := svc.ListShares(ctx, sharingd.ListOptions{})
	require.NoError(t, err)
	require.Empty(t, next)
	require.Len(t, shares, 2)
	for _, s := range shares {
		require.False(t, strings.HasPrefix(s.Name, "hidden-"))
	}
}

// A page the policy empties out entirely must not end the listing: the
// service walks the cursor forward until something is visible or the store
// is exhausted.
func TestListSharesSkipsFullyDeniedPages(t *testing.T) {
	t.Parallel()

	raw := inmem.NewResourceStore()
	svc, ctx := newDiscovery(t, raw, denyNamePrefix(raw, "hidden-"))

	// listings are newest-first, so the visible shares created first land on
	// the trailing raw pages, behind two raw pages of denied ones
	for i := 0; i < 10; i++ {
		seedShare(t, raw, fmt.Sprintf("visible-%02d", i), nil)
	}
	for i := 0; i < 10; i++ {
		seedShare(t, raw, fmt.Sprintf("hidden-%02d", i), nil)
	}

	var got []string
	token := ""
	for {
		shares, next, err := svc.ListShares(ctx, sharingd.ListOptions{MaxResults: 5, PageToken: token})
		require.NoError(t, err)
		if next != "" {
			require.NotEmpty(t, shares, "a non-terminal page must carry at least one item")
		}
		for _, s := range shares {
			got = append(got, s.Name)
		}
		if next == "" {
			break
		}
		token = next
	}

	require.Len(t, got, 10)
	for _, name := range got {
		require.True(t, strings.HasPrefix(name, "visible-"))
	}
}

func TestGetShare(t *testing.T) {
	t.Parallel()

	raw := inmem.NewResourceStore()
	svc, ctx := newDiscovery(t, raw, denyNamePrefix(raw, "hidden-"))

	seedShare(t, raw, "acme", nil)
	seedShare(t, raw, "hidden-internal", nil)

	share, err := svc.GetShare(ctx, "acme")
	require.NoError(t, err)
	require.Equal(t, "acme", share.Name)

	_, err = svc.GetShare(ctx, "ghost")
	require.ErrorIs(t, err, sharingd.ErrResourceNotFound)

	// a denied share is a 403, not a 404: its existence is not hidden
	_, err = svc.GetShare(ctx, "hidden-internal")
	require.ErrorIs(t, err, sharingd.ErrNotAllowed)
}

func TestListSchemas(t *testing.T) {
	t.Parallel()

	raw := inmem.NewResourceStore()
	svc, ctx := newDiscovery(t, raw, mock.NewPolicy())

	seedShare(t, raw, "acme", map[string][]string{
		"sales": {"orders"},
		"ops":   {"tickets"},
	})
	// an unrelated child association must not leak into the schema listing
	_, recipRef, err := raw.Create(context.Background(), &sharingd.Recipient{Name: "partner"})
	require.NoError(t, err)
	share, err := svc.GetShare(ctx, "acme")
	require.NoError(t, err)
	require.NoError(t, raw.AddAssociation(context.Background(),
		sharingd.Ident(sharingd.ObjectLabelShare, sharingd.UUIDRef(share.ID)),
		sharingd.Ident(sharingd.ObjectLabelRecipient, recipRef),
		sharingd.AssociationLabelParentOf, nil))

	schemas, next, err := svc.ListSchemas(ctx, "acme", sharingd.ListOptions{})
	require.NoError(t, err)
	require.Empty(t, next)
	require.Len(t, schemas, 2)
	names := []string{schemas[0].Name, schemas[1].Name}
	require.ElementsMatch(t, []string{"sales", "ops"}, names)

	_, _, err = svc.ListSchemas(ctx, "ghost", sharingd.ListOptions{})
	require.ErrorIs(t, err, sharingd.ErrResourceNotFound)
}

func TestListSchemaTables(t *testing.T) {
	t.Parallel()

	raw := inmem.NewResourceStore()
	svc, ctx := newDiscovery(t, raw, mock.NewPolicy())

	seedShare(t, raw, "acme", map[string][]string{
		"sales": {"orders", "customers"},
		"ops":   {"tickets"},
	})

	tables, next, err := svc.ListSchemaTables(ctx, "acme", "sales", sharingd.ListOptions{})
	require.NoError(t, err)
	require.Empty(t, next)
	require.Len(t, tables, 2)
	for _, table := range tables {
		require.Equal(t, "acme", table.Share)
		require.Equal(t, "sales", table.Schema)
	}

	_, _, err = svc.ListSchemaTables(ctx, "acme", "ghost", sharingd.ListOptions{})
	require.ErrorIs(t, err, sharingd.ErrResourceNotFound)
}

func TestListShareTables(t *testing.T) {
	t.Parallel()

	raw := inmem.NewResourceStore()
	svc, ctx := newDiscovery(t, raw, mock.NewPolicy())

	seedShare(t, raw, "acme", map[string][]string{
		"sales": {"orders", "customers"},
		"ops":   {"tickets"},
	})
	seedShare(t, raw, "umbrella", map[string][]string{
		"sales": {"orders"},
	})

	tables, _, err := svc.ListShareTables(ctx, "acme", sharingd.ListOptions{})
	require.NoError(t, err)
	require.Len(t, tables, 3)
	for _, table := range tables {
		require.Equal(t, "acme", table.Share)
	}
}

func TestListShareTablesFiltersDenied(t *testing.T) {
	t.Parallel()

	raw := inmem.NewResourceStore()
	svc, ctx := newDiscovery(t, raw, denyNamePrefix(raw, "acme.sales."))

	seedShare(t, raw, "acme", map[string][]string{
		"sales": {"orders"},
		"ops":   {"tickets"},
	})

	tables, _, err := svc.ListShareTables(ctx, "acme", sharingd.ListOptions{})
	require.NoError(t, err)
	require.Len(t, tables, 1)
	require.Equal(t, "tickets", tables[0].Name)
}

// Scripted store: three raw pages, the first two filtered down to nothing.
// The listing must walk through them in one call and return the third.
func TestListSharesAdvancesCursorOverEmptyPages(t *testing.T) {
	t.Parallel()

	pages := map[string]struct {
		items []sharingd.Resource
		next  string
	}{
		"":   {items: nil, next: "t1"},
		"t1": {items: nil, next: "t2"},
		"t2": {items: []sharingd.Resource{&sharingd.Share{Name: "acme"}}, next: ""},
	}
	var tokensSeen []string
	store := &mock.ResourceStore{
		ListFn: func(_ context.Context, label sharingd.ObjectLabel, opts sharingd.ListOptions) ([]sharingd.Resource, string, error) {
			require.Equal(t, sharingd.ObjectLabelShare, label)
			tokensSeen = append(tokensSeen, opts.PageToken)
			p, ok := pages[opts.PageToken]
			require.True(t, ok, "unexpected token %q", opts.PageToken)
			return p.items, p.next, nil
		},
	}

	svc := NewService(zap.NewNop(), store)
	shares, next, err := svc.ListShares(context.Background(), sharingd.ListOptions{})
	require.NoError(t, err)
	require.Empty(t, next)
	require.Len(t, shares, 1)
	require.Equal(t, "acme", shares[0].Name)
	require.Equal(t, []string{"", "t1", "t2"}, tokensSeen)
}

func TestUnexpectedVariantSurfacesAsInternal(t *testing.T) {
	t.Parallel()

	err := unexpectedVariantErr(&sharingd.Recipient{Name: "partner"})
	require.Equal(t, errors.EInternal, errors.ErrorCode(err))
}
