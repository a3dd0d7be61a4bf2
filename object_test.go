package sharingd

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sharingd/sharingd/kit/platform/errors"
)

func TestObjectRoundTrip(t *testing.T) {
	t.Parallel()

	resources := []Resource{
		&Share{ID: uuid.New(), Name: "acme", Properties: map[string]interface{}{"owner": "data-eng"}},
		&SharingSchema{ID: uuid.New(), Share: "acme", Name: "sales"},
		&SharingTable{ID: uuid.New(), Share: "acme", Schema: "sales", Name: "orders", StorageLocation: "s3://bucket/orders"},
		&Credential{ID: uuid.New(), Name: "warehouse-ro", Purpose: "storage"},
		&Catalog{ID: uuid.New(), Name: "main"},
		&Schema{ID: uuid.New(), Catalog: "main", Name: "sales"},
		&Table{ID: uuid.New(), Catalog: "main", Schema: "sales", Name: "orders", StorageLocation: "s3://bucket/orders"},
		&ExternalLocation{ID: uuid.New(), Name: "landing", URL: "s3://bucket/landing"},
		&Recipient{ID: uuid.New(), Name: "partner", AuthenticationType: "token"},
		&Column{ID: uuid.New(), Name: "amount", TypeName: "decimal", Nullable: true},
	}

	for _, r := range resources {
		obj, err := ObjectFromResource(r)
		require.NoError(t, err, "convert %T", r)
		require.Equal(t, r.ObjectLabel(), obj.Label)
		require.True(t, obj.Name.Equal(r.ResourceName()))

		back, err := obj.Resource()
		require.NoError(t, err, "reconstruct %T", r)
		require.Empty(t, cmp.Diff(r, back), "round trip %T", r)
	}
}

func TestObjectFromResourceRejectsEmptySegments(t *testing.T) {
	t.Parallel()

	_, err := ObjectFromResource(&SharingTable{Share: "acme", Schema: "", Name: "orders"})
	require.Equal(t, errors.EInvalid, errors.ErrorCode(err))
}

func TestObjectResourceRejectsWrongArity(t *testing.T) {
	t.Parallel()

	o := &Object{Label: ObjectLabelSharingTable, Name: ResourceName{"acme", "orders"}}
	_, err := o.Resource()
	require.Equal(t, errors.EInternal, errors.ErrorCode(err))
}

func TestResourceRefFallsBackToName(t *testing.T) {
	t.Parallel()

	s := &Share{Name: "acme"}
	ref := s.ResourceRef()
	name, ok := ref.Name()
	require.True(t, ok)
	require.Equal(t, "acme", name.String())

	s.ID = uuid.New()
	ref = s.ResourceRef()
	id, ok := ref.UUID()
	require.True(t, ok)
	require.Equal(t, s.ID, id)
}
