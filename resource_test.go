package sharingd

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/sharingd/sharingd/kit/platform/errors"
)

func TestParseResourceName(t *testing.T) {
	t.Parallel()

	name, err := ParseResourceName("Sales.EMEA.orders")
	require.NoError(t, err)
	require.Equal(t, ResourceName{"sales", "emea", "orders"}, name)
	require.Equal(t, "sales.emea.orders", name.String())

	_, err = ParseResourceName("sales..orders")
	require.Equal(t, errors.EInvalid, errors.ErrorCode(err))

	_, err = ParseResourceName("")
	require.Equal(t, errors.EInvalid, errors.ErrorCode(err))

	_, err = NewResourceName()
	require.Equal(t, errors.EInvalid, errors.ErrorCode(err))
}

func TestResourceNameHasPrefix(t *testing.T) {
	t.Parallel()

	name, err := ParseResourceName("sales.emea.orders")
	require.NoError(t, err)

	require.True(t, name.HasPrefix(nil))
	require.True(t, name.HasPrefix(ResourceName{"sales"}))
	require.True(t, name.HasPrefix(ResourceName{"sales", "emea"}))
	require.True(t, name.HasPrefix(name))
	require.False(t, name.HasPrefix(ResourceName{"emea"}))
	require.False(t, name.HasPrefix(ResourceName{"sales", "emea", "orders", "x"}))
}

func TestResourceRefEquality(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	name := ResourceName{"sales"}

	require.True(t, UUIDRef(id).Equal(UUIDRef(id)))
	require.False(t, UUIDRef(id).Equal(UUIDRef(uuid.New())))
	require.True(t, NameRef(name).Equal(NameRef(ResourceName{"sales"})))
	require.False(t, NameRef(name).Equal(NameRef(ResourceName{"ops"})))

	// reference-kind-sensitive: a uuid ref never equals a name ref, even if
	// both resolve to the same resource
	require.False(t, UUIDRef(id).Equal(NameRef(name)))

	require.True(t, UndefinedRef().Equal(ResourceRef{}))
	require.True(t, ResourceRef{}.IsUndefined())
}

func TestAssociationLabelInverse(t *testing.T) {
	t.Parallel()

	labels := []AssociationLabel{
		AssociationLabelParentOf, AssociationLabelChildOf,
		AssociationLabelHasPart, AssociationLabelPartOf,
		AssociationLabelDependsOn, AssociationLabelDependencyOf,
		AssociationLabelReferences, AssociationLabelReferencedBy,
		AssociationLabelOwnedBy, AssociationLabelOwnerOf,
	}
	for _, l := range labels {
		require.True(t, l.Valid())
		inv := l.Inverse()
		require.True(t, inv.Valid(), "inverse of %s", l)
		require.Equal(t, l, inv.Inverse(), "inverse must be an involution for %s", l)
		require.NotEqual(t, l, inv)
	}

	require.False(t, AssociationLabel("sibling_of").Valid())
}
