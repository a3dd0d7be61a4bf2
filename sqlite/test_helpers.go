package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// NewTestStore returns an in-memory SqlStore for testing, and a cleanup
// function to close it.
func NewTestStore(t *testing.T) (*SqlStore, func(t *testing.T)) {
	store, err := NewSqlStore(InmemPath, zap.NewNop())
	require.NoError(t, err, "unable to open test database")

	return store, func(t *testing.T) {
		require.NoError(t, store.Close(), "failed to close test database")
	}
}
