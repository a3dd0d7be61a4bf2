package sharingd

import (
	"context"
)

// SharingService is the discovery surface exposed to recipients: the
// shares, schemas, and tables the calling principal is allowed to see.
// Listings never surface a page that is empty only because every fetched
// item was denied; implementations advance the cursor until a visible item
// or a real end of results.
type SharingService interface {
	ListShares(ctx context.Context, opts ListOptions) ([]*Share, string, error)
	GetShare(ctx context.Context, name string) (*Share, error)
	ListSchemas(ctx context.Context, share string, opts ListOptions) ([]*SharingSchema, string, error)
	ListSchemaTables(ctx context.Context, share, schema string, opts ListOptions) ([]*SharingTable, string, error)
	ListShareTables(ctx context.Context, share string, opts ListOptions) ([]*SharingTable, string, error)
}
