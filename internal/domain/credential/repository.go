package credential

import "context"

// Repository persists one credential record per owner. Implementations must
// make Save a full-record replace, never a partial update.
type Repository interface {
	Get(ctx context.Context, ownerID string) (Stored, bool, error)
	Save(ctx context.Context, record Stored) error
	Delete(ctx context.Context, ownerID string) error
}
