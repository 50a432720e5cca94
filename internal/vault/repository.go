package vault

import (
	"context"
	"time"
)

// Repository is the persistence boundary for encrypted records. It never
// sees plaintext.
type Repository interface {
	Insert(ctx context.Context, record *Record) error

	// SelectByUserCategory returns all records of one user partition and
	// category ordered by creation time.
	SelectByUserCategory(ctx context.Context, userID string, category Category) ([]*Record, error)

	// SelectExpiredIDs returns the IDs of records whose TTL has elapsed
	// at now. The sweep deletes exactly this snapshot.
	SelectExpiredIDs(ctx context.Context, now time.Time) ([]string, error)

	DeleteByIDs(ctx context.Context, ids []string) (int64, error)

	// DeleteByUserCategories permanently removes matching records and
	// returns the number removed.
	DeleteByUserCategories(ctx context.Context, userID string, categories []Category) (int64, error)

	// CountByUser returns per-category record counts for one user.
	CountByUser(ctx context.Context, userID string) (map[Category]int, error)
}
