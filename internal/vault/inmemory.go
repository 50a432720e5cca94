package vault

import (
	"context"
	"slices"
	"sync"
	"time"
)

// InMemoryRepository keeps records in process memory. It backs tests and
// single-node deployments without a database.
type InMemoryRepository struct {
	mu      sync.RWMutex
	records []*Record
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

func (r *InMemoryRepository) Insert(ctx context.Context, record *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *record
	r.records = append(r.records, &clone)
	return nil
}

func (r *InMemoryRepository) SelectByUserCategory(ctx context.Context, userID string, category Category) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*Record
	for _, rec := range r.records {
		if rec.UserID == userID && rec.Category == category {
			clone := *rec
			result = append(result, &clone)
		}
	}
	return result, nil
}

func (r *InMemoryRepository) SelectExpiredIDs(ctx context.Context, now time.Time) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for _, rec := range r.records {
		if rec.Expired(now) {
			ids = append(ids, rec.ID)
		}
	}
	return ids, nil
}

func (r *InMemoryRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	r.records = slices.DeleteFunc(r.records, func(rec *Record) bool {
		if slices.Contains(ids, rec.ID) {
			removed++
			return true
		}
		return false
	})
	return removed, nil
}

func (r *InMemoryRepository) DeleteByUserCategories(ctx context.Context, userID string, categories []Category) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed int64
	r.records = slices.DeleteFunc(r.records, func(rec *Record) bool {
		if rec.UserID == userID && slices.Contains(categories, rec.Category) {
			removed++
			return true
		}
		return false
	})
	return removed, nil
}

func (r *InMemoryRepository) CountByUser(ctx context.Context, userID string) (map[Category]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[Category]int)
	for _, rec := range r.records {
		if rec.UserID == userID {
			counts[rec.Category]++
		}
	}
	return counts, nil
}
