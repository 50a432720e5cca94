package vault

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/consentvault/internal/common"
	"github.com/dmitrijs2005/consentvault/internal/consent"
)

func fullGrant(userID string) *consent.Grant {
	return &consent.Grant{
		UserID: userID,
		Scopes: []consent.Scope{
			consent.ScopeReadPurchaseHistory,
			consent.ScopeReadPreferences,
			consent.ScopeReadUsageAnalytics,
			consent.ScopeWritePurchaseData,
			consent.ScopeWritePreferenceData,
			consent.ScopeWriteUsageData,
		},
	}
}

func newTestService() (*Service, *InMemoryRepository) {
	repo := NewInMemoryRepository()
	return NewService(repo, []byte("test-master-key"), nil, nil), repo
}

func TestPutGet_RoundTrip(t *testing.T) {
	t.Parallel()

	s, _ := newTestService()
	ctx := context.Background()
	grant := fullGrant("user-1")

	payload := []byte(`{"amount": 569.59, "brand": "Acme", "category": "electronics"}`)
	record, err := s.Put(ctx, grant, CategoryShoppingHistory, payload)
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if record.ExpiresAt.IsZero() {
		t.Fatalf("expected TTL on shopping.history record")
	}

	items, err := s.Get(ctx, grant, CategoryShoppingHistory)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Err != nil {
		t.Fatalf("unexpected item error: %v", items[0].Err)
	}
	if !bytes.Equal(items[0].Data, payload) {
		t.Fatalf("payload mismatch")
	}
}

func TestPut_UnknownCategory(t *testing.T) {
	t.Parallel()

	s, _ := newTestService()
	_, err := s.Put(context.Background(), fullGrant("u1"), Category("shopping.unknown"), []byte("x"))
	if !errors.Is(err, common.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestPut_ScopeMissing(t *testing.T) {
	t.Parallel()

	s, repo := newTestService()
	grant := &consent.Grant{UserID: "u1", Scopes: []consent.Scope{consent.ScopeReadPurchaseHistory}}

	_, err := s.Put(context.Background(), grant, CategoryShoppingHistory, []byte("x"))
	if !errors.Is(err, common.ErrScopeMissing) {
		t.Fatalf("expected ErrScopeMissing, got %v", err)
	}

	repo.mu.RLock()
	n := len(repo.records)
	repo.mu.RUnlock()
	if n != 0 {
		t.Fatalf("expected no records written, got %d", n)
	}
}

// selectCountingRepo verifies that a denied read never reaches storage.
type selectCountingRepo struct {
	Repository
	selects int
}

func (r *selectCountingRepo) SelectByUserCategory(ctx context.Context, userID string, category Category) ([]*Record, error) {
	r.selects++
	return r.Repository.SelectByUserCategory(ctx, userID, category)
}

func TestGet_ScopeMissing_NoReadAttempt(t *testing.T) {
	t.Parallel()

	inner := NewInMemoryRepository()
	repo := &selectCountingRepo{Repository: inner}
	s := NewService(repo, []byte("test-master-key"), nil, nil)

	grant := &consent.Grant{UserID: "u1", Scopes: []consent.Scope{consent.ScopeWritePurchaseData}}
	_, err := s.Get(context.Background(), grant, CategoryShoppingHistory)
	if !errors.Is(err, common.ErrScopeMissing) {
		t.Fatalf("expected ErrScopeMissing, got %v", err)
	}
	if repo.selects != 0 {
		t.Fatalf("expected no storage access on denied read, got %d selects", repo.selects)
	}
}

func TestGet_IntegrityViolationIsolated(t *testing.T) {
	t.Parallel()

	s, repo := newTestService()
	ctx := context.Background()
	grant := fullGrant("user-1")

	if _, err := s.Put(ctx, grant, CategoryShoppingHistory, []byte(`{"amount": 1}`)); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if _, err := s.Put(ctx, grant, CategoryShoppingHistory, []byte(`{"amount": 2}`)); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	// Corrupt the first record's ciphertext in place.
	repo.mu.Lock()
	repo.records[0].Ciphertext[0] ^= 0x01
	repo.mu.Unlock()

	items, err := s.Get(ctx, grant, CategoryShoppingHistory)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected both records reported, got %d", len(items))
	}
	if !errors.Is(items[0].Err, common.ErrIntegrityViolation) {
		t.Fatalf("expected ErrIntegrityViolation on first item, got %v", items[0].Err)
	}
	if items[1].Err != nil || !bytes.Equal(items[1].Data, []byte(`{"amount": 2}`)) {
		t.Fatalf("second record should decrypt cleanly")
	}
}

func TestGet_SkipsExpiredRecords(t *testing.T) {
	t.Parallel()

	s, _ := newTestService()
	ctx := context.Background()
	grant := fullGrant("user-1")

	if _, err := s.Put(ctx, grant, CategoryBehavioralAnalysis, []byte(`{"searches": 3}`)); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	// Behavioral analytics default to 90 days; jump past that.
	s.now = func() time.Time { return time.Now().Add(91 * 24 * time.Hour) }

	items, err := s.Get(ctx, grant, CategoryBehavioralAnalysis)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected expired record to be skipped, got %d items", len(items))
	}
}

func TestExpireSweep_Idempotent(t *testing.T) {
	t.Parallel()

	s, _ := newTestService()
	ctx := context.Background()
	grant := fullGrant("user-1")

	if _, err := s.Put(ctx, grant, CategoryBehavioralAnalysis, []byte(`{"searches": 3}`)); err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if _, err := s.Put(ctx, grant, CategoryShoppingPreferences, []byte(`{"key": "color"}`)); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	cutoff := time.Now().Add(91 * 24 * time.Hour)

	removed, err := s.ExpireSweep(ctx, cutoff)
	if err != nil {
		t.Fatalf("ExpireSweep error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}

	removed, err = s.ExpireSweep(ctx, cutoff)
	if err != nil {
		t.Fatalf("second ExpireSweep error: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected second sweep to be a no-op, got %d", removed)
	}

	// Preferences never expire.
	items, err := s.Get(ctx, grant, CategoryShoppingPreferences)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected preferences to survive the sweep")
	}
}

func TestErase(t *testing.T) {
	t.Parallel()

	s, _ := newTestService()
	ctx := context.Background()
	grant := fullGrant("user-1")

	for i := 0; i < 3; i++ {
		if _, err := s.Put(ctx, grant, CategoryShoppingHistory, []byte(`{"amount": 10}`)); err != nil {
			t.Fatalf("Put error: %v", err)
		}
	}
	if _, err := s.Put(ctx, grant, CategoryShoppingPreferences, []byte(`{"key": "color"}`)); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	removed, err := s.Erase(ctx, "user-1", []Category{CategoryShoppingHistory})
	if err != nil {
		t.Fatalf("Erase error: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 removals, got %d", removed)
	}

	items, err := s.Get(ctx, grant, CategoryShoppingHistory)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty read after erasure, got %d items", len(items))
	}

	counts, err := s.Counts(ctx, "user-1")
	if err != nil {
		t.Fatalf("Counts error: %v", err)
	}
	if counts[CategoryShoppingHistory] != 0 || counts[CategoryShoppingPreferences] != 1 {
		t.Fatalf("unexpected counts after erasure: %v", counts)
	}
}

func TestErase_UnknownCategoryNoPartialEffect(t *testing.T) {
	t.Parallel()

	s, _ := newTestService()
	ctx := context.Background()
	grant := fullGrant("user-1")

	if _, err := s.Put(ctx, grant, CategoryShoppingHistory, []byte(`{"amount": 10}`)); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	_, err := s.Erase(ctx, "user-1", []Category{CategoryShoppingHistory, Category("bogus")})
	if !errors.Is(err, common.ErrUnknownCategory) {
		t.Fatalf("expected ErrUnknownCategory, got %v", err)
	}

	items, err := s.Get(ctx, grant, CategoryShoppingHistory)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected record to survive failed erase, got %d items", len(items))
	}
}

func TestConcurrentWritesSamePartition(t *testing.T) {
	t.Parallel()

	s, _ := newTestService()
	ctx := context.Background()
	grant := fullGrant("user-1")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Put(ctx, grant, CategoryShoppingHistory, []byte(`{"amount": 1}`)); err != nil {
				t.Errorf("Put error: %v", err)
			}
		}()
	}
	wg.Wait()

	counts, err := s.Counts(ctx, "user-1")
	if err != nil {
		t.Fatalf("Counts error: %v", err)
	}
	if counts[CategoryShoppingHistory] != 16 {
		t.Fatalf("expected 16 records, got %d", counts[CategoryShoppingHistory])
	}
}
