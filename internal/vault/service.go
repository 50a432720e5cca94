package vault

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/consentvault/internal/common"
	"github.com/dmitrijs2005/consentvault/internal/consent"
	"github.com/dmitrijs2005/consentvault/internal/cryptox"
	"github.com/dmitrijs2005/consentvault/internal/logging"
	"github.com/dmitrijs2005/consentvault/internal/metrics"
	"github.com/google/uuid"
)

// ReadItem is one record of a vault read. A record that fails tag
// verification carries Err (common.ErrIntegrityViolation) and no Data;
// the read continues for the remaining records.
type ReadItem struct {
	Record *Record
	Data   []byte
	Err    error
}

// Service implements the vault operations over a Repository. Writers to
// the same user partition are serialized; readers never block each other
// or the expiry sweep.
type Service struct {
	repo      Repository
	masterKey []byte
	policies  map[Category]Policy
	logger    logging.Logger

	// userLocks holds one mutex per user partition, created on first
	// write. Different partitions are fully independent.
	userLocks sync.Map // userID -> *sync.Mutex

	// Argon2id is deliberately slow, so derived partition keys are
	// cached for the service lifetime.
	keyMu sync.RWMutex
	keys  map[string][]byte
	now   func() time.Time
}

// NewService creates the vault service. ttlOverrides replaces the
// default TTL of the named categories (used to shorten retention per
// deployment policy).
func NewService(repo Repository, masterKey []byte, ttlOverrides map[Category]time.Duration, logger logging.Logger) *Service {
	policies := DefaultPolicies()
	for cat, ttl := range ttlOverrides {
		if p, ok := policies[cat]; ok {
			p.TTL = ttl
			policies[cat] = p
		}
	}
	return &Service{
		repo:      repo,
		masterKey: masterKey,
		policies:  policies,
		logger:    logger,
		keys:      make(map[string][]byte),
		now:       time.Now,
	}
}

// Policy returns the policy of a known category.
func (s *Service) Policy(category Category) (Policy, error) {
	p, ok := s.policies[category]
	if !ok {
		return Policy{}, common.ErrUnknownCategory
	}
	return p, nil
}

// Put encrypts plaintext and stores it in the grant owner's partition.
// The grant must carry the category's write scope. Nothing is written if
// any step fails.
func (s *Service) Put(ctx context.Context, grant *consent.Grant, category Category, plaintext []byte) (*Record, error) {
	policy, err := s.Policy(category)
	if err != nil {
		return nil, err
	}
	if !grant.Has(policy.WriteScope) {
		return nil, common.ErrScopeMissing
	}

	mu := s.userLock(grant.UserID)
	mu.Lock()
	defer mu.Unlock()

	key := s.partitionKey(grant.UserID)
	ad := cryptox.AssociatedData(grant.UserID, string(category))

	ciphertext, nonce, tag, err := cryptox.Seal(plaintext, key, ad)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &Record{
		ID:         uuid.NewString(),
		UserID:     grant.UserID,
		Category:   category,
		Ciphertext: ciphertext,
		Nonce:      nonce,
		Tag:        tag,
		CreatedAt:  now,
	}
	if policy.TTL > 0 {
		record.ExpiresAt = now.Add(policy.TTL)
	}

	if err := s.repo.Insert(ctx, record); err != nil {
		return nil, err
	}

	metrics.VaultWrites.WithLabelValues(string(category)).Inc()
	s.log(ctx, "record stored", "user_id", grant.UserID, "category", category)
	return record, nil
}

// Get decrypts all live records of one category in the grant owner's
// partition. The read scope is checked before anything is decrypted.
// Records whose TTL has elapsed are skipped (they are logically deleted
// until the sweep removes them). Integrity failures are isolated per
// record. The read is restartable: calling again re-reads from the
// repository.
func (s *Service) Get(ctx context.Context, grant *consent.Grant, category Category) ([]ReadItem, error) {
	policy, err := s.Policy(category)
	if err != nil {
		return nil, err
	}
	if !grant.Has(policy.ReadScope) {
		return nil, common.ErrScopeMissing
	}

	records, err := s.repo.SelectByUserCategory(ctx, grant.UserID, category)
	if err != nil {
		return nil, err
	}

	key := s.partitionKey(grant.UserID)
	ad := cryptox.AssociatedData(grant.UserID, string(category))
	now := s.now()

	var items []ReadItem
	for _, record := range records {
		if record.Expired(now) {
			continue
		}
		data, err := cryptox.Open(record.Ciphertext, record.Nonce, record.Tag, key, ad)
		if err != nil {
			metrics.IntegrityViolations.WithLabelValues(string(category)).Inc()
			s.log(ctx, "record failed integrity check", "record_id", record.ID, "category", category)
			items = append(items, ReadItem{Record: record, Err: err})
			continue
		}
		items = append(items, ReadItem{Record: record, Data: data})
	}
	return items, nil
}

// ExpireSweep removes records whose TTL has elapsed at now. It snapshots
// the expired set first and deletes exactly that set, so a record being
// read cannot be removed mid-flight by a sweep that started after the
// read began. Idempotent: a second run with no new writes removes
// nothing.
func (s *Service) ExpireSweep(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.repo.SelectExpiredIDs(ctx, now)
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	removed, err := s.repo.DeleteByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	metrics.SweepRemovals.Add(float64(removed))
	s.log(ctx, "expiry sweep finished", "removed", removed)
	return int(removed), nil
}

// Erase permanently removes all records of the given categories from the
// user's partition and returns the count. All categories are validated
// before anything is deleted, so an unknown category causes no partial
// effect. Consent is the caller's responsibility (the privacy controller
// re-verifies the token before delegating here).
func (s *Service) Erase(ctx context.Context, userID string, categories []Category) (int64, error) {
	for _, category := range categories {
		if _, ok := s.policies[category]; !ok {
			return 0, common.ErrUnknownCategory
		}
	}

	mu := s.userLock(userID)
	mu.Lock()
	defer mu.Unlock()

	removed, err := s.repo.DeleteByUserCategories(ctx, userID, categories)
	if err != nil {
		return 0, err
	}

	s.log(ctx, "records erased", "user_id", userID, "removed", removed)
	return removed, nil
}

// Counts returns per-category record counts for the user's partition.
func (s *Service) Counts(ctx context.Context, userID string) (map[Category]int, error) {
	return s.repo.CountByUser(ctx, userID)
}

func (s *Service) userLock(userID string) *sync.Mutex {
	mu, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *Service) partitionKey(userID string) []byte {
	s.keyMu.RLock()
	key, ok := s.keys[userID]
	s.keyMu.RUnlock()
	if ok {
		return key
	}

	key = cryptox.DerivePartitionKey(s.masterKey, userID)

	s.keyMu.Lock()
	s.keys[userID] = key
	s.keyMu.Unlock()
	return key
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(ctx, msg, args...)
	}
}
