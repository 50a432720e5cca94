// Package privacy implements the user-facing data rights surface: the
// transparency dashboard, data export and erasure. Every operation goes
// through the consent token service before touching the vault.
package privacy

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dmitrijs2005/consentvault/internal/common"
	"github.com/dmitrijs2005/consentvault/internal/consent"
	"github.com/dmitrijs2005/consentvault/internal/cryptox"
	"github.com/dmitrijs2005/consentvault/internal/logging"
	"github.com/dmitrijs2005/consentvault/internal/profile"
	"github.com/dmitrijs2005/consentvault/internal/vault"
)

// Privacy score weights, summing to 100.
const (
	weightTransparency = 40
	weightEncryption   = 30
	weightRetention    = 30
)

// transitContext is the associated-data label binding a transit-sealed
// export to its owner.
const transitContext = "export.transit"

// Dashboard is the transparency view of one user's data holdings.
type Dashboard struct {
	UserID      string
	GeneratedAt time.Time
	Score       int
	Breakdown   ScoreBreakdown
	Counts      map[vault.Category]int
	Scopes      []consent.Scope
}

// ScoreBreakdown is the privacy score split into its components.
type ScoreBreakdown struct {
	Transparency int
	Encryption   int
	Retention    int
}

// ExportPackage is the result of an export request. When transit
// encryption is configured, Data holds a sealed envelope instead of the
// raw serialization.
type ExportPackage struct {
	UserID      string
	Format      Format
	GeneratedAt time.Time
	RecordCount int
	Data        []byte
	Encrypted   bool

	// URL is a time-limited download link, set when object storage
	// delivery is configured.
	URL string
}

// transitEnvelope wraps a sealed export so the package stays
// self-contained.
type transitEnvelope struct {
	Ciphertext []byte `json:"ciphertext"`
	Nonce      []byte `json:"nonce"`
	Tag        []byte `json:"tag"`
}

// ErasureReceipt confirms an erasure with the removed record count.
type ErasureReceipt struct {
	Count     int64
	Timestamp time.Time
}

// Params bundles the controller's dependencies.
type Params struct {
	Tokens  *consent.Service
	Vault   *vault.Service
	Builder *profile.Builder
	Logger  logging.Logger

	// TransitKey, when set, seals every export package for transit.
	TransitKey []byte

	// Exporter, when set, uploads export packages to object storage and
	// returns a download URL.
	Exporter *S3Exporter

	ProfileCacheTTL  time.Duration
	ProfileCacheSize int
}

// Controller implements the privacy operations.
type Controller struct {
	tokens     *consent.Service
	vault      *vault.Service
	builder    *profile.Builder
	logger     logging.Logger
	transitKey []byte
	exporter   *S3Exporter
	cache      *profileCache
	now        func() time.Time
}

// NewController creates the privacy controller.
func NewController(p Params) *Controller {
	ttl := p.ProfileCacheTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	size := p.ProfileCacheSize
	if size <= 0 {
		size = 1024
	}
	return &Controller{
		tokens:     p.Tokens,
		vault:      p.Vault,
		builder:    p.Builder,
		logger:     p.Logger,
		transitKey: p.TransitKey,
		exporter:   p.Exporter,
		cache:      newProfileCache(ttl, size),
		now:        time.Now,
	}
}

// Dashboard returns per-category record counts, the scopes the token
// currently grants, and the privacy score. The token must be valid;
// containment is not required for counts, which expose no record
// contents.
func (c *Controller) Dashboard(ctx context.Context, token string) (*Dashboard, error) {
	grant, err := c.tokens.Inspect(ctx, token)
	if err != nil {
		return nil, err
	}

	counts, err := c.vault.Counts(ctx, grant.UserID)
	if err != nil {
		return nil, err
	}

	breakdown := c.score(grant, counts)
	return &Dashboard{
		UserID:      grant.UserID,
		GeneratedAt: c.now(),
		Score:       breakdown.Transparency + breakdown.Encryption + breakdown.Retention,
		Breakdown:   breakdown,
		Counts:      counts,
		Scopes:      grant.Scopes,
	}, nil
}

// score computes the deterministic privacy score. Transparency reflects
// how much of the stored data the user can currently read back under the
// grant; encryption coverage is total since every record is sealed at
// rest; retention compliance reflects how much of the held data is under
// a bounded TTL.
func (c *Controller) score(grant *consent.Grant, counts map[vault.Category]int) ScoreBreakdown {
	categories := vault.Categories()

	readable := 0
	for _, cat := range categories {
		policy, err := c.vault.Policy(cat)
		if err == nil && grant.Has(policy.ReadScope) {
			readable++
		}
	}

	withData, bounded := 0, 0
	for cat, n := range counts {
		if n == 0 {
			continue
		}
		withData++
		if policy, err := c.vault.Policy(cat); err == nil && policy.TTL > 0 {
			bounded++
		}
	}
	retention := weightRetention
	if withData > 0 {
		retention = weightRetention * bounded / withData
	}

	return ScoreBreakdown{
		Transparency: weightTransparency * readable / len(categories),
		Encryption:   weightEncryption,
		Retention:    retention,
	}
}

// Export decrypts the requested categories and serializes them in the
// given format. The per-category read scope is enforced by the vault on
// every fetch. Records failing integrity checks are excluded from the
// package.
func (c *Controller) Export(ctx context.Context, token string, categories []vault.Category, format Format) (*ExportPackage, error) {
	grant, err := c.tokens.Inspect(ctx, token)
	if err != nil {
		return nil, err
	}

	now := c.now()
	doc := &ExportDocument{UserID: grant.UserID, GeneratedAt: now}

	for _, category := range categories {
		items, err := c.vault.Get(ctx, grant, category)
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if item.Err != nil {
				continue
			}
			rec := ExportRecord{
				ID:        item.Record.ID,
				Category:  string(item.Record.Category),
				CreatedAt: item.Record.CreatedAt,
				Data:      item.Data,
			}
			if !item.Record.ExpiresAt.IsZero() {
				expiresAt := item.Record.ExpiresAt
				rec.ExpiresAt = &expiresAt
			}
			doc.Records = append(doc.Records, rec)
		}
	}

	data, err := EncodeDocument(doc, format)
	if err != nil {
		return nil, err
	}

	pkg := &ExportPackage{
		UserID:      grant.UserID,
		Format:      format,
		GeneratedAt: now,
		RecordCount: len(doc.Records),
		Data:        data,
	}

	if len(c.transitKey) > 0 {
		ad := cryptox.AssociatedData(grant.UserID, transitContext)
		ciphertext, nonce, tag, err := cryptox.Seal(data, c.transitKey, ad)
		if err != nil {
			return nil, err
		}
		envelope, err := json.Marshal(transitEnvelope{Ciphertext: ciphertext, Nonce: nonce, Tag: tag})
		if err != nil {
			return nil, err
		}
		pkg.Data = envelope
		pkg.Encrypted = true
	}

	if c.exporter != nil {
		url, err := c.exporter.Deliver(ctx, grant.UserID, pkg.Data)
		if err != nil {
			return nil, err
		}
		pkg.URL = url
	}

	c.log(ctx, "export generated",
		"user_id", grant.UserID, "format", format, "records", pkg.RecordCount)
	return pkg, nil
}

// OpenExport unseals a transit-encrypted package back to its serialized
// form.
func (c *Controller) OpenExport(pkg *ExportPackage) ([]byte, error) {
	if !pkg.Encrypted {
		return pkg.Data, nil
	}
	var envelope transitEnvelope
	if err := json.Unmarshal(pkg.Data, &envelope); err != nil {
		return nil, err
	}
	ad := cryptox.AssociatedData(pkg.UserID, transitContext)
	return cryptox.Open(envelope.Ciphertext, envelope.Nonce, envelope.Tag, c.transitKey, ad)
}

// Erase removes all records of the given categories from the token
// owner's partition and invalidates the cached profile. The grant must
// carry the write scope of every requested category; nothing is removed
// otherwise.
func (c *Controller) Erase(ctx context.Context, token string, categories []vault.Category) (*ErasureReceipt, error) {
	grant, err := c.tokens.Inspect(ctx, token)
	if err != nil {
		return nil, err
	}

	for _, category := range categories {
		policy, err := c.vault.Policy(category)
		if err != nil {
			return nil, err
		}
		if !grant.Has(policy.WriteScope) {
			return nil, common.ErrScopeMissing
		}
	}

	removed, err := c.vault.Erase(ctx, grant.UserID, categories)
	if err != nil {
		return nil, err
	}

	c.cache.invalidate(grant.UserID)
	c.log(ctx, "erasure completed", "user_id", grant.UserID, "removed", removed)
	return &ErasureReceipt{Count: removed, Timestamp: c.now()}, nil
}

// Profile returns the cached profile of the token owner, building it
// from vault records on a miss. A user with no behavioral data gets the
// default profile instead of an error.
func (c *Controller) Profile(ctx context.Context, token string) (*profile.UserProfile, error) {
	grant, err := c.tokens.Inspect(ctx, token)
	if err != nil {
		return nil, err
	}

	now := c.now()
	if p := c.cache.get(grant.UserID, now); p != nil {
		return p, nil
	}

	recs, err := profile.ReadRecords(ctx, c.vault, grant)
	if err != nil {
		return nil, err
	}

	p, err := c.builder.Build(grant.UserID, recs)
	if errors.Is(err, common.ErrInsufficientData) {
		p = profile.DefaultProfile(grant.UserID, now)
	} else if err != nil {
		return nil, err
	}

	c.cache.put(grant.UserID, p, now)
	return p, nil
}

// InvalidateProfile drops the cached profile after a vault mutation for
// the user.
func (c *Controller) InvalidateProfile(userID string) {
	c.cache.invalidate(userID)
}

func (c *Controller) log(ctx context.Context, msg string, args ...any) {
	if c.logger != nil {
		c.logger.Info(ctx, msg, args...)
	}
}
