package consent

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/dmitrijs2005/consentvault/internal/common"
	"github.com/dmitrijs2005/consentvault/internal/logging"
	"github.com/dmitrijs2005/consentvault/internal/metrics"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Claims is the JWT claim set for a consent token: the registered claims
// plus the user and the granted scope set.
type Claims struct {
	jwt.RegisteredClaims
	UserID string  `json:"uid"`
	Scopes []Scope `json:"scopes"`
}

// Grant is the proof of a successful verification. Downstream components
// accept a Grant instead of re-parsing the credential.
type Grant struct {
	UserID  string
	Scopes  []Scope
	TokenID string
}

// Has reports whether the grant carries the given scope.
func (g *Grant) Has(scope Scope) bool {
	return slices.Contains(g.Scopes, scope)
}

// Service issues and verifies consent tokens.
type Service struct {
	secretKey []byte
	maxTTL    time.Duration
	logger    logging.Logger

	// Denial logging is rate limited so a misbehaving caller cannot
	// flood the log.
	denialLog *rate.Limiter

	mu       sync.Mutex
	denylist map[string]time.Time // token ID -> natural expiry

	now func() time.Time
}

// NewService creates a token service signing with secretKey. Tokens may
// not be issued with a TTL above maxTTL.
func NewService(secretKey []byte, maxTTL time.Duration, logger logging.Logger) *Service {
	return &Service{
		secretKey: secretKey,
		maxTTL:    maxTTL,
		logger:    logger,
		denialLog: rate.NewLimiter(rate.Every(time.Second), 5),
		denylist:  make(map[string]time.Time),
		now:       time.Now,
	}
}

// Issue creates a signed consent token for userID covering the given
// scopes. It returns common.ErrInvalidScope if any scope is unrecognized
// and common.ErrInvalidTTL if ttl is non-positive or exceeds the
// configured maximum.
func (s *Service) Issue(userID string, scopes []Scope, ttl time.Duration) (string, error) {
	for _, scope := range scopes {
		if !scope.Known() {
			return "", common.ErrInvalidScope
		}
	}
	if ttl <= 0 || ttl > s.maxTTL {
		return "", common.ErrInvalidTTL
	}

	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID,
		Scopes: scopes,
	})

	return token.SignedString(s.secretKey)
}

// Verify checks a consent token against a required scope. Checks run in a
// fixed order and the first failure determines the reported reason:
// signature (common.ErrBadSignature), expiry (common.ErrTokenExpired),
// revocation (common.ErrTokenRevoked), scope containment
// (common.ErrScopeMissing). On success it returns the Grant carried by
// the token.
func (s *Service) Verify(ctx context.Context, tokenString string, required Scope) (*Grant, error) {
	grant, err := s.Inspect(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	if !grant.Has(required) {
		return nil, s.deny(ctx, "scope_missing", common.ErrScopeMissing)
	}
	return grant, nil
}

// Inspect validates a token's signature, expiry and revocation state
// without requiring a particular scope. It serves operations that span
// several scopes, where containment is enforced per category downstream.
func (s *Service) Inspect(ctx context.Context, tokenString string) (*Grant, error) {
	claims := &Claims{}

	// Claims validation is done by hand below so that a token that is
	// both tampered and expired always reports the signature failure.
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, s.deny(ctx, "bad_signature", common.ErrBadSignature)
	}

	if claims.ExpiresAt == nil || !s.now().Before(claims.ExpiresAt.Time) {
		return nil, s.deny(ctx, "expired", common.ErrTokenExpired)
	}

	if s.revoked(claims.ID) {
		return nil, s.deny(ctx, "revoked", common.ErrTokenRevoked)
	}

	return &Grant{UserID: claims.UserID, Scopes: claims.Scopes, TokenID: claims.ID}, nil
}

// Revoke places the token on the denylist until its natural expiry. The
// signature must verify; expiry is not checked, revoking an
// already-expired token is a no-op that still succeeds.
func (s *Service) Revoke(tokenString string) error {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) { return s.secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return common.ErrBadSignature
	}

	expiry := s.now().Add(s.maxTTL)
	if claims.ExpiresAt != nil {
		expiry = claims.ExpiresAt.Time
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.denylist[claims.ID] = expiry
	s.pruneLocked()
	return nil
}

func (s *Service) revoked(tokenID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	_, ok := s.denylist[tokenID]
	return ok
}

// pruneLocked drops denylist entries whose natural expiry has passed, so
// the list never grows beyond the set of still-live revoked tokens.
// Callers must hold s.mu.
func (s *Service) pruneLocked() {
	now := s.now()
	for id, expiry := range s.denylist {
		if !now.Before(expiry) {
			delete(s.denylist, id)
		}
	}
}

func (s *Service) deny(ctx context.Context, reason string, err error) error {
	metrics.ConsentDenials.WithLabelValues(reason).Inc()
	if s.logger != nil && s.denialLog.Allow() {
		s.logger.Warn(ctx, "consent verification denied", "reason", reason)
	}
	return err
}
