// Package consent implements the consent token service: issuing,
// verifying and revoking signed, scoped, time-bounded credentials.
//
// A token is an opaque JWT (HS256) carrying the user ID, the granted
// scope set and an expiry. Verification is pure apart from rate-limited
// denial logging; revocation is a bounded in-memory denylist keyed by
// token ID.
package consent

// Scope is an atomic, named data-access capability a consent token may
// grant. Scopes have no implicit hierarchy.
type Scope string

const (
	ScopeReadPurchaseHistory Scope = "read-purchase-history"
	ScopeReadPreferences     Scope = "read-preferences"
	ScopeReadUsageAnalytics  Scope = "read-usage-analytics"
	ScopeWritePurchaseData   Scope = "write-purchase-data"
	ScopeWritePreferenceData Scope = "write-preference-data"
	ScopeWriteUsageData      Scope = "write-usage-data"
)

var knownScopes = map[Scope]struct{}{
	ScopeReadPurchaseHistory: {},
	ScopeReadPreferences:     {},
	ScopeReadUsageAnalytics:  {},
	ScopeWritePurchaseData:   {},
	ScopeWritePreferenceData: {},
	ScopeWriteUsageData:      {},
}

// Known reports whether s is a recognized scope.
func (s Scope) Known() bool {
	_, ok := knownScopes[s]
	return ok
}
