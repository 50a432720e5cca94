package vault

import (
	"time"

	"github.com/dmitrijs2005/consentvault/internal/consent"
)

// Category names a closed, known record category. Unknown categories are
// rejected before any state mutation.
type Category string

const (
	CategoryShoppingHistory     Category = "shopping.history"
	CategoryShoppingPreferences Category = "shopping.preferences"
	CategoryBehavioralAnalysis  Category = "behavioral.analysis"
)

// Policy describes how a category is stored and which scopes gate access
// to it.
type Policy struct {
	TTL        time.Duration // 0 means records never expire
	ReadScope  consent.Scope
	WriteScope consent.Scope
}

// DefaultPolicies returns the retention and scope policy per category.
// Behavioral analytics default to 90 days; purchase history is kept for a
// year; preferences are kept until erased.
func DefaultPolicies() map[Category]Policy {
	return map[Category]Policy{
		CategoryShoppingHistory: {
			TTL:        365 * 24 * time.Hour,
			ReadScope:  consent.ScopeReadPurchaseHistory,
			WriteScope: consent.ScopeWritePurchaseData,
		},
		CategoryShoppingPreferences: {
			TTL:        0,
			ReadScope:  consent.ScopeReadPreferences,
			WriteScope: consent.ScopeWritePreferenceData,
		},
		CategoryBehavioralAnalysis: {
			TTL:        90 * 24 * time.Hour,
			ReadScope:  consent.ScopeReadUsageAnalytics,
			WriteScope: consent.ScopeWriteUsageData,
		},
	}
}

// Categories lists the known categories in a stable order.
func Categories() []Category {
	return []Category{
		CategoryShoppingHistory,
		CategoryShoppingPreferences,
		CategoryBehavioralAnalysis,
	}
}
