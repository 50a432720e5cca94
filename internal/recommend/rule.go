// Package recommend turns a user profile and a request context into
// ranked, templated recommendations. The engine is stateless per call:
// it never mutates the rule table or any global state, so any instance
// can serve concurrent requests.
package recommend

import (
	"slices"
	"time"

	"github.com/dmitrijs2005/consentvault/internal/profile"
)

// Rule is one entry of the static rule table. Its applicability
// predicate is a closed, uniform shape (segment membership, normalized
// feature thresholds and a context category) so the table stays
// auditable as plain data.
type Rule struct {
	ID string

	// Segments the rule applies to; empty means any segment.
	Segments []profile.Segment

	// MinFeatures are thresholds over the normalized feature vector;
	// every listed feature must reach its threshold.
	MinFeatures map[string]float64

	// ContextCategory restricts the rule to requests asking for that
	// category; empty matches any request.
	ContextCategory string

	BaseConfidence float64
	TemplateID     string
	Category       string
	TTL            time.Duration
}

// Context is the per-request input evaluated alongside the profile.
type Context struct {
	Category  string
	Query     string
	BudgetMax float64
}

func (r *Rule) matches(p *profile.UserProfile, ctx Context) bool {
	if len(r.Segments) > 0 && !slices.Contains(r.Segments, p.Segment) {
		return false
	}
	for name, min := range r.MinFeatures {
		if p.Features[name] < min {
			return false
		}
	}
	if r.ContextCategory != "" && ctx.Category != "" && ctx.Category != r.ContextCategory {
		return false
	}
	return true
}

// DefaultRules returns the built-in rule table.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:              "electronics-frequent-deal",
			Segments:        []profile.Segment{profile.SegmentFrequentShopper, profile.SegmentPremiumBuyer},
			ContextCategory: "electronics",
			BaseConfidence:  0.9,
			TemplateID:      "deal-generic",
			Category:        "electronics",
			TTL:             24 * time.Hour,
		},
		{
			ID:             "premium-upgrade",
			Segments:       []profile.Segment{profile.SegmentPremiumBuyer},
			MinFeatures:    map[string]float64{profile.FeatureSpendingAvg: 0.5},
			BaseConfidence: 0.85,
			TemplateID:     "premium-upgrade",
			Category:       "electronics",
			TTL:            48 * time.Hour,
		},
		{
			ID:             "brand-restock",
			Segments:       []profile.Segment{profile.SegmentBrandLoyalist, profile.SegmentFrequentShopper},
			MinFeatures:    map[string]float64{profile.FeatureBrandLoyalty: 0.5},
			BaseConfidence: 0.8,
			TemplateID:     "brand-restock",
			Category:       "general",
			TTL:            72 * time.Hour,
		},
		{
			ID:             "bargain-flash-sale",
			Segments:       []profile.Segment{profile.SegmentBargainHunter, profile.SegmentFrequentShopper},
			MinFeatures:    map[string]float64{profile.FeaturePriceSensitivity: 0.4},
			BaseConfidence: 0.75,
			TemplateID:     "flash-sale",
			Category:       "deals",
			TTL:            6 * time.Hour,
		},
		{
			ID:             "reorder-reminder",
			Segments:       []profile.Segment{profile.SegmentFrequentShopper},
			MinFeatures:    map[string]float64{profile.FeatureRecency: 0.5},
			BaseConfidence: 0.7,
			TemplateID:     "reorder",
			Category:       "general",
			TTL:            24 * time.Hour,
		},
		{
			ID:             "welcome-starter",
			Segments:       []profile.Segment{profile.SegmentNewCustomer, profile.SegmentWindowShopper},
			BaseConfidence: 0.6,
			TemplateID:     "starter-picks",
			Category:       "general",
			TTL:            7 * 24 * time.Hour,
		},
		{
			ID:             "seasonal-comeback",
			Segments:       []profile.Segment{profile.SegmentSeasonalShopper, profile.SegmentOccasional},
			BaseConfidence: 0.55,
			TemplateID:     "comeback",
			Category:       "general",
			TTL:            7 * 24 * time.Hour,
		},
		{
			ID:             "engaged-browser-picks",
			MinFeatures:    map[string]float64{profile.FeatureSessionEngagement: 0.3},
			BaseConfidence: 0.5,
			TemplateID:     "curated-picks",
			Category:       "general",
			TTL:            24 * time.Hour,
		},
	}
}
