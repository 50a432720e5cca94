package profile

import "time"

// Feature names, in vector order. The order is part of the contract:
// segments and rules are evaluated against this fixed layout.
const (
	FeatureSpendingTotal     = "spending_total"
	FeatureSpendingAvg       = "spending_avg"
	FeaturePurchaseFrequency = "purchase_frequency"
	FeatureCategoryBreadth   = "category_breadth"
	FeatureBrandLoyalty      = "brand_loyalty"
	FeaturePriceSensitivity  = "price_sensitivity"
	FeatureSearchToPurchase  = "search_to_purchase"
	FeatureSessionEngagement = "session_engagement"
	FeatureRecency           = "recency"
)

// FeatureNames is the fixed feature vector order.
var FeatureNames = []string{
	FeatureSpendingTotal,
	FeatureSpendingAvg,
	FeaturePurchaseFrequency,
	FeatureCategoryBreadth,
	FeatureBrandLoyalty,
	FeaturePriceSensitivity,
	FeatureSearchToPurchase,
	FeatureSessionEngagement,
	FeatureRecency,
}

// FeatureVector maps feature names to values normalized into [0,1].
// Iterate via FeatureNames for the declared order.
type FeatureVector map[string]float64

// neutral is the midpoint substituted for features whose input group is
// missing; the loss of signal is tracked through the completeness
// multiplier instead.
const neutral = 0.5

// Bounds holds the min/max normalization bounds and reference values for
// feature extraction. Tunable configuration, not algorithmic truth.
type Bounds struct {
	SpendingTotalMax   float64
	SpendingAvgMax     float64
	MonthlyPurchaseMax float64
	CategoryBreadthMax float64
	BudgetPrice        float64 // purchases below this count as price-sensitive
	SessionMinutesMax  float64
	RecencyWindowDays  float64
}

// DefaultBounds returns the default normalization bounds.
func DefaultBounds() Bounds {
	return Bounds{
		SpendingTotalMax:   5000,
		SpendingAvgMax:     1000,
		MonthlyPurchaseMax: 30,
		CategoryBreadthMax: 10,
		BudgetPrice:        100,
		SessionMinutesMax:  120,
		RecencyWindowDays:  90,
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// extractFeatures computes the normalized feature vector from the
// decoded records. Missing input groups contribute neutral values.
func extractFeatures(recs *Records, b Bounds, now time.Time) FeatureVector {
	f := FeatureVector{}

	if len(recs.Purchases) > 0 {
		var total float64
		var sensitive int
		brands := map[string]int{}
		categories := map[string]struct{}{}
		first, last := recs.Purchases[0].Timestamp, recs.Purchases[0].Timestamp

		for _, p := range recs.Purchases {
			total += p.Amount
			if p.Amount > 0 && p.Amount < b.BudgetPrice {
				sensitive++
			}
			if p.Brand != "" {
				brands[p.Brand]++
			}
			if p.Category != "" {
				categories[p.Category] = struct{}{}
			}
			if p.Timestamp.Before(first) {
				first = p.Timestamp
			}
			if p.Timestamp.After(last) {
				last = p.Timestamp
			}
		}

		count := float64(len(recs.Purchases))
		avg := total / count

		f[FeatureSpendingTotal] = clamp01(total / b.SpendingTotalMax)
		f[FeatureSpendingAvg] = clamp01(avg / b.SpendingAvgMax)
		f[FeatureCategoryBreadth] = clamp01(float64(len(categories)) / b.CategoryBreadthMax)
		f[FeaturePriceSensitivity] = clamp01(float64(sensitive) / count)

		// Purchases per month over the observed span (at least one month).
		months := last.Sub(first).Hours() / (24 * 30)
		if months < 1 {
			months = 1
		}
		f[FeaturePurchaseFrequency] = clamp01(count / months / b.MonthlyPurchaseMax)

		// Share of purchases going to the dominant brand.
		var top int
		for _, n := range brands {
			if n > top {
				top = n
			}
		}
		f[FeatureBrandLoyalty] = clamp01(float64(top) / count)

		days := now.Sub(last).Hours() / 24
		f[FeatureRecency] = clamp01(1 - days/b.RecencyWindowDays)
	} else {
		f[FeatureSpendingTotal] = neutral
		f[FeatureSpendingAvg] = neutral
		f[FeaturePurchaseFrequency] = neutral
		f[FeatureCategoryBreadth] = neutral
		f[FeatureBrandLoyalty] = neutral
		f[FeaturePriceSensitivity] = neutral
		f[FeatureRecency] = neutral
	}

	if len(recs.Usage) > 0 {
		var searches, purchases int
		var minutes float64
		for _, u := range recs.Usage {
			searches += u.Searches
			purchases += u.Purchases
			minutes += u.SessionMinutes
		}
		if searches > 0 {
			f[FeatureSearchToPurchase] = clamp01(float64(purchases) / float64(searches))
		} else {
			f[FeatureSearchToPurchase] = neutral
		}
		f[FeatureSessionEngagement] = clamp01(minutes / float64(len(recs.Usage)) / b.SessionMinutesMax)
	} else {
		f[FeatureSearchToPurchase] = neutral
		f[FeatureSessionEngagement] = neutral
	}

	return f
}

// completeness is the share of input groups that contributed data.
func completeness(recs *Records) float64 {
	present := 0.0
	if len(recs.Purchases) > 0 {
		present++
	}
	if len(recs.Preferences) > 0 {
		present++
	}
	if len(recs.Usage) > 0 {
		present++
	}
	return present / 3
}
