package profile

// Segment is one of the fixed behavioral user categories.
type Segment string

const (
	SegmentFrequentShopper Segment = "frequent_shopper"
	SegmentPremiumBuyer    Segment = "premium_buyer"
	SegmentBrandLoyalist   Segment = "brand_loyalist"
	SegmentBargainHunter   Segment = "bargain_hunter"
	SegmentWindowShopper   Segment = "window_shopper"
	SegmentSeasonalShopper Segment = "seasonal_shopper"
	SegmentNewCustomer     Segment = "new_customer"
	SegmentOccasional      Segment = "occasional"
)

// classifier is one ordered segment predicate. Declaration order in
// classifiers is the priority order: the first match wins.
type classifier struct {
	segment  Segment
	strength float64
	matches  func(f FeatureVector, recs *Records) bool
}

// defaultConfidenceFloor is the confidence assigned with the fallback
// Occasional segment.
const defaultConfidenceFloor = 0.3

// classifiers is the segment rule table. Thresholds operate on the
// normalized feature vector, except purchase counts which are taken from
// the raw records (a count threshold reads more directly than its
// normalized equivalent).
var classifiers = []classifier{
	{
		segment:  SegmentFrequentShopper,
		strength: 0.6,
		matches: func(f FeatureVector, recs *Records) bool {
			return len(recs.Purchases) >= 5
		},
	},
	{
		segment:  SegmentPremiumBuyer,
		strength: 0.75,
		matches: func(f FeatureVector, recs *Records) bool {
			return f[FeatureSpendingAvg] >= 0.5 && len(recs.Purchases) > 0
		},
	},
	{
		segment:  SegmentBrandLoyalist,
		strength: 0.7,
		matches: func(f FeatureVector, recs *Records) bool {
			return f[FeatureBrandLoyalty] >= 0.6 && len(recs.Purchases) >= 2
		},
	},
	{
		segment:  SegmentBargainHunter,
		strength: 0.65,
		matches: func(f FeatureVector, recs *Records) bool {
			return f[FeaturePriceSensitivity] >= 0.6 && len(recs.Purchases) > 0
		},
	},
	{
		segment:  SegmentWindowShopper,
		strength: 0.55,
		matches: func(f FeatureVector, recs *Records) bool {
			return len(recs.Usage) > 0 && f[FeatureSearchToPurchase] < 0.2 && len(recs.Purchases) <= 1
		},
	},
	{
		segment:  SegmentSeasonalShopper,
		strength: 0.5,
		matches: func(f FeatureVector, recs *Records) bool {
			return len(recs.Purchases) >= 2 && f[FeatureRecency] < 0.3
		},
	},
	{
		segment:  SegmentNewCustomer,
		strength: 0.6,
		matches: func(f FeatureVector, recs *Records) bool {
			return len(recs.Purchases) <= 1 && f[FeatureRecency] >= 0.7
		},
	},
}

// classify applies the ordered predicates and returns the first matching
// segment with its strength; Occasional with the confidence floor when
// nothing matches.
func classify(f FeatureVector, recs *Records) (Segment, float64) {
	for _, c := range classifiers {
		if c.matches(f, recs) {
			return c.segment, c.strength
		}
	}
	return SegmentOccasional, defaultConfidenceFloor
}
