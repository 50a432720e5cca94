package profile

import (
	"time"

	"github.com/dmitrijs2005/consentvault/internal/common"
)

// UserProfile is the derived behavioral profile of one user. It is
// rebuilt on demand from the current vault records; cache only, never a
// source of truth.
type UserProfile struct {
	UserID       string
	Segment      Segment
	Confidence   float64
	Completeness float64
	Features     FeatureVector
	BuiltAt      time.Time
}

// Builder extracts feature vectors and classifies users into segments.
type Builder struct {
	bounds Bounds
	now    func() time.Time
}

// NewBuilder creates a Builder with the given normalization bounds.
func NewBuilder(bounds Bounds) *Builder {
	return &Builder{bounds: bounds, now: time.Now}
}

// DefaultProfile is the fallback profile for a user with no behavioral
// data yet. It keeps the recommendation pipeline available with neutral
// features instead of failing the request.
func DefaultProfile(userID string, now time.Time) *UserProfile {
	features := make(FeatureVector, len(FeatureNames))
	for _, name := range FeatureNames {
		features[name] = neutral
	}
	return &UserProfile{
		UserID:   userID,
		Segment:  SegmentOccasional,
		Features: features,
		BuiltAt:  now,
	}
}

// Build derives a profile from the user's decoded records. It fails with
// common.ErrInsufficientData only when zero records exist across all
// categories; any other gap degrades confidence through the completeness
// multiplier instead of blocking the recommendation flow.
func (b *Builder) Build(userID string, recs *Records) (*UserProfile, error) {
	if recs == nil || recs.Empty() {
		return nil, common.ErrInsufficientData
	}

	now := b.now()
	features := extractFeatures(recs, b.bounds, now)
	comp := completeness(recs)
	segment, strength := classify(features, recs)

	return &UserProfile{
		UserID:       userID,
		Segment:      segment,
		Confidence:   clamp01(strength * comp),
		Completeness: comp,
		Features:     features,
		BuiltAt:      now,
	}, nil
}
