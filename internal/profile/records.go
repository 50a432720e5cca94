// Package profile converts raw behavioral records into a scored user
// segment. Building is a pure computation: the result is derivable from
// the current vault contents and is cached by callers at most, never
// persisted as a source of truth.
package profile

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/consentvault/internal/consent"
	"github.com/dmitrijs2005/consentvault/internal/vault"
)

// Purchase is the plaintext payload of a shopping.history record.
type Purchase struct {
	Amount    float64   `json:"amount"`
	Category  string    `json:"category"`
	Brand     string    `json:"brand"`
	Timestamp time.Time `json:"timestamp"`
}

// Preference is the plaintext payload of a shopping.preferences record.
type Preference struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Usage is the plaintext payload of a behavioral.analysis record,
// summarizing one tracked session or day.
type Usage struct {
	Searches       int       `json:"searches"`
	Purchases      int       `json:"purchases"`
	SessionMinutes float64   `json:"session_minutes"`
	Timestamp      time.Time `json:"timestamp"`
}

// Records holds the decoded behavioral data of one user, partitioned by
// category.
type Records struct {
	Purchases   []Purchase
	Preferences []Preference
	Usage       []Usage
}

// Empty reports whether no records exist across all categories.
func (r *Records) Empty() bool {
	return len(r.Purchases) == 0 && len(r.Preferences) == 0 && len(r.Usage) == 0
}

// ReadRecords fetches and decodes the three behavioral categories from
// the vault under the caller's grant. Records failing integrity checks
// or decoding are skipped; the profile degrades gracefully instead of
// blocking the recommendation flow.
func ReadRecords(ctx context.Context, vs *vault.Service, grant *consent.Grant) (*Records, error) {
	recs := &Records{}

	historyItems, err := vs.Get(ctx, grant, vault.CategoryShoppingHistory)
	if err != nil {
		return nil, err
	}
	for _, item := range historyItems {
		if item.Err != nil {
			continue
		}
		var p Purchase
		if err := json.Unmarshal(item.Data, &p); err == nil {
			recs.Purchases = append(recs.Purchases, p)
		}
	}

	prefItems, err := vs.Get(ctx, grant, vault.CategoryShoppingPreferences)
	if err != nil {
		return nil, err
	}
	for _, item := range prefItems {
		if item.Err != nil {
			continue
		}
		var p Preference
		if err := json.Unmarshal(item.Data, &p); err == nil {
			recs.Preferences = append(recs.Preferences, p)
		}
	}

	usageItems, err := vs.Get(ctx, grant, vault.CategoryBehavioralAnalysis)
	if err != nil {
		return nil, err
	}
	for _, item := range usageItems {
		if item.Err != nil {
			continue
		}
		var u Usage
		if err := json.Unmarshal(item.Data, &u); err == nil {
			recs.Usage = append(recs.Usage, u)
		}
	}

	return recs, nil
}
