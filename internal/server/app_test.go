package server

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/consentvault/internal/common"
	"github.com/dmitrijs2005/consentvault/internal/consent"
	"github.com/dmitrijs2005/consentvault/internal/privacy"
	"github.com/dmitrijs2005/consentvault/internal/profile"
	"github.com/dmitrijs2005/consentvault/internal/recommend"
	"github.com/dmitrijs2005/consentvault/internal/server/config"
	"github.com/dmitrijs2005/consentvault/internal/vault"
)

func newTestApp(t *testing.T) *App {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.MasterKey = "test-master-key"

	app, err := NewApp(cfg)
	if err != nil {
		t.Fatalf("NewApp error: %v", err)
	}
	return app
}

func issueToken(t *testing.T, app *App, userID string, scopes []consent.Scope) string {
	t.Helper()
	token, err := app.Tokens.Issue(userID, scopes, time.Hour)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	return token
}

func TestApp_StoreAndRecommend(t *testing.T) {
	app := newTestApp(t)

	token := issueToken(t, app, "u1", []consent.Scope{
		consent.ScopeReadPurchaseHistory,
		consent.ScopeReadPreferences,
		consent.ScopeReadUsageAnalytics,
		consent.ScopeWritePurchaseData,
	})

	for i := 0; i < 6; i++ {
		payload, _ := json.Marshal(profile.Purchase{
			Amount: 120, Category: "electronics", Brand: "Acme", Timestamp: time.Now(),
		})
		if _, err := app.Store(context.Background(), token, vault.CategoryShoppingHistory, payload); err != nil {
			t.Fatalf("Store error: %v", err)
		}
	}

	recs, err := app.Recommendations(context.Background(), token, recommend.Context{Category: "electronics"}, 5)
	if err != nil {
		t.Fatalf("Recommendations error: %v", err)
	}
	if len(recs) == 0 {
		t.Fatalf("expected recommendations for a frequent shopper")
	}

	p, err := app.Privacy.Profile(context.Background(), token)
	if err != nil {
		t.Fatalf("Profile error: %v", err)
	}
	if p.Segment != profile.SegmentFrequentShopper {
		t.Fatalf("expected FrequentShopper, got %s", p.Segment)
	}
}

func TestApp_StoreInvalidatesProfile(t *testing.T) {
	app := newTestApp(t)

	token := issueToken(t, app, "u1", []consent.Scope{
		consent.ScopeReadPurchaseHistory,
		consent.ScopeReadPreferences,
		consent.ScopeReadUsageAnalytics,
		consent.ScopeWritePurchaseData,
	})

	// Profile before any data is the neutral default and gets cached.
	p, err := app.Privacy.Profile(context.Background(), token)
	if err != nil {
		t.Fatalf("Profile error: %v", err)
	}
	if p.Segment != profile.SegmentOccasional {
		t.Fatalf("expected default segment, got %s", p.Segment)
	}

	for i := 0; i < 6; i++ {
		payload, _ := json.Marshal(profile.Purchase{Amount: 50, Brand: "Acme", Timestamp: time.Now()})
		if _, err := app.Store(context.Background(), token, vault.CategoryShoppingHistory, payload); err != nil {
			t.Fatalf("Store error: %v", err)
		}
	}

	p, err = app.Privacy.Profile(context.Background(), token)
	if err != nil {
		t.Fatalf("Profile error: %v", err)
	}
	if p.Segment != profile.SegmentFrequentShopper {
		t.Fatalf("cached profile not invalidated after writes: %s", p.Segment)
	}
}

func TestApp_StoreScopeMissing(t *testing.T) {
	app := newTestApp(t)

	token := issueToken(t, app, "u1", []consent.Scope{consent.ScopeReadPurchaseHistory})
	_, err := app.Store(context.Background(), token, vault.CategoryShoppingHistory, []byte(`{}`))
	if !errors.Is(err, common.ErrScopeMissing) {
		t.Fatalf("expected ErrScopeMissing, got %v", err)
	}
}

func TestApp_ExportThroughWiring(t *testing.T) {
	app := newTestApp(t)

	token := issueToken(t, app, "u1", []consent.Scope{
		consent.ScopeReadPreferences,
		consent.ScopeWritePreferenceData,
	})

	payload, _ := json.Marshal(profile.Preference{Key: "color", Value: "red"})
	if _, err := app.Store(context.Background(), token, vault.CategoryShoppingPreferences, payload); err != nil {
		t.Fatalf("Store error: %v", err)
	}

	pkg, err := app.Privacy.Export(context.Background(), token,
		[]vault.Category{vault.CategoryShoppingPreferences}, privacy.FormatJSON)
	if err != nil {
		t.Fatalf("Export error: %v", err)
	}
	if pkg.RecordCount != 1 {
		t.Fatalf("expected 1 exported record, got %d", pkg.RecordCount)
	}
}
