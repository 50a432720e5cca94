package recommend

import (
	"fmt"
	"sort"
	"time"

	"github.com/dmitrijs2005/consentvault/internal/metrics"
	"github.com/dmitrijs2005/consentvault/internal/profile"
)

// Weights are the scoring coefficients. They are tunable configuration,
// not algorithmic truth.
type Weights struct {
	Base         float64
	Confidence   float64
	Completeness float64

	// Degrade multiplies the score of a recommendation whose template
	// rendered with a missing variable.
	Degrade float64
}

// DefaultWeights returns the default scoring coefficients.
func DefaultWeights() Weights {
	return Weights{Base: 0.6, Confidence: 0.2, Completeness: 0.2, Degrade: 0.9}
}

// Recommendation is an ephemeral, per-request result. It is regenerated
// on every call and never stored.
type Recommendation struct {
	RuleID    string
	Text      string
	Score     float64
	Category  string
	ExpiresAt time.Time
}

// Engine evaluates the rule table against profiles. Safe for concurrent
// use.
type Engine struct {
	rules     []Rule
	templates map[string]Template
	weights   Weights
	now       func() time.Time
}

// NewEngine builds an engine from a rule table and template set. All
// templates are validated against their declared variable sets, and
// every rule must reference an existing template; a bad configuration
// fails here, not at render time.
func NewEngine(rules []Rule, templates []Template, weights Weights) (*Engine, error) {
	tm := make(map[string]Template, len(templates))
	for _, t := range templates {
		if err := t.validate(); err != nil {
			return nil, err
		}
		tm[t.ID] = t
	}
	for _, r := range rules {
		if _, ok := tm[r.TemplateID]; !ok {
			return nil, fmt.Errorf("rule %q references unknown template %q", r.ID, r.TemplateID)
		}
	}
	return &Engine{rules: rules, templates: tm, weights: weights, now: time.Now}, nil
}

// Recommend evaluates every rule against (profile, ctx) and returns at
// most maxN recommendations, ranked by score descending with ties broken
// by rule declaration order. Zero matches yield an empty slice, never an
// error; the caller decides the fallback experience.
func (e *Engine) Recommend(p *profile.UserProfile, ctx Context, maxN int) []Recommendation {
	if p == nil || maxN <= 0 {
		return nil
	}

	bindings := e.bindings(p, ctx)
	now := e.now()

	var result []Recommendation
	for i := range e.rules {
		rule := &e.rules[i]
		if !rule.matches(p, ctx) {
			continue
		}

		score := e.weights.Base*rule.BaseConfidence +
			e.weights.Confidence*p.Confidence +
			e.weights.Completeness*p.Completeness
		score = clamp01(score)

		tpl := e.templates[rule.TemplateID]
		text, complete := tpl.render(bindings)
		if !complete {
			score = clamp01(score * e.weights.Degrade)
		}

		ttl := rule.TTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}

		result = append(result, Recommendation{
			RuleID:    rule.ID,
			Text:      text,
			Score:     score,
			Category:  rule.Category,
			ExpiresAt: now.Add(ttl),
		})
	}

	// Stable sort keeps declaration order for equal scores, so the
	// ranking is fully deterministic.
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Score > result[j].Score
	})

	if len(result) > maxN {
		result = result[:maxN]
	}

	metrics.RecommendationsServed.Add(float64(len(result)))
	return result
}

func (e *Engine) bindings(p *profile.UserProfile, ctx Context) map[string]string {
	b := map[string]string{
		"user_id": p.UserID,
		"segment": string(p.Segment),
	}
	if ctx.Category != "" {
		b["category"] = ctx.Category
	}
	if ctx.Query != "" {
		b["query"] = ctx.Query
	}
	if ctx.BudgetMax > 0 {
		b["budget"] = fmt.Sprintf("$%.2f", ctx.BudgetMax)
	}
	return b
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
