package recommend

import (
	"fmt"
	"regexp"
	"strings"
)

// Template is a restricted substitution grammar: the text may reference
// only the variables declared in Vars, written as {name}. The
// restriction is validated at configuration load, not at render time.
type Template struct {
	ID   string
	Text string
	Vars []string
}

var placeholderRe = regexp.MustCompile(`\{([a-z_]+)\}`)

// missingVarDefault substitutes for a variable the caller did not bind.
// Rendering never fails on a missing binding; the recommendation's score
// is degraded instead.
const missingVarDefault = "your picks"

// validate checks that every placeholder in Text is declared in Vars.
func (t *Template) validate() error {
	declared := make(map[string]struct{}, len(t.Vars))
	for _, v := range t.Vars {
		declared[v] = struct{}{}
	}
	for _, m := range placeholderRe.FindAllStringSubmatch(t.Text, -1) {
		if _, ok := declared[m[1]]; !ok {
			return fmt.Errorf("template %q references undeclared variable %q", t.ID, m[1])
		}
	}
	return nil
}

// render substitutes bindings into the template. It returns the rendered
// text and whether every placeholder had a binding.
func (t *Template) render(bindings map[string]string) (string, bool) {
	complete := true
	text := placeholderRe.ReplaceAllStringFunc(t.Text, func(m string) string {
		name := strings.Trim(m, "{}")
		if v, ok := bindings[name]; ok && v != "" {
			return v
		}
		complete = false
		return missingVarDefault
	})
	return text, complete
}

// DefaultTemplates returns the built-in template set.
func DefaultTemplates() []Template {
	return []Template{
		{
			ID:   "deal-generic",
			Text: "Fresh {category} deals picked for frequent shoppers like you",
			Vars: []string{"category"},
		},
		{
			ID:   "premium-upgrade",
			Text: "Premium upgrades in {category} matching your usual quality range",
			Vars: []string{"category"},
		},
		{
			ID:   "brand-restock",
			Text: "Your go-to brands just restocked: see what's new in {category}",
			Vars: []string{"category"},
		},
		{
			ID:   "flash-sale",
			Text: "Flash sale: extra savings on {query} under {budget}",
			Vars: []string{"query", "budget"},
		},
		{
			ID:   "reorder",
			Text: "Running low? Reorder {query} in one tap",
			Vars: []string{"query"},
		},
		{
			ID:   "starter-picks",
			Text: "Welcome! Starter picks in {category} to get you going",
			Vars: []string{"category"},
		},
		{
			ID:   "comeback",
			Text: "It's been a while, here's what changed in {category}",
			Vars: []string{"category"},
		},
		{
			ID:   "curated-picks",
			Text: "Curated {category} picks based on your browsing",
			Vars: []string{"category"},
		},
	}
}
