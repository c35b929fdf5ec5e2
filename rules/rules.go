// Package rules holds the static achievement rule catalog. Adding a rule is a
// source edit, not a runtime operation; the catalog is immutable once built
// and safe to share across goroutines without synchronization.
package rules

import (
	"fmt"

	"progresskit/core"
)

// Condition is a pure predicate over a trigger context. Conditions must not
// have side effects; missing statistics read as zero via TriggerContext.Get.
type Condition func(core.TriggerContext) bool

// Rule binds an unlock condition to a trigger, plus presentation metadata.
type Rule struct {
	Slug        core.Slug
	Trigger     core.Trigger
	Condition   Condition
	Label       string
	Description string
	Icon        string
}

// Catalog is an insertion-ordered registry of rules keyed by slug.
type Catalog struct {
	rules  []Rule
	bySlug map[core.Slug]int
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{bySlug: map[core.Slug]int{}}
}

// Register appends a rule, rejecting duplicate slugs, unknown triggers, and
// nil conditions. These are programming errors caught at startup.
func (c *Catalog) Register(r Rule) error {
	if err := core.ValidateSlug(r.Slug); err != nil {
		return fmt.Errorf("rule %q: %w", r.Slug, err)
	}
	if _, dup := c.bySlug[r.Slug]; dup {
		return fmt.Errorf("rule %q: duplicate slug", r.Slug)
	}
	if !r.Trigger.Valid() {
		return fmt.Errorf("rule %q: unknown trigger %q", r.Slug, r.Trigger)
	}
	if r.Condition == nil {
		return fmt.Errorf("rule %q: nil condition", r.Slug)
	}
	c.bySlug[r.Slug] = len(c.rules)
	c.rules = append(c.rules, r)
	return nil
}

// MustRegister is Register for static catalogs built at init time.
func (c *Catalog) MustRegister(r Rule) {
	if err := c.Register(r); err != nil {
		panic(err)
	}
}

// ByTrigger returns the rules bound to a trigger in insertion order.
func (c *Catalog) ByTrigger(t core.Trigger) []Rule {
	var out []Rule
	for _, r := range c.rules {
		if r.Trigger == t {
			out = append(out, r)
		}
	}
	return out
}

// Lookup returns the rule for a slug.
func (c *Catalog) Lookup(slug core.Slug) (Rule, bool) {
	i, ok := c.bySlug[slug]
	if !ok {
		return Rule{}, false
	}
	return c.rules[i], true
}

// Details resolves slugs to presentation metadata. Unknown slugs are omitted
// from the result rather than mapped to placeholders.
func (c *Catalog) Details(slugs []core.Slug) []core.AchievementDetail {
	out := make([]core.AchievementDetail, 0, len(slugs))
	for _, s := range slugs {
		r, ok := c.Lookup(s)
		if !ok {
			continue
		}
		out = append(out, core.AchievementDetail{
			Slug:        r.Slug,
			Label:       r.Label,
			Description: r.Description,
			Icon:        r.Icon,
		})
	}
	return out
}

// All returns every rule in insertion order.
func (c *Catalog) All() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Len reports the number of registered rules.
func (c *Catalog) Len() int { return len(c.rules) }
