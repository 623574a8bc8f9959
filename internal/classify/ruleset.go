// Package classify holds the category ruleset, the rule-based line
// classifier, and the keyword learner that grows the ruleset from confirmed
// categorizations.
package classify

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/rumor-ml/commons.systems/fatura/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var embeddedRules []byte

// Ruleset maps category names to keyword sets. Classification is first-match
// over categories in insertion order, so the order must be stable and
// reproducible; a plain Go map would not give that.
type Ruleset struct {
	order    []string
	keywords map[string][]string
}

// categoryRules is the YAML shape: an ordered list, because order is part of
// the ruleset's meaning.
type categoryRules struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
}

type rulesFile struct {
	Categories []categoryRules `yaml:"categories"`
}

// NewRuleset creates an empty ruleset.
func NewRuleset() *Ruleset {
	return &Ruleset{keywords: make(map[string][]string)}
}

// NewRulesetFromYAML parses an ordered category list from YAML data.
func NewRulesetFromYAML(data []byte) (*Ruleset, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML rules (check syntax, indentation, and field names): %w", err)
	}

	rs := NewRuleset()
	for i, c := range f.Categories {
		name := strings.TrimSpace(c.Category)
		if name == "" {
			return nil, fmt.Errorf("category %d: name cannot be empty", i)
		}
		if err := rs.AddCategory(name); err != nil {
			return nil, fmt.Errorf("category %d: %w", i, err)
		}
		for _, kw := range c.Keywords {
			rs.AddKeyword(name, kw)
		}
	}
	return rs, nil
}

// DefaultRuleset loads the embedded default category rules.
func DefaultRuleset() (*Ruleset, error) {
	rs, err := NewRulesetFromYAML(embeddedRules)
	if err != nil {
		return nil, fmt.Errorf("failed to load embedded rules (possible binary corruption): %w", err)
	}
	return rs, nil
}

// LoadRulesFile loads category rules from a filesystem path.
func LoadRulesFile(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}
	rs, err := NewRulesetFromYAML(data)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules from %q: %w", path, err)
	}
	return rs, nil
}

// MarshalYAML encodes the ruleset back to the ordered file shape.
func (r *Ruleset) MarshalYAML() (interface{}, error) {
	f := rulesFile{}
	for _, cat := range r.order {
		f.Categories = append(f.Categories, categoryRules{
			Category: cat,
			Keywords: append([]string(nil), r.keywords[cat]...),
		})
	}
	return f, nil
}

// Categories returns the category names in insertion order (defensive copy).
func (r *Ruleset) Categories() []string {
	return append([]string(nil), r.order...)
}

// Keywords returns a defensive copy of a category's keyword set.
func (r *Ruleset) Keywords(category string) []string {
	return append([]string(nil), r.keywords[category]...)
}

// Has reports whether the category exists.
func (r *Ruleset) Has(category string) bool {
	_, ok := r.keywords[category]
	return ok
}

// Len returns the number of categories.
func (r *Ruleset) Len() int {
	return len(r.order)
}

// AddCategory registers a new empty category. A name colliding with an
// existing category is rejected and the ruleset is left unchanged.
func (r *Ruleset) AddCategory(name string) error {
	if name == "" {
		return fmt.Errorf("category name cannot be empty")
	}
	if r.Has(name) {
		return fmt.Errorf("category %q already exists", name)
	}
	r.order = append(r.order, name)
	r.keywords[name] = []string{}
	return nil
}

// DeleteCategory removes a category and its keywords. Unknown names are a
// no-op.
func (r *Ruleset) DeleteCategory(name string) {
	if !r.Has(name) {
		return
	}
	delete(r.keywords, name)
	for i, c := range r.order {
		if c == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// RenameCategory moves a category's keywords to a new name, keeping its
// position in the iteration order. A collision with an existing name is
// rejected and the ruleset is left unchanged.
func (r *Ruleset) RenameCategory(oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("category name cannot be empty")
	}
	if !r.Has(oldName) {
		return fmt.Errorf("category %q not found", oldName)
	}
	if r.Has(newName) {
		return fmt.Errorf("category %q already exists", newName)
	}
	for i, c := range r.order {
		if c == oldName {
			r.order[i] = newName
			break
		}
	}
	r.keywords[newName] = r.keywords[oldName]
	delete(r.keywords, oldName)
	return nil
}

// AddKeyword appends a folded, uppercased keyword to a category, creating
// the category if needed. Duplicates within the category are ignored.
func (r *Ruleset) AddKeyword(category, keyword string) {
	keyword = foldUpper(strings.TrimSpace(keyword))
	if keyword == "" {
		return
	}
	if !r.Has(category) {
		// Ignoring the error: Has just reported the name as free.
		_ = r.AddCategory(category)
	}
	for _, kw := range r.keywords[category] {
		if kw == keyword {
			return
		}
	}
	r.keywords[category] = append(r.keywords[category], keyword)
}

// RemoveKeyword drops a keyword from a category.
func (r *Ruleset) RemoveKeyword(category, keyword string) {
	kws := r.keywords[category]
	for i, kw := range kws {
		if kw == keyword {
			r.keywords[category] = append(kws[:i], kws[i+1:]...)
			return
		}
	}
}

// ContainsKeyword reports whether any category already holds the exact
// keyword. The learner uses this to avoid seeding the same keyword into two
// categories.
func (r *Ruleset) ContainsKeyword(keyword string) bool {
	for _, kws := range r.keywords {
		for _, kw := range kws {
			if kw == keyword {
				return true
			}
		}
	}
	return false
}

// Clone returns a deep copy. The import pipeline classifies against a
// working copy so a rejected batch leaves the persisted rules untouched.
func (r *Ruleset) Clone() *Ruleset {
	c := NewRuleset()
	c.order = append(c.order, r.order...)
	for cat, kws := range r.keywords {
		c.keywords[cat] = append([]string(nil), kws...)
	}
	return c
}

// Classify returns the first category (in ruleset order) with a keyword that
// is a substring of the folded, uppercased description, or the sentinel when
// none match. First-match, not best-match: reordering the ruleset changes
// results on purpose.
func (r *Ruleset) Classify(description string) string {
	upper := foldUpper(description)
	for _, cat := range r.order {
		for _, kw := range r.keywords[cat] {
			if strings.Contains(upper, kw) {
				return cat
			}
		}
	}
	return domain.CategoryOther
}
