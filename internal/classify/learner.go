package classify

import (
	"strings"
	"unicode"

	"github.com/rumor-ml/commons.systems/fatura/internal/domain"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	// keywordMaxLen caps learned keywords so a long merchant string does not
	// become an over-specific rule.
	keywordMaxLen = 20
	// keywordMinLen rejects fragments too short to identify a merchant.
	keywordMinLen = 3
)

var keywordFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldUpper uppercases the string with accents stripped. Keywords and the
// descriptions matched against them both go through it, so "AÇAI" and
// "ACAI" meet on the same form.
func foldUpper(s string) string {
	folded, _, err := transform.String(keywordFolder, s)
	if err != nil {
		folded = s
	}
	return strings.ToUpper(folded)
}

// ExtractKeyword reduces a transaction description to a keyword candidate:
// uppercase, accents folded, digits and punctuation stripped, whitespace
// collapsed, then truncated to keywordMaxLen runes. The empty string means
// the description yields nothing learnable.
func ExtractKeyword(description string) string {
	upper := foldUpper(description)

	var b strings.Builder
	for _, r := range upper {
		switch {
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune(' ')
		}
	}
	kw := strings.Join(strings.Fields(b.String()), " ")

	chars := []rune(kw)
	if len(chars) > keywordMaxLen {
		kw = strings.TrimSpace(string(chars[:keywordMaxLen]))
	}
	if len([]rune(kw)) < keywordMinLen {
		return ""
	}
	return kw
}

// Learn extracts a keyword from the description and adds it to the category,
// creating the category at the end of the order when it is new. It returns
// the keyword and true when the ruleset grew; false when the description
// yields no keyword, the keyword is already known anywhere in the ruleset,
// or the category is the sentinel.
func (r *Ruleset) Learn(description, category string) (string, bool) {
	if category == "" || category == domain.CategoryOther {
		return "", false
	}
	kw := ExtractKeyword(description)
	if kw == "" {
		return "", false
	}
	if r.ContainsKeyword(kw) {
		return kw, false
	}
	r.AddKeyword(category, kw)
	return kw, true
}

// ApplyLearned merges a batch of learned keywords back into the ruleset,
// keyed by category. Unknown categories are created at the end of the order.
func (r *Ruleset) ApplyLearned(learned map[string][]string) {
	for cat, kws := range learned {
		for _, kw := range kws {
			r.AddKeyword(cat, kw)
		}
	}
}
