// Package statement extracts transaction records from the plain-text export
// of a monthly credit-card bill. The input format is genuinely irregular
// across bank statement variants, so recognition runs an explicit ordered
// list of pattern attempts rather than a single grammar.
package statement

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rumor-ml/commons.systems/fatura/internal/domain"
)

// Pseudo-sections produced by the header recognizer. They mark lines that
// still need classification or that belong to the payments/credits block;
// neither is a real spending category.
const (
	SectionDetect   = "Detectar"
	SectionPayments = "Pagamentos"
	SectionOther    = "Outros lançamentos"
)

// knownHeaders are the section labels the card issuer prints between
// transaction blocks. Order is irrelevant here; matching is containment.
var knownHeaders = []string{
	"Educação", "Lazer", "Restaurantes", "Saúde", "Serviços",
	"Supermercados", "Transporte", "Vestuário", "Viagens",
	"Outros lançamentos", "Compras parceladas", "Pagamentos/Créditos",
}

// stopMarkers end line processing entirely: everything after the summary and
// limits blocks is boilerplate, not transactions.
var stopMarkers = []string{"RESUMO EM REAL", "LIMITES - R$", "ENCARGOS FINANCEIROS"}

// totalMarker introduces the bank-declared invoice total, followed by a colon
// and a monetary value.
const totalMarker = "Total da fatura"

// headerMaxLen bounds how long a line can be and still count as a section
// header. Transaction lines are longer and carry digits.
const headerMaxLen = 40

// Record is one raw extracted transaction tuple, before classification and
// installment expansion.
type Record struct {
	RawDate     string
	Date        time.Time
	Description string
	Amount      float64
	Section     string
}

// Extraction is the output of the extract phase: the ordered records plus the
// declared total when the text contained one. A nil DeclaredTotal must be
// surfaced distinctly by reconciliation, never treated as zero.
type Extraction struct {
	Records       []Record
	DeclaredTotal *float64
	LinesRead     int
	LinesSkipped  int
}

// Transaction-line pattern attempts, tried in order. Precedence:
//  1. date + description + country code (BR or US) + two monetary tokens
//     (foreign-currency statements list the foreign value before the local
//     one; the trailing local value wins)
//  2. date + description + two monetary tokens
//  3. date + description + one monetary token
//
// All amounts use the Brazilian convention: thousands dot, decimal comma.
const (
	rxDate  = `(\d{2}[\./]\d{2}[\./]\d{4})`
	rxMoney = `(-?\d{1,3}(?:\.\d{3})*,\d{2})`
)

var linePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^` + rxDate + `\s*(.*?)\s+(BR|US)\s+` + rxMoney + `\s+` + rxMoney + `$`),
	regexp.MustCompile(`^` + rxDate + `\s*(.*?)\s+` + rxMoney + `\s+` + rxMoney + `$`),
	regexp.MustCompile(`^` + rxDate + `\s*(.*?)\s+` + rxMoney + `$`),
}

// NeedsClassification reports whether a section gives no usable category
// signal, so the line must go through the classifier.
func NeedsClassification(section string) bool {
	switch section {
	case SectionDetect, SectionPayments, SectionOther, domain.CategoryOther:
		return true
	}
	return false
}

// Extract splits the statement text into lines and walks them once,
// tracking the current section and capturing the declared total. Lines that
// match no pattern are noise and skipped silently; a malformed line never
// aborts extraction of the rest.
func Extract(text string) *Extraction {
	ext := &Extraction{}
	currentSection := domain.CategoryOther

	for _, rawLine := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.TrimSuffix(rawLine, "\r"))
		if line == "" {
			continue
		}
		ext.LinesRead++

		if strings.Contains(line, totalMarker) && strings.Contains(line, ":") {
			if v, err := parseDeclaredTotal(line); err == nil {
				ext.DeclaredTotal = &v
			}
			continue
		}

		if isStopMarker(line) {
			break
		}

		if header, ok := matchHeader(line); ok {
			currentSection = header
			continue
		}

		rec, ok := matchTransaction(line)
		if !ok {
			ext.LinesSkipped++
			continue
		}
		rec.Section = currentSection
		ext.Records = append(ext.Records, rec)
	}

	return ext
}

// parseDeclaredTotal pulls the monetary value after the colon of a total
// line, e.g. "Total da fatura : R$ 1.234,56".
func parseDeclaredTotal(line string) (float64, error) {
	_, after, _ := strings.Cut(line, ":")
	val := strings.TrimSpace(strings.ReplaceAll(after, "R$", ""))
	return ParseAmount(val)
}

func isStopMarker(line string) bool {
	upper := strings.ToUpper(line)
	for _, m := range stopMarkers {
		if strings.Contains(upper, m) {
			return true
		}
	}
	return false
}

// matchHeader recognizes a section-header line: it must contain a known
// label, be short, and carry no digits. Two labels map to pseudo-sections:
// "Compras parceladas" means the category must be detected per line, and
// "Pagamentos/Créditos" opens the payments block.
func matchHeader(line string) (string, bool) {
	if utf8.RuneCountInString(line) >= headerMaxLen || strings.ContainsAny(line, "0123456789") {
		return "", false
	}
	for _, h := range knownHeaders {
		if !strings.Contains(line, h) {
			continue
		}
		switch h {
		case "Compras parceladas":
			return SectionDetect, true
		case "Pagamentos/Créditos":
			return SectionPayments, true
		default:
			return h, true
		}
	}
	return "", false
}

// matchTransaction runs the ordered pattern attempts against one line. When
// a pattern yields two monetary tokens, the second (local currency) wins.
// If no captured token converts to a number, the second-to-last
// whitespace-delimited field is tried as a last resort.
func matchTransaction(line string) (Record, bool) {
	for _, rx := range linePatterns {
		m := rx.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		date, err := ParseDate(m[1])
		if err != nil {
			continue
		}

		// Last capture group is the trailing monetary token.
		amountStr := m[len(m)-1]
		amount, err := ParseAmount(amountStr)
		if err != nil {
			fields := strings.Fields(line)
			if len(fields) < 2 {
				return Record{}, false
			}
			amount, err = ParseAmount(fields[len(fields)-2])
			if err != nil {
				return Record{}, false
			}
		}

		return Record{
			RawDate:     m[1],
			Date:        date,
			Description: NormalizeDescription(m[2]),
			Amount:      amount,
		}, true
	}
	return Record{}, false
}

// NormalizeDescription strips card-mask asterisks and collapses repeated
// whitespace.
func NormalizeDescription(desc string) string {
	desc = strings.ReplaceAll(desc, "*", " ")
	return strings.Join(strings.Fields(desc), " ")
}

// ParseAmount converts a Brazilian-format monetary string ("1.234,56",
// optionally signed) to a float.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(s, 64)
}

// ParseDate accepts the two date layouts seen on statements, DD.MM.YYYY and
// DD/MM/YYYY.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse("02.01.2006", s)
	if err == nil {
		return t, nil
	}
	return time.Parse("02/01/2006", s)
}
