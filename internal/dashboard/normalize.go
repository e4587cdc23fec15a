package dashboard

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// combining diacritical marks block, U+0300..U+036F
var stripMarks = runes.Remove(runes.Predicate(func(r rune) bool {
	return r >= 0x0300 && r <= 0x036f
}))

var (
	lower      = cases.Lower(language.Und)
	whitespace = regexp.MustCompile(`\s+`)
)

// NormalizeName produces the comparison form the backend stores in
// "nombre": accents stripped, lowercased, each symbol surrounded by single
// spaces and runs of whitespace collapsed. The default symbol set is "-".
func NormalizeName(text string, symbols ...string) string {
	if text == "" {
		return text
	}
	if len(symbols) == 0 {
		symbols = []string{"-"}
	}

	decomposed, _, err := transform.String(transform.Chain(norm.NFD, stripMarks), text)
	if err == nil {
		text = decomposed
	}
	text = lower.String(text)

	for _, set := range symbols {
		for _, sym := range set {
			re := regexp.MustCompile(`\s*` + regexp.QuoteMeta(string(sym)) + `\s*`)
			text = re.ReplaceAllLiteralString(text, " "+string(sym)+" ")
		}
	}

	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}
