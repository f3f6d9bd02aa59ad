package enrich

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes to NFD, drops combining marks, and recomposes,
// so "Cobró" and "Cobro" compare equal.
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var titleCaser = cases.Title(language.Spanish)

// NormalizeStage canonicalizes a stage name: accents stripped, one
// title-cased word per token. "PROCESO DE COBRO", "proceso de cobro" and
// "Proceso De Cobro" all normalize to the same string, which is the form
// the collection-stage configuration must use.
func NormalizeStage(s string) string {
	lowered := strings.ToLower(s)
	stripped, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		stripped = lowered
	}
	return titleCaser.String(stripped)
}
