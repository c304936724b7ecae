// Package normalize turns free-text product names into the keys used to
// recognize the same product across purchases.
//
// There are two normalizers and they are not interchangeable. ForGrouping
// feeds the price index behind cross-store comparison and product search;
// ForPinning keys pinned favorites, price alerts and the shopping list.
// Historical data was keyed by each caller's own function, so switching a
// caller from one to the other changes which products are "the same".
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reQuantityUnit = regexp.MustCompile(`\d+[.,]?\d*\s?(unidades|unidade|pacotes|pacote|unid|pcs|kg|ml|un|pc|g|l)\b`)
	reMultiplier   = regexp.MustCompile(`\b\d+x\b`)
	reStopWords    = regexp.MustCompile(`\b(` + strings.Join(stopWords, "|") + `)\b`)
	reNonAlnum     = regexp.MustCompile(`[^a-z0-9]+`)
)

var stopWords = []string{
	"pacote", "caixa", "garrafa", "lata", "fardo", "embalagem", "pack",
	"saco", "vidro", "plastico", "de", "da", "do", "com", "sem", "extra",
	"super", "kg", "g", "l", "ml", "litro", "litros", "grama", "gramas",
}

// ForGrouping canonicalizes a product name by dropping accents, quantities,
// units and packaging words, e.g. "Arroz Tio João 1kg" -> "arroz tio joao".
func ForGrouping(raw string) string {
	s := collapse(strings.ToLower(raw))
	s = StripDiacritics(s)

	// Removing a stop word can leave a number next to a unit; repeat until
	// nothing else is stripped.
	for {
		next := reQuantityUnit.ReplaceAllString(s, " ")
		next = reMultiplier.ReplaceAllString(next, " ")
		next = reStopWords.ReplaceAllString(next, " ")
		next = collapse(next)
		if next == s {
			return s
		}
		s = next
	}
}

// ForPinning is the strict key: lowercase, accents stripped and every other
// non-alphanumeric character removed, e.g. "Pão-de-Açúcar 1L" -> "paodeacucar1l".
// Symbols with no ASCII base letter (º, ½, ß) are dropped, not transliterated.
func ForPinning(raw string) string {
	return reNonAlnum.ReplaceAllString(StripDiacritics(strings.ToLower(raw)), "")
}

// StripDiacritics maps accented Latin letters to their base letter.
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
