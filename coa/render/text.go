package render

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var glyphReplacer = strings.NewReplacer(
	"≤", "<=",
	"≥", ">=",
	"℃", "degC",
	"±", "+/-",
	"°", " deg",
)

// NormalizeGlyphs swaps symbols the core PDF fonts cannot draw for ASCII spellings.
func NormalizeGlyphs(s string) string {
	return glyphReplacer.Replace(s)
}

// Glyph replacement runs before NFKC, which would otherwise turn ℃ into °C.
var sanitizer = transform.Chain(
	norm.NFKC,
	runes.Remove(runes.Predicate(func(r rune) bool {
		return unicode.IsControl(r) && r != '\n' && r != '\t'
	})),
	runes.Map(toCodePage),
)

// SanitizeText prepares untrusted text for drawing: glyph replacement, NFKC
// normalization, control character removal and mapping to the cp1252 repertoire.
// Newlines survive so callers can wrap multi-line blocks.
func SanitizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = NormalizeGlyphs(s)
	out, _, err := transform.String(sanitizer, s)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

// SingleLine sanitizes s and folds all whitespace runs into single spaces.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(SanitizeText(s)), " ")
}

func toCodePage(r rune) rune {
	if r == '\t' {
		return ' '
	}
	if r < utf8.RuneSelf {
		return r
	}
	if _, ok := charmap.Windows1252.EncodeRune(r); ok {
		return r
	}
	return '?'
}

// Truncate cuts s to n characters and appends "..." when it was longer.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "..."
}

// Ellipsize shortens s until it measures at most w, ending it with "...".
func Ellipsize(s string, w float64, measure func(string) float64) string {
	if measure(s) <= w {
		return s
	}
	r := []rune(s)
	for n := len(r) - 1; n > 0; n-- {
		candidate := strings.TrimRight(string(r[:n]), " ") + "..."
		if measure(candidate) <= w {
			return candidate
		}
	}
	return "..."
}
