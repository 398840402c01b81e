package matcher

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTable maps the domain abbreviations and unit spellings found on
// vignettes and in the chifa catalog to a single canonical token each.
// Entries are ordered longest-first and applied in order, so that
// "milligrammes" folds to "mg" before "grammes" can eat its tail.
var foldTable = []struct{ from, to string }{
	{"suppositoires", "sup"},
	{"suppositoire", "sup"},
	{"microgrammes", "mcg"},
	{"milligrammes", "mg"},
	{"microgramme", "mcg"},
	{"milligramme", "mg"},
	{"millilitres", "ml"},
	{"millilitre", "ml"},
	{"comprimes", "cp"},
	{"comprime", "cp"},
	{"ampoules", "amp"},
	{"ampoule", "amp"},
	{"gelules", "gel"},
	{"grammes", "g"},
	{"sachets", "sach"},
	{"flacons", "fl"},
	{"gelule", "gel"},
	{"gramme", "g"},
	{"sachet", "sach"},
	{"flacon", "fl"},
	{"boites", "b"},
	{"boite", "b"},
	{"bte", "b"},
	{"µg", "mcg"},
}

// stripDiacritics removes combining marks so that "boîte" and "boite" or a
// vignette's OCR-mangled accents produce the same signature.
var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var (
	numberPattern  = regexp.MustCompile(`[0-9]+(?:[.,][0-9]+)?`)
	integerPattern = regexp.MustCompile(`[0-9]+`)
)

// Normalize canonicalizes a free-form vignette or catalog string into a
// comparison signature: lowercase alphanumeric tokens separated by single
// spaces, with domain abbreviations folded. It is pure and idempotent and
// returns "" for empty input, never an error.
func Normalize(s string) string {
	if s == "" {
		return ""
	}

	s = strings.ToLower(s)

	if stripped, _, err := transform.String(stripDiacritics, s); err == nil {
		s = stripped
	}

	for _, fold := range foldTable {
		s = strings.ReplaceAll(s, fold.from, fold.to)
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// NumericDosage extracts the first decimal number from a dosage string, so
// "500 MG" yields 500. The second return is false when no number is present:
// an absent dosage is "no constraint", not zero, because zero would falsely
// disqualify candidates during exact-dosage filtering.
func NumericDosage(s string) (float64, bool) {
	match := numberPattern.FindString(s)
	if match == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
	if err != nil {
		return 0, false
	}

	return value, true
}

// PackagingCounts extracts every integer in a presentation string as an
// unordered multiset, so "B/3 x 10 CP" yields {3:1, 10:1}. Used to separate
// presentations that score identically on text but differ in unit counts.
func PackagingCounts(s string) map[int]int {
	counts := make(map[int]int)
	for _, match := range integerPattern.FindAllString(s, -1) {
		if n, err := strconv.Atoi(match); err == nil {
			counts[n]++
		}
	}
	return counts
}

// samePackagingCounts reports whether two unit-count multisets are equal.
func samePackagingCounts(a, b map[int]int) bool {
	if len(a) != len(b) {
		return false
	}
	for n, count := range a {
		if b[n] != count {
			return false
		}
	}
	return true
}
