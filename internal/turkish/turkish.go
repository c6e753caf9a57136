// Package turkish implements Turkish-aware text casing, normalization and
// weighted edit distance shared by every other component. Turkish casing is
// non-Unicode-default: İ/i and I/ı are the only correct pairs, so every
// component that lower- or title-cases administrative text must go through
// here first.
package turkish

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	unidecode "github.com/mozillazg/go-unidecode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// lowerPairs and upperPairs hold the Turkish-specific casing exceptions that
// must be applied before the generic Unicode casing rules.
var lowerPairs = map[rune]rune{
	'İ': 'i', 'I': 'ı', 'Ç': 'ç', 'Ğ': 'ğ', 'Ö': 'ö', 'Ş': 'ş', 'Ü': 'ü',
}

var upperFirstPairs = map[rune]rune{
	'i': 'İ', 'ı': 'I', 'ç': 'Ç', 'ğ': 'Ğ', 'ö': 'Ö', 'ş': 'Ş', 'ü': 'Ü',
}

var foldPairs = map[rune]rune{
	'ç': 'c', 'ğ': 'g', 'ı': 'i', 'ö': 'o', 'ş': 's', 'ü': 'u',
}

// confusableGroups lists Turkish letters that are commonly confused in noisy
// input; substituting within a group costs 0.1 instead of 1.0 in
// WeightedLevenshtein.
var confusableGroups = [][]rune{
	{'c', 'ç'},
	{'s', 'ş'},
	{'i', 'ı', 'İ', 'I'},
	{'o', 'ö'},
	{'u', 'ü'},
	{'g', 'ğ'},
}

var confusableOf = buildConfusableIndex()

func buildConfusableIndex() map[rune]int {
	idx := map[rune]int{}
	for gi, group := range confusableGroups {
		for _, r := range group {
			idx[r] = gi
		}
	}
	return idx
}

// protectedLiterals must never be re-cased by TitleWord; they round-trip
// unchanged. Keyed by NormalizeForCompare form; populated with the fixed set
// from spec plus anything the caller registers via RegisterProtectedLiteral.
var protectedLiterals = map[string]string{
	"istanbul": "İstanbul",
	"izmir":     "İzmir",
	"izmit":     "İzmit",
	"içel":      "İçel",
	"inönü":     "İnönü",
}

// RegisterProtectedLiteral adds an entry to the protected-literal list keyed
// by its NormalizeForCompare form.
func RegisterProtectedLiteral(literal string) {
	protectedLiterals[NormalizeForCompare(literal)] = literal
}

// Lower applies the Turkish casing table, then falls back to Unicode
// lowercasing for every other rune.
func Lower(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if mapped, ok := lowerPairs[r]; ok {
			b.WriteRune(mapped)
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// TitleWord upper-cases the first rune of s using the Turkish table (plus
// Unicode rules for anything outside it) and lower-cases the remainder via
// Lower. Protected literals (İstanbul, İzmir, ...) round-trip unchanged.
func TitleWord(s string) string {
	if s == "" {
		return s
	}
	if canon, ok := protectedLiterals[NormalizeForCompare(s)]; ok {
		return canon
	}
	runes := []rune(s)
	first := runes[0]
	if mapped, ok := upperFirstPairs[first]; ok {
		runes[0] = mapped
	} else {
		runes[0] = unicode.ToUpper(first)
	}
	return string(runes[:1]) + Lower(string(runes[1:]))
}

// isMn reports whether r is a combining mark, used to strip accidental
// combining-diacritic artifacts (stray U+0307 above i, circumflex forms).
func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// PreserveTurkish keeps the original Turkish letters but strips control
// codepoints and combining-mark artifacts. This is the pre-step applied
// before the corrector touches the string. Unlike a generic diacritic
// stripper, it composes first (NFC) so precomposed Turkish letters (ç, ğ,
// ö, ş, ü, ı, İ) are never decomposed and lost; only combining marks that
// survive composition — stray encoding artifacts such as a standalone
// U+0307 typed after "i", or leftover circumflex marks — are removed.
func PreserveTurkish(s string) string {
	t := transform.Chain(norm.NFC, transform.RemoveFunc(isMn))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	var b strings.Builder
	b.Grow(len(out))
	for _, r := range out {
		if unicode.IsControl(r) {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeForCompare produces the canonical comparison form used as a map
// key everywhere in ReferenceIndex: NFC, Turkish-lowered, whitespace
// collapsed, trimmed, punctuation stripped except '/', '-' and digits.
func NormalizeForCompare(s string) string {
	nfc := norm.NFC.String(s)
	lowered := Lower(nfc)

	var b strings.Builder
	b.Grow(len(lowered))
	lastWasSpace := false
	for _, r := range lowered {
		switch {
		case unicode.IsSpace(r):
			if !lastWasSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			lastWasSpace = true
			continue
		case r == '/' || r == '-' || unicode.IsDigit(r) || unicode.IsLetter(r):
			b.WriteRune(r)
			lastWasSpace = false
		default:
			// strip other punctuation
		}
	}
	return strings.TrimSpace(b.String())
}

// ASCIIFold lowercases via Lower then folds Turkish letters to their ASCII
// equivalent. Used only for fuzzy indexes, never for user-visible output.
// Characters outside the explicit Turkish fold table fall back to
// go-unidecode's generic transliteration, so stray non-Turkish diacritics in
// noisy input still fold to something comparable instead of surviving
// untouched.
func ASCIIFold(s string) string {
	lowered := Lower(s)
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if mapped, ok := foldPairs[r]; ok {
			b.WriteRune(mapped)
			continue
		}
		if r <= unicode.MaxASCII {
			b.WriteRune(r)
			continue
		}
		b.WriteString(unidecode.Unidecode(string(r)))
	}
	return b.String()
}

// WeightedLevenshtein computes an edit distance where substitutions between
// Turkish-confusable pairs cost 0.1 instead of 1.0. Insertions and deletions
// always cost 1.0. Falls back to the plain Levenshtein distance (via
// github.com/agnivade/levenshtein) when a and b share no confusable runes,
// since the weighted and unweighted distances coincide in that case and the
// library implementation is better tested for the common path.
func WeightedLevenshtein(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if !hasConfusable(ra) && !hasConfusable(rb) {
		return float64(levenshtein.ComputeDistance(a, b))
	}

	n, m := len(ra), len(rb)
	prev := make([]float64, m+1)
	curr := make([]float64, m+1)
	for j := 0; j <= m; j++ {
		prev[j] = float64(j)
	}
	for i := 1; i <= n; i++ {
		curr[0] = float64(i)
		for j := 1; j <= m; j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1]
				continue
			}
			subCost := substitutionCost(ra[i-1], rb[j-1])
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + subCost
			curr[j] = minOf3(del, ins, sub)
		}
		prev, curr = curr, prev
	}
	return prev[m]
}

func substitutionCost(a, b rune) float64 {
	if ga, ok := confusableOf[a]; ok {
		if gb, ok2 := confusableOf[b]; ok2 && ga == gb {
			return 0.1
		}
	}
	return 1.0
}

func hasConfusable(rs []rune) bool {
	for _, r := range rs {
		if _, ok := confusableOf[r]; ok {
			return true
		}
	}
	return false
}

func minOf3(a, b, c float64) float64 {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

// LevenshteinSimilarity converts WeightedLevenshtein's distance into a
// similarity in [0,1]: 1 - dist/max(len(a), len(b)).
func LevenshteinSimilarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := WeightedLevenshtein(a, b)
	sim := 1.0 - dist/float64(maxLen)
	if sim < 0 {
		sim = 0
	}
	return sim
}
