package usecase

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Scorer returns a similarity score between two strings on a 0-100 scale
type Scorer func(a, b string) float64

// TokenSortRatio scores two item names independently of word order.
// Both names are normalized (NFKC, case-folded, punctuation removed), their
// tokens sorted, and the results compared with the indel ratio.
func TokenSortRatio(a, b string) float64 {
	return indelRatio(sortedTokens(a), sortedTokens(b))
}

// CodeRatio scores a raw product code against its normalized form.
// Only case and surrounding whitespace are ignored so that separators that
// were stripped during normalization still cost a little.
func CodeRatio(raw, normalized string) float64 {
	return indelRatio(foldCode(raw), foldCode(normalized))
}

// sortedTokens normalizes a name and joins its tokens in sorted order
func sortedTokens(s string) string {
	tokens := tokenize(s)
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// tokenize splits a string into normalized lowercase tokens.
// Anything that is not a letter or a digit acts as a separator.
func tokenize(s string) []string {
	folded := cases.Fold().String(norm.NFKC.String(s))
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func foldCode(s string) string {
	return strings.TrimSpace(cases.Fold().String(norm.NFKC.String(s)))
}

// indelRatio returns 100 * (1 - indel distance / total length), rounded to two
// decimals. The indel distance only counts insertions and deletions, so the
// ratio reduces to 2*LCS / (len(a)+len(b)). Empty input scores 0.
func indelRatio(a, b string) float64 {
	r1 := []rune(a)
	r2 := []rune(b)
	if len(r1) == 0 || len(r2) == 0 {
		return 0
	}

	lcs := longestCommonSubsequence(r1, r2)
	score := 200 * float64(lcs) / float64(len(r1)+len(r2))
	return math.Round(score*100) / 100
}

// longestCommonSubsequence computes the LCS length with two rolling rows
func longestCommonSubsequence(r1, r2 []rune) int {
	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)

	for i := 1; i <= len(r1); i++ {
		for j := 1; j <= len(r2); j++ {
			if r1[i-1] == r2[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(r2)]
}
