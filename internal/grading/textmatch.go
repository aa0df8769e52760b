package grading

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Answer is the minimal view of a word needed for scoring, so this package
// stays decoupled from the vocab store types.
type Answer struct {
	MeaningKO  string // primary accepted answer
	AcceptedKO string // delimited alternatives, may be empty
	POS        string // "v", "adj", "n", ... or empty
}

// Sentence-final politeness endings stripped during normalization. Longer
// endings start earlier in the string, so leftmost matching picks them
// before the bare 요.
var politeEnding = regexp.MustCompile(`(입니다|합니다|했습니다|했어요|해요|요)$`)

// Modifier-form endings of a conjugated verb/adjective (달리는, 매운, ...).
var modifierEnding = regexp.MustCompile(`(는|은|ㄴ|운)$`)

const strippedPunct = ".,!?~'\"`()[]{}:;/-"

// Normalize canonicalizes an answer string for comparison: NFKC fold, trim,
// lowercase, strip one trailing politeness ending, then drop whitespace and
// punctuation everywhere.
func Normalize(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ToLower(strings.TrimSpace(s))
	s = politeEnding.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || strings.ContainsRune(strippedPunct, r) {
			return -1
		}
		return r
	}, s)
}

// levenshtein computes edit distance (insertion, deletion, substitution cost 1).
func levenshtein(a, b string) int {
	ar := []rune(a)
	br := []rune(b)
	n, m := len(ar), len(br)
	if n == 0 {
		return m
	}
	if m == 0 {
		return n
	}
	dp := make([]int, m+1)
	for j := 0; j <= m; j++ {
		dp[j] = j
	}
	for i := 1; i <= n; i++ {
		prev := dp[0]
		dp[0] = i
		for j := 1; j <= m; j++ {
			tmp := dp[j]
			cost := 0
			if ar[i-1] != br[j-1] {
				cost = 1
			}
			ins := dp[j] + 1
			del := dp[j-1] + 1
			sub := prev + cost
			dp[j] = min3(ins, del, sub)
			prev = tmp
		}
	}
	return dp[m]
}

func min3(a, b, c int) int {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}

// withinTolerance accepts up to 12% of the candidate's length in edits,
// but always at least one.
func withinTolerance(normInput, normCandidate string) bool {
	limit := int(math.Ceil(float64(len([]rune(normCandidate))) * 0.12))
	if limit < 1 {
		limit = 1
	}
	return levenshtein(normInput, normCandidate) <= limit
}

// posAllowedForPair rejects a modifier-form student answer against a
// base-form (…다) candidate when the word is a verb or adjective. The check
// runs on the raw input: normalization would eat the ending. Note this is
// per candidate: an accepted_ko alternative that is itself modifier-form is
// still checked on its own.
func posAllowedForPair(pos, candidate, rawInput string) bool {
	if pos != "v" && pos != "adj" {
		return true
	}
	if !strings.HasSuffix(candidate, "다") {
		return true
	}
	return !modifierEnding.MatchString(strings.TrimSpace(rawInput))
}

// Candidates returns the ordered accepted-answer list for a word:
// the primary meaning followed by the accepted_ko alternatives.
func Candidates(a Answer) []string {
	out := make([]string, 0, 4)
	if a.MeaningKO != "" {
		out = append(out, a.MeaningKO)
	}
	out = append(out, SplitAccepted(a.AcceptedKO)...)
	return out
}

// SplitAccepted splits a delimited alternative-answer field on "," ";" or
// "|", trimming entries and dropping empties.
func SplitAccepted(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// IsAnswerCorrect scores a free-response answer against a word. Candidates
// are tried in order; each is independently POS-gated, then accepted on
// normalized exact match or within typo tolerance. Malformed input never
// errors, it just fails to match.
func IsAnswerCorrect(input string, a Answer) bool {
	normInput := Normalize(input)
	if normInput == "" {
		// a blank (or timed-out) answer never scores, even against short
		// candidates that would fall inside the edit tolerance
		return false
	}
	for _, cand := range Candidates(a) {
		if !posAllowedForPair(a.POS, cand, input) {
			continue
		}
		nc := Normalize(cand)
		if nc == normInput || withinTolerance(normInput, nc) {
			return true
		}
	}
	return false
}
