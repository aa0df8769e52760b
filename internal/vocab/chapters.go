package vocab

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var rangeToken = regexp.MustCompile(`^(\d+)\s*-\s*(\d+)$`)

// NFKC takes care of full-width digits, commas and tildes; the replacer
// covers the separators NFKC leaves alone.
var chapterSeparators = strings.NewReplacer(
	"–", "-", // en dash
	"—", "-", // em dash
	"−", "-", // minus sign
	"~", "-",
	"〜", "-", // wave dash
	"ー", "-", // katakana prolonged sound mark, common IME slip
	"、", ",", // ideographic comma
	"・", ",", // middle dot
)

// ParseChapterRange parses free-form chapter text ("4-8, 10") into an
// ascending de-duplicated list of chapter numbers. Malformed or
// non-positive tokens are dropped silently: student input must never
// error out of the selection flow. Empty input yields an empty list.
func ParseChapterRange(input string) []int {
	s := chapterSeparators.Replace(norm.NFKC.String(input))

	set := map[int]struct{}{}
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		if m := rangeToken.FindStringSubmatch(tok); m != nil {
			lo, err1 := strconv.Atoi(m[1])
			hi, err2 := strconv.Atoi(m[2])
			if err1 != nil || err2 != nil || lo <= 0 || hi <= 0 {
				continue
			}
			if hi < lo {
				lo, hi = hi, lo
			}
			for c := lo; c <= hi; c++ {
				set[c] = struct{}{}
			}
			continue
		}
		n, err := strconv.Atoi(tok)
		if err != nil || n <= 0 {
			continue
		}
		set[n] = struct{}{}
	}

	out := make([]int, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Ints(out)
	return out
}
