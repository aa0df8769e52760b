package quiz

import (
	"math/rand"

	"github.com/vocadrill/vocadrill/internal/vocab"
)

// Options is the choice list shown for one MCQ question.
type Options struct {
	Choices     []string `json:"choices"`
	AnswerIndex int      `json:"answer_index"`
}

// BuildOptions picks up to two plausible wrong meanings for current and
// shuffles them together with the correct one. Candidates accumulate in
// tiers, each skipping word IDs already collected:
//
//  1. bookPool, same part of speech (when current has one)
//  2. if still short of two: rangePool, same filter
//  3. if still short: bookPool with no POS filter
//
// Thin pools may yield fewer than three choices; the correct meaning always
// appears exactly once, at AnswerIndex.
func BuildOptions(rng *rand.Rand, current vocab.Word, bookPool, rangePool []vocab.Word) Options {
	seen := map[string]struct{}{current.ID: {}}
	var cands []vocab.Word
	add := func(pool []vocab.Word, matchPOS bool) {
		for _, w := range pool {
			if _, dup := seen[w.ID]; dup {
				continue
			}
			if matchPOS && current.POS != "" && w.POS != current.POS {
				continue
			}
			seen[w.ID] = struct{}{}
			cands = append(cands, w)
		}
	}
	add(bookPool, true)
	if len(cands) < 2 {
		add(rangePool, true)
	}
	if len(cands) < 2 {
		add(bookPool, false)
	}

	// distinct wrong meanings, never the current word's own
	meaningSeen := map[string]struct{}{current.MeaningKO: {}}
	var meanings []string
	for _, w := range cands {
		if _, dup := meaningSeen[w.MeaningKO]; dup {
			continue
		}
		meaningSeen[w.MeaningKO] = struct{}{}
		meanings = append(meanings, w.MeaningKO)
	}

	choices := append([]string{current.MeaningKO}, vocab.SampleN(rng, meanings, 2)...)
	vocab.Shuffle(rng, choices)

	idx := 0
	for i, c := range choices {
		if c == current.MeaningKO {
			idx = i
			break
		}
	}
	return Options{Choices: choices, AnswerIndex: idx}
}
