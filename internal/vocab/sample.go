package vocab

import "math/rand"

// Shuffle permutes xs in place (Fisher-Yates).
func Shuffle[T any](rng *rand.Rand, xs []T) {
	for i := len(xs) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		xs[i], xs[j] = xs[j], xs[i]
	}
}

// SampleN returns up to n elements of pool drawn without replacement:
// shuffle a copy, take the prefix. The same primitive backs both
// question-sequence sampling and distractor picking.
func SampleN[T any](rng *rand.Rand, pool []T, n int) []T {
	out := make([]T, len(pool))
	copy(out, pool)
	Shuffle(rng, out)
	if n > len(out) {
		n = len(out)
	}
	return out[:n]
}
