package utils

import "calixoAPI/internal/types/challenge"

const (
	shortMaxMinutes    = 30
	mediumMaxMinutes   = 60
	defaultShortMins   = 30
	dailySelectionSize = 3
)

// SelectDailyChallenges deterministically picks up to 3 challenges for a
// (date, user) seed: one from each duration bucket when possible, topped
// up from the remaining pool, then shuffled with the same PRNG stream so
// the bucket order never shows through. Callers must handle a result
// shorter than 3 when the pool is small.
func SelectDailyChallenges(pool []*challenge.Challenge, seed string) []*challenge.Challenge {
	rand := SeededRandom(seed)

	var short, medium, long []*challenge.Challenge
	for _, c := range pool {
		switch {
		case EffectiveDuration(c) <= shortMaxMinutes:
			short = append(short, c)
		case EffectiveDuration(c) <= mediumMaxMinutes:
			medium = append(medium, c)
		default:
			long = append(long, c)
		}
	}

	selected := make([]*challenge.Challenge, 0, dailySelectionSize)
	picked := make(map[*challenge.Challenge]bool)
	for _, bucket := range [][]*challenge.Challenge{short, medium, long} {
		if len(bucket) == 0 {
			continue
		}
		c := bucket[pickIndex(rand, len(bucket))]
		selected = append(selected, c)
		picked[c] = true
	}

	// Top up from whatever is left, splice-and-remove style.
	if len(selected) < dailySelectionSize {
		var remainder []*challenge.Challenge
		for _, c := range pool {
			if !picked[c] {
				remainder = append(remainder, c)
			}
		}
		for len(selected) < dailySelectionSize && len(remainder) > 0 {
			i := pickIndex(rand, len(remainder))
			selected = append(selected, remainder[i])
			remainder = append(remainder[:i], remainder[i+1:]...)
		}
	}

	// Fisher-Yates with the continuing stream.
	for i := len(selected) - 1; i > 0; i-- {
		j := pickIndex(rand, i+1)
		selected[i], selected[j] = selected[j], selected[i]
	}

	return selected
}

// EffectiveDuration resolves a nil catalog duration to 30 minutes, so an
// unannotated challenge lands in the short bucket.
func EffectiveDuration(c *challenge.Challenge) int {
	if c.DurationMinutes == nil {
		return defaultShortMins
	}
	return *c.DurationMinutes
}

func pickIndex(rand func() float64, n int) int {
	i := int(rand() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}
