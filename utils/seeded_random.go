package utils

// SeededRandom returns a generator of floats in [0,1) derived entirely
// from the seed string. The same seed yields the same sequence on every
// server instance, so anything derived from a (date, user) seed stays
// stable across restarts without persisting state.
func SeededRandom(seed string) func() float64 {
	var hash uint32
	for i := 0; i < len(seed); i++ {
		hash = hash*31 + uint32(seed[i])
	}

	state := hash
	return func() float64 {
		state ^= state >> 16
		state *= 0x85ebca6b
		state ^= state >> 13
		state *= 0xc2b2ae35
		state ^= state >> 16
		return float64(state) / float64(0xffffffff)
	}
}
