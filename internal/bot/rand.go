package bot

import "math/rand"

// botRng is the package-level random source used when a caller passes a nil
// rng to Decide. When it is also nil, a source is drawn from the global
// math/rand default. Use SeedBotRng to set a deterministic source for
// reproducible simulations.
var botRng *rand.Rand

// SeedBotRng sets a deterministic random source for reproducible bot behavior.
func SeedBotRng(seed int64) {
	botRng = rand.New(rand.NewSource(seed))
}

// ResetBotRng reverts to the default (non-deterministic) global random source.
func ResetBotRng() {
	botRng = nil
}

// source returns rng, or the package fallback when rng is nil.
func source(rng *rand.Rand) *rand.Rand {
	if rng != nil {
		return rng
	}
	if botRng != nil {
		return botRng
	}
	return rand.New(rand.NewSource(rand.Int63()))
}
