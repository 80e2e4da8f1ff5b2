package service

import "math/rand/v2"

// Seed bounds, inclusive.
const (
	MinSeed = 1
	MaxSeed = 4294967295
)

// Seed returns a uniformly random generation seed in [MinSeed, MaxSeed].
func Seed() uint32 {
	return uint32(MinSeed + rand.Int64N(MaxSeed-MinSeed+1)) //nolint:gosec // G115: value is within uint32 range
}
