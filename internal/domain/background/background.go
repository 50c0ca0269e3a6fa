package background

import (
	"hash/fnv"
	"math/rand"
	"time"

	"reelforge/internal/types"
)

// Policy controls how a clip is picked from the qualifying pool.
type Policy int

const (
	// PolicyRandom varies aesthetics across a batch.
	PolicyRandom Policy = iota
	// PolicyDeterministic picks by a stable hash of the reel id, so fixtures
	// reproduce.
	PolicyDeterministic
)

// Select picks a clip long enough to cover required and a start offset whose
// window stays inside the clip. Looping short clips is deliberately not
// supported: a pool with no qualifying clip is an input error, not something
// to paper over with cuts.
func Select(pool []types.BackgroundClip, required time.Duration, policy Policy, reelID string, rng *rand.Rand) (types.BackgroundSelection, error) {
	if required <= 0 {
		return types.BackgroundSelection{}, types.Inputf("required background duration must be positive")
	}
	var qualifying []types.BackgroundClip
	for _, c := range pool {
		if c.Duration >= required {
			qualifying = append(qualifying, c)
		}
	}
	if len(qualifying) == 0 {
		return types.BackgroundSelection{}, types.Inputf(
			"no background clip of at least %s among %d candidates", required, len(pool))
	}

	var clip types.BackgroundClip
	switch policy {
	case PolicyDeterministic:
		clip = qualifying[int(Seed(reelID)%uint64(len(qualifying)))]
	default:
		clip = qualifying[rng.Intn(len(qualifying))]
	}

	maxStart := clip.Duration - required
	var offset time.Duration
	if maxStart > 0 {
		offset = time.Duration(rng.Int63n(int64(maxStart) + 1))
	}
	return types.BackgroundSelection{Clip: clip, Offset: offset, Duration: required}, nil
}

// Seed maps a reel id to a stable number usable for deterministic picks and
// for seeding the per-reel RNG.
func Seed(reelID string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(reelID))
	return h.Sum64()
}
