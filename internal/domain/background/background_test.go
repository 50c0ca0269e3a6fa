package background

import (
	"math/rand"
	"testing"
	"time"

	"reelforge/internal/types"
)

func sec(v float64) time.Duration { return time.Duration(v * float64(time.Second)) }

func testPool() []types.BackgroundClip {
	return []types.BackgroundClip{
		{Path: "a.mp4", Duration: sec(30)},
		{Path: "b.mp4", Duration: sec(45)},
		{Path: "c.mp4", Duration: sec(10)},
	}
}

func TestSelect_OffsetStaysInsideClip(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		sel, err := Select(testPool(), sec(18), PolicyRandom, "REEL", rng)
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		if sel.Clip.Duration < sec(18) {
			t.Fatalf("picked a clip shorter than required: %+v", sel.Clip)
		}
		if sel.Offset < 0 || sel.Offset+sel.Duration > sel.Clip.Duration {
			t.Fatalf("window [%v, %v] escapes clip of %v", sel.Offset, sel.Offset+sel.Duration, sel.Clip.Duration)
		}
	}
}

func TestSelect_NoQualifyingClip(t *testing.T) {
	t.Parallel()

	pool := []types.BackgroundClip{{Path: "short.mp4", Duration: sec(10)}}
	_, err := Select(pool, sec(18), PolicyRandom, "REEL", rand.New(rand.NewSource(1)))
	if err == nil {
		t.Fatal("expected error for a pool with no long-enough clip")
	}
	if !types.IsInput(err) {
		t.Fatalf("expected an input error, got %T: %v", err, err)
	}
}

func TestSelect_DeterministicPolicyIsStable(t *testing.T) {
	t.Parallel()

	var first string
	for i := 0; i < 10; i++ {
		sel, err := Select(testPool(), sec(18), PolicyDeterministic, "SAME-ID", rand.New(rand.NewSource(int64(i))))
		if err != nil {
			t.Fatalf("select: %v", err)
		}
		if i == 0 {
			first = sel.Clip.Path
			continue
		}
		if sel.Clip.Path != first {
			t.Fatalf("deterministic pick changed: %s then %s", first, sel.Clip.Path)
		}
	}
}

func TestSelect_ExactFitUsesZeroOffset(t *testing.T) {
	t.Parallel()

	pool := []types.BackgroundClip{{Path: "exact.mp4", Duration: sec(18)}}
	sel, err := Select(pool, sec(18), PolicyRandom, "REEL", rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if sel.Offset != 0 {
		t.Fatalf("expected zero offset for an exact fit, got %v", sel.Offset)
	}
}

func TestSelect_NonPositiveRequired(t *testing.T) {
	t.Parallel()

	_, err := Select(testPool(), 0, PolicyRandom, "REEL", rand.New(rand.NewSource(1)))
	if !types.IsInput(err) {
		t.Fatalf("expected input error, got %v", err)
	}
}

func TestSeed_Stable(t *testing.T) {
	t.Parallel()

	if Seed("ID") != Seed("ID") {
		t.Fatal("seed not stable")
	}
	if Seed("ID") == Seed("OTHER") {
		t.Fatal("different ids should not collide in a trivial test")
	}
}
