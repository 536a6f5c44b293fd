package game

import (
	"math"
	"testing"

	"arenacore/geom"
)

func TestSplashDamageFalloff(t *testing.T) {
	const D, R = 100, 15.0

	cases := []struct {
		dist float64
		want int
	}{
		{0, 50},
		{3, 40},
		{7.5, 25},
		{12, 10},
		{14.9, 0}, // rounds to nothing
		{15, 0},
		{40, 0},
	}
	for _, c := range cases {
		got := SplashDamage(D, c.dist, R)
		if got != c.want {
			t.Errorf("SplashDamage(%d, %.1f, %.0f) = %d, want %d", D, c.dist, R, got, c.want)
		}
		if expected := int(math.Round(D * 0.5 * (1 - c.dist/R))); c.dist < R && got != expected {
			t.Errorf("dist %.1f: got %d, formula gives %d", c.dist, got, expected)
		}
	}
}

func TestSplashDamageMonotonic(t *testing.T) {
	const D, R = 100, 15.0
	prev := SplashDamage(D, 0, R)
	for d := 0.25; d < R; d += 0.25 {
		got := SplashDamage(D, d, R)
		if got > prev {
			t.Fatalf("damage increased from %d to %d at distance %.2f", prev, got, d)
		}
		prev = got
	}
	// sampled a full 3 units apart the rounded value strictly drops
	for d := 0.0; d+3 < R; d += 3 {
		if SplashDamage(D, d, R) <= SplashDamage(D, d+3, R) {
			t.Errorf("expected strict decrease between %.0f and %.0f", d, d+3)
		}
	}
	if SplashDamage(D, 5, 0) != 0 {
		t.Error("zero radius should never splash")
	}
}

func TestSplashHitsSkipsOwnerDeadAndDirect(t *testing.T) {
	w := BuiltinWeapons[KindSecondary]
	targets := []Target{
		{ID: 0, Position: geom.V(1, 0, 0), Alive: true},  // owner
		{ID: 1, Position: geom.V(0, 1, 0), Alive: true},  // direct target
		{ID: 2, Position: geom.V(0, 0, 2), Alive: false}, // dead
		{ID: 3, Position: geom.V(0, 0, 4), Alive: true},
		{ID: 4, Position: geom.V(0, 0, 14.9), Alive: true}, // rounds to zero
		{ID: 5, Position: geom.V(0, 0, 30), Alive: true},
	}
	got := SplashHits(geom.Vec3{}, &w, 0, 1, targets)
	if len(got) != 1 || got[0].ID != 3 {
		t.Errorf("expected only target 3, got %+v", got)
	}
}
