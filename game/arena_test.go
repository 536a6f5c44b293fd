package game

import (
	"math"
	"math/rand"
	"testing"

	"arenacore/geom"
)

func TestDefaultArena(t *testing.T) {
	a := DefaultArena()
	if a.Obstacles.Len() != 27 {
		t.Errorf("expected 27 obstacles, got %d", a.Obstacles.Len())
	}
	if !a.Contains(geom.V(59, 29, -59)) {
		t.Error("point just inside the walls should be contained")
	}
	if a.Contains(geom.V(0, 31, 0)) {
		t.Error("point above the ceiling should not be contained")
	}
	// the central tower is indexed
	if _, hit := a.Obstacles.SphereHit(geom.V(0, 0, 4.2), 0.5); !hit {
		t.Error("expected to hit the central tower")
	}
	if _, hit := a.Obstacles.SphereHit(geom.V(0, 0, 5), 0.5); hit {
		t.Error("point clear of the tower should not hit")
	}
}

func TestSpawnPointRules(t *testing.T) {
	a, err := NewArena(geom.V(120, 60, 120), DefaultObstacles(), rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 200; i++ {
		p := a.SpawnPoint()
		if isCorner(p) {
			continue
		}
		if math.Abs(p[0]) > 50 || math.Abs(p[1]) > 20 || math.Abs(p[2]) > 50 {
			t.Fatalf("spawn %v outside the margin", p)
		}
		if !a.clearOfObstacles(p) {
			t.Fatalf("spawn %v too close to an obstacle", p)
		}
	}
}

func TestSpawnPointFallsBackToCorner(t *testing.T) {
	huge := geom.BoxFromScale(geom.Vec3{}, geom.V(120, 60, 120))
	a, err := NewArena(geom.V(120, 60, 120), []geom.Box{huge}, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 10; i++ {
		if p := a.SpawnPoint(); !isCorner(p) {
			t.Fatalf("expected corner fallback, got %v", p)
		}
	}
}

func TestNewArenaRejectsBadInput(t *testing.T) {
	if _, err := NewArena(geom.V(0, 10, 10), nil, nil); err == nil {
		t.Error("expected error for zero size")
	}
	flat := geom.Box{Center: geom.Vec3{}, Half: geom.V(1, 0, 1)}
	if _, err := NewArena(geom.V(10, 10, 10), []geom.Box{flat}, nil); err == nil {
		t.Error("expected error for a flat obstacle")
	}
}

func isCorner(p geom.Vec3) bool {
	for _, c := range spawnCorners {
		if p == c {
			return true
		}
	}
	return false
}
