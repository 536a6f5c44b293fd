package game

import (
	"math"
	"math/rand"
	"time"

	"github.com/pkg/errors"

	"arenacore/geom"
)

const (
	spawnMargin    = 10.0
	spawnClearance = 5.0 // added to the largest edge of each obstacle
	spawnAttempts  = 30
)

var spawnCorners = [4]geom.Vec3{
	{30, 0, 30}, {-30, 0, 30}, {30, 0, -30}, {-30, 0, -30},
}

// Arena is the level: outer bounds plus static obstacles
type Arena struct {
	Size      geom.Vec3
	Obstacles *ObstacleIndex
	rng       *rand.Rand
}

// NewArena builds an arena centred on the origin. A nil rng is seeded from
// the clock.
func NewArena(size geom.Vec3, boxes []geom.Box, rng *rand.Rand) (*Arena, error) {
	if size[0] <= 0 || size[1] <= 0 || size[2] <= 0 {
		return nil, errors.Errorf("arena size %v must be positive", size)
	}
	idx, err := NewObstacleIndex(boxes)
	if err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Arena{Size: size, Obstacles: idx, rng: rng}, nil
}

// DefaultArena returns the stock 120x60x120 level
func DefaultArena() *Arena {
	a, err := NewArena(geom.V(120, 60, 120), DefaultObstacles(), nil)
	if err != nil {
		panic(err)
	}
	return a
}

// EmptyArena has the stock bounds and no obstacles
func EmptyArena(rng *rand.Rand) *Arena {
	a, err := NewArena(geom.V(120, 60, 120), nil, rng)
	if err != nil {
		panic(err)
	}
	return a
}

// Bounds is the playable volume
func (a *Arena) Bounds() geom.Box {
	return geom.Box{Half: a.Size.Scale(0.5)}
}

// Contains reports whether p is strictly inside the arena walls
func (a *Arena) Contains(p geom.Vec3) bool {
	h := a.Size.Scale(0.5)
	return math.Abs(p[0]) < h[0] && math.Abs(p[1]) < h[1] && math.Abs(p[2]) < h[2]
}

// SpawnPoint picks a random point inside the margin that keeps clear of
// every obstacle, or a corner after too many attempts.
func (a *Arena) SpawnPoint() geom.Vec3 {
	h := a.Size.Scale(0.5)
	for i := 0; i < spawnAttempts; i++ {
		p := geom.V(
			a.uniform(-h[0]+spawnMargin, h[0]-spawnMargin),
			a.uniform(-h[1]+spawnMargin, h[1]-spawnMargin),
			a.uniform(-h[2]+spawnMargin, h[2]-spawnMargin),
		)
		if a.clearOfObstacles(p) {
			return p
		}
	}
	return spawnCorners[a.rng.Intn(len(spawnCorners))]
}

func (a *Arena) clearOfObstacles(p geom.Vec3) bool {
	for _, o := range a.Obstacles.All() {
		edge := 2 * math.Max(o.Box.Half[0], math.Max(o.Box.Half[1], o.Box.Half[2]))
		if geom.Dist(p, o.Box.Center) < edge+spawnClearance {
			return false
		}
	}
	return true
}

func (a *Arena) uniform(lo, hi float64) float64 {
	if hi <= lo {
		return (lo + hi) / 2
	}
	return lo + a.rng.Float64()*(hi-lo)
}

// DefaultObstacles is the stock level layout: central tower, corner
// pillars, floating platforms, side walls, cubes, pipes and low cover.
func DefaultObstacles() []geom.Box {
	type block struct{ pos, scale geom.Vec3 }
	blocks := []block{
		{geom.V(0, 0, 0), geom.V(8, 40, 8)},
		{geom.V(0, 22, 0), geom.V(12, 2, 12)},
		{geom.V(0, -22, 0), geom.V(12, 2, 12)},

		{geom.V(40, 0, 40), geom.V(6, 30, 6)},
		{geom.V(-40, 0, 40), geom.V(6, 30, 6)},
		{geom.V(40, 0, -40), geom.V(6, 30, 6)},
		{geom.V(-40, 0, -40), geom.V(6, 30, 6)},

		{geom.V(25, 10, 0), geom.V(15, 2, 15)},
		{geom.V(-25, -10, 0), geom.V(15, 2, 15)},
		{geom.V(0, 15, 30), geom.V(20, 2, 10)},
		{geom.V(0, -15, -30), geom.V(20, 2, 10)},

		{geom.V(50, 0, 20), geom.V(4, 20, 25)},
		{geom.V(-50, 0, -20), geom.V(4, 20, 25)},
		{geom.V(20, 0, 50), geom.V(25, 20, 4)},
		{geom.V(-20, 0, -50), geom.V(25, 20, 4)},

		{geom.V(30, 5, 30), geom.V(5, 5, 5)},
		{geom.V(-30, -5, -30), geom.V(5, 5, 5)},
		{geom.V(35, -8, -25), geom.V(4, 4, 4)},
		{geom.V(-35, 8, 25), geom.V(4, 4, 4)},

		{geom.V(15, 0, 25), geom.V(2, 50, 2)},
		{geom.V(-15, 0, -25), geom.V(2, 50, 2)},
		{geom.V(25, 0, -15), geom.V(2, 50, 2)},
		{geom.V(-25, 0, 15), geom.V(2, 50, 2)},

		{geom.V(10, -25, 10), geom.V(8, 6, 8)},
		{geom.V(-10, -25, -10), geom.V(8, 6, 8)},
		{geom.V(10, 25, -10), geom.V(8, 6, 8)},
		{geom.V(-10, 25, 10), geom.V(8, 6, 8)},
	}
	out := make([]geom.Box, len(blocks))
	for i, b := range blocks {
		out[i] = geom.BoxFromScale(b.pos, b.scale)
	}
	return out
}
