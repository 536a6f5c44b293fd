package game

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"github.com/pkg/errors"

	"arenacore/geom"
)

// Obstacle is a static box loaded once with the level
type Obstacle struct {
	Box  geom.Box
	rect rtreego.Rect
}

// Bounds implements rtreego.Spatial
func (o *Obstacle) Bounds() rtreego.Rect {
	return o.rect
}

// ObstacleIndex is an R-tree over the level's boxes, used as a broadphase
// before the exact closest-point test.
type ObstacleIndex struct {
	tree *rtreego.Rtree
	all  []*Obstacle
}

// NewObstacleIndex builds the tree. Boxes must have positive extents.
func NewObstacleIndex(boxes []geom.Box) (*ObstacleIndex, error) {
	idx := &ObstacleIndex{tree: rtreego.NewTree(3, 4, 16)}
	for i, b := range boxes {
		rect, err := boxRect(b.Min(), b.Max())
		if err != nil {
			return nil, errors.Wrapf(err, "obstacle %d", i)
		}
		o := &Obstacle{Box: b, rect: rect}
		idx.tree.Insert(o)
		idx.all = append(idx.all, o)
	}
	return idx, nil
}

func boxRect(lo, hi geom.Vec3) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{lo[0], lo[1], lo[2]},
		[]float64{hi[0] - lo[0], hi[1] - lo[1], hi[2] - lo[2]},
	)
}

// Len returns the number of obstacles
func (x *ObstacleIndex) Len() int {
	return len(x.all)
}

// All returns every obstacle in load order
func (x *ObstacleIndex) All() []*Obstacle {
	return x.all
}

// Near returns the obstacles whose bounds overlap the cube around center
func (x *ObstacleIndex) Near(center geom.Vec3, r float64) []*Obstacle {
	if len(x.all) == 0 || r <= 0 {
		return nil
	}
	ext := geom.V(r, r, r)
	q, err := boxRect(center.Sub(ext), center.Add(ext))
	if err != nil {
		return nil
	}
	found := x.tree.SearchIntersect(q)
	out := make([]*Obstacle, 0, len(found))
	for _, s := range found {
		out = append(out, s.(*Obstacle))
	}
	return out
}

// SphereHit returns the first obstacle the sphere overlaps
func (x *ObstacleIndex) SphereHit(center geom.Vec3, r float64) (*Obstacle, bool) {
	for _, o := range x.Near(center, r) {
		if geom.SphereHitsBox(center, r, o.Box) {
			return o, true
		}
	}
	return nil, false
}

// SegmentHit returns the obstacle the segment a-b reaches first and the
// fraction along the segment where it enters. pad widens the broadphase
// query and must be positive.
func (x *ObstacleIndex) SegmentHit(a, b geom.Vec3, pad float64) (*Obstacle, float64, bool) {
	if len(x.all) == 0 || pad <= 0 {
		return nil, 0, false
	}
	var lo, hi geom.Vec3
	for i := 0; i < 3; i++ {
		lo[i] = math.Min(a[i], b[i]) - pad
		hi[i] = math.Max(a[i], b[i]) + pad
	}
	q, err := boxRect(lo, hi)
	if err != nil {
		return nil, 0, false
	}
	var (
		first *Obstacle
		best  float64
	)
	for _, s := range x.tree.SearchIntersect(q) {
		o := s.(*Obstacle)
		if t, ok := o.Box.SegmentEntry(a, b); ok && (first == nil || t < best) {
			first, best = o, t
		}
	}
	return first, best, first != nil
}
