package geom

// Box is an axis-aligned bounding box
type Box struct {
	Center Vec3
	Half   Vec3 // half extents, all positive
}

// BoxFromScale builds a box from a center and full edge lengths
func BoxFromScale(center, scale Vec3) Box {
	return Box{Center: center, Half: scale.Scale(0.5)}
}

func (b Box) Min() Vec3 { return b.Center.Sub(b.Half) }
func (b Box) Max() Vec3 { return b.Center.Add(b.Half) }

// Contains reports whether p lies inside or on the box
func (b Box) Contains(p Vec3) bool {
	lo, hi := b.Min(), b.Max()
	for i := 0; i < 3; i++ {
		if p[i] < lo[i] || p[i] > hi[i] {
			return false
		}
	}
	return true
}

// ClosestPoint returns the point of the box nearest to p
func (b Box) ClosestPoint(p Vec3) Vec3 {
	lo, hi := b.Min(), b.Max()
	return Vec3{
		Clamp(p[0], lo[0], hi[0]),
		Clamp(p[1], lo[1], hi[1]),
		Clamp(p[2], lo[2], hi[2]),
	}
}

// SphereHitsBox is true when the squared distance from the sphere center
// to the closest point of the box is below r*r.
func SphereHitsBox(center Vec3, r float64, b Box) bool {
	return DistSq(center, b.ClosestPoint(center)) < r*r
}

// SpheresTouch reports whether two centers are closer than r
func SpheresTouch(a, b Vec3, r float64) bool {
	return DistSq(a, b) < r*r
}

// SegmentHitsSphere checks if the segment a-b passes within r of c.
func SegmentHitsSphere(a, b, c Vec3, r float64) bool {
	ab := b.Sub(a)
	l2 := ab.LenSq()
	if l2 == 0 {
		return SpheresTouch(a, c, r)
	}
	t := Clamp(c.Sub(a).Dot(ab)/l2, 0, 1)
	return SpheresTouch(a.Add(ab.Scale(t)), c, r)
}

// SegmentEntry returns the fraction along a-c at which the segment first
// touches the box, using the slab method. A segment starting inside the box
// enters at 0.
func (b Box) SegmentEntry(a, c Vec3) (float64, bool) {
	lo, hi := b.Min(), b.Max()
	d := c.Sub(a)
	tmin, tmax := 0.0, 1.0
	for i := 0; i < 3; i++ {
		if d[i] == 0 {
			if a[i] < lo[i] || a[i] > hi[i] {
				return 0, false
			}
			continue
		}
		t1 := (lo[i] - a[i]) / d[i]
		t2 := (hi[i] - a[i]) / d[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}
