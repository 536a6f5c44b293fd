package geom

import "math"

// Vec3 is a point or direction in arena space. It encodes as a plain
// three element array on every wire codec.
type Vec3 [3]float64

// V builds a Vec3
func V(x, y, z float64) Vec3 {
	return Vec3{x, y, z}
}

func (v Vec3) X() float64 { return v[0] }
func (v Vec3) Y() float64 { return v[1] }
func (v Vec3) Z() float64 { return v[2] }

// Add returns v + o
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

// Sub returns v - o
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

// Scale returns v * s
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

func (v Vec3) Dot(o Vec3) float64 {
	return v[0]*o[0] + v[1]*o[1] + v[2]*o[2]
}

func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v[1]*o[2] - v[2]*o[1],
		v[2]*o[0] - v[0]*o[2],
		v[0]*o[1] - v[1]*o[0],
	}
}

// LenSq returns the squared length
func (v Vec3) LenSq() float64 {
	return v.Dot(v)
}

// Len returns the length
func (v Vec3) Len() float64 {
	return math.Sqrt(v.LenSq())
}

// Normalize returns a unit vector, or the zero vector when v has no length
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return Vec3{}
	}
	return v.Scale(1 / l)
}

// Lerp moves v toward o by fraction t
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return v.Add(o.Sub(v).Scale(t))
}

// Dist returns the distance between two points
func Dist(a, b Vec3) float64 {
	return a.Sub(b).Len()
}

// DistSq returns the squared distance between two points
func DistSq(a, b Vec3) float64 {
	return a.Sub(b).LenSq()
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// NormalizeDegrees wraps angle to [-180, 180]
func NormalizeDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a > 180 {
		a -= 360
	} else if a < -180 {
		a += 360
	}
	return a
}

// LerpAngle interpolates between two angles in degrees taking the short path
func LerpAngle(from, to, t float64) float64 {
	diff := NormalizeDegrees(to - from)
	return from + diff*t
}
