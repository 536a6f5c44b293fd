package game

import (
	"math"
	"testing"

	"arenacore/geom"
)

func TestInterpolatorFirstTargetSnaps(t *testing.T) {
	in := NewInterpolator(0, DefaultInterpLead)
	in.SetTarget(geom.V(4, 5, 6), geom.V(0, 90, 0), geom.Vec3{})
	if in.Position() != geom.V(4, 5, 6) {
		t.Errorf("expected snap to first target, got %v", in.Position())
	}
	if in.Rate != DefaultInterpRate {
		t.Errorf("expected default rate, got %f", in.Rate)
	}
}

func TestInterpolatorConverges(t *testing.T) {
	in := NewInterpolator(15, 2)
	in.SetTarget(geom.Vec3{}, geom.Vec3{}, geom.Vec3{})
	target := geom.V(2, 0, -1)
	in.SetTarget(target, geom.Vec3{}, geom.Vec3{})

	dt := 1.0 / 60.0
	prev := geom.Dist(in.Position(), target)
	ticks := int(math.Ceil(5 / (in.Rate * dt)))
	for i := 0; i < ticks; i++ {
		in.Step(dt)
		d := geom.Dist(in.Position(), target)
		if d > prev {
			t.Fatalf("tick %d: moved away from target (%f > %f)", i, d, prev)
		}
		if in.Position()[0] > target[0] || in.Position()[2] < target[2] {
			t.Fatalf("tick %d: overshot target, at %v", i, in.Position())
		}
		prev = d
	}
	if prev >= 0.01 {
		t.Errorf("expected within 0.01 after %d ticks, still %f away", ticks, prev)
	}
}

func TestInterpolatorLeadsMovingTarget(t *testing.T) {
	in := NewInterpolator(15, 2)
	vel := geom.V(10, 0, 0)
	in.SetTarget(geom.Vec3{}, geom.Vec3{}, vel)

	dt := 1.0 / 60.0
	for i := 0; i < 120; i++ {
		in.Step(dt)
	}
	// With no new snapshot the rendered position settles on the lead point
	want := vel.Scale(dt * 2)
	if geom.Dist(in.Position(), want) > 1e-6 {
		t.Errorf("expected to settle at %v, got %v", want, in.Position())
	}
	if geom.Dist(in.Velocity(), vel) > 1e-6 {
		t.Errorf("expected velocity %v, got %v", vel, in.Velocity())
	}
}

func TestInterpolatorRotationShortArc(t *testing.T) {
	in := NewInterpolator(15, 2)
	in.SetTarget(geom.Vec3{}, geom.V(0, 170, 0), geom.Vec3{})
	in.SetTarget(geom.Vec3{}, geom.V(0, -170, 0), geom.Vec3{})
	in.Step(1.0 / 60.0)

	yaw := in.Rotation()[1]
	if yaw < 170 {
		t.Errorf("rotation should cross 180 rather than sweep back through 0, got %f", yaw)
	}
}

func TestInterpolatorSnap(t *testing.T) {
	in := NewInterpolator(15, 2)
	in.SetTarget(geom.Vec3{}, geom.Vec3{}, geom.V(5, 0, 0))
	in.Snap(geom.V(30, 0, 30))
	in.Step(1.0 / 60.0)
	if in.Position() != geom.V(30, 0, 30) {
		t.Errorf("expected to stay at snap point, got %v", in.Position())
	}
}
