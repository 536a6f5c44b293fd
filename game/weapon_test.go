package game

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"arenacore/geom"
)

func TestBuiltinWeaponsValid(t *testing.T) {
	for k, w := range BuiltinWeapons {
		if err := w.Validate(); err != nil {
			t.Errorf("builtin %d invalid: %v", k, err)
		}
	}
	if KindSecondary.String() != Secondary {
		t.Errorf("expected %s, got %s", Secondary, KindSecondary.String())
	}
	if !BuiltinWeapons[KindSecondary].Splash {
		t.Error("secondary should splash")
	}
	if BuiltinWeapons[KindPrimary].Splash || BuiltinWeapons[KindSpread].Splash {
		t.Error("only secondary splashes by default")
	}
	if BuiltinWeapons[KindSecondary].HitBonus <= BuiltinWeapons[KindPrimary].HitBonus {
		t.Error("splash weapons get the larger hit bonus")
	}
}

func TestWeaponValidate(t *testing.T) {
	bad := []Weapon{
		{},
		{Name: "x", Speed: 0, Lifetime: 1, Radius: 1, Pellets: 1},
		{Name: "x", Speed: 1, Lifetime: 0, Radius: 1, Pellets: 1},
		{Name: "x", Speed: 1, Lifetime: 1, Radius: 1, Pellets: 1, Damage: -1},
		{Name: "x", Speed: 1, Lifetime: 1, Radius: 0, Pellets: 1},
		{Name: "x", Speed: 1, Lifetime: 1, Radius: 1, Pellets: 1, Splash: true},
		{Name: "x", Speed: 1, Lifetime: 1, Radius: 1, Pellets: 0},
	}
	for i, w := range bad {
		if err := w.Validate(); err == nil {
			t.Errorf("case %d: expected validation error for %+v", i, w)
		}
	}
}

func TestArmoryLookup(t *testing.T) {
	a := DefaultArmory()
	w, err := a.Lookup(Secondary)
	if err != nil {
		t.Fatal(err)
	}
	if w.Damage != 100 || w.SplashRadius != 15 {
		t.Errorf("unexpected secondary %+v", w)
	}

	_, err = a.Lookup("railgun")
	if !errors.Is(err, ErrUnknownWeapon) {
		t.Errorf("expected ErrUnknownWeapon, got %v", err)
	}

	if got := a.Names(); len(got) != 3 || got[0] != Primary {
		t.Errorf("unexpected names %v", got)
	}
}

func TestNewArmoryOverridesAndRejects(t *testing.T) {
	a, err := NewArmory(Weapon{Name: Primary, Speed: 900, Damage: 15, Lifetime: 1, Radius: 1, Pellets: 1})
	if err != nil {
		t.Fatal(err)
	}
	w, _ := a.Lookup(Primary)
	if w.Speed != 900 {
		t.Errorf("expected override speed 900, got %f", w.Speed)
	}
	// the builtin table itself is untouched
	if BuiltinWeapons[KindPrimary].Speed != 700 {
		t.Error("builtin table was mutated")
	}

	if _, err := NewArmory(Weapon{Name: "broken"}); err == nil {
		t.Error("expected invalid record to fail the whole table")
	}
}

func TestLoadArmory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weapons.json")
	data := `[{"name":"railgun","speed":2000,"damage":80,"lifetime":0.5,"radius":0.3,"hit_bonus":0.5,"pellets":1,"cooldown":2}]`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := LoadArmory(path)
	if err != nil {
		t.Fatal(err)
	}
	w, err := a.Lookup("railgun")
	if err != nil {
		t.Fatal(err)
	}
	if w.Damage != 80 || w.Speed != 2000 {
		t.Errorf("unexpected railgun %+v", w)
	}
	if _, err := a.Lookup(Spread); err != nil {
		t.Error("builtins should survive loading a file")
	}

	if _, err := LoadArmory(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestVolley(t *testing.T) {
	dir := geom.V(0, 0, -1)

	single := Volley(&BuiltinWeapons[KindPrimary], dir)
	if len(single) != 1 || single[0] != dir {
		t.Errorf("primary volley should be the aim direction, got %v", single)
	}

	spread := Volley(&BuiltinWeapons[KindSpread], dir)
	if len(spread) != 3 {
		t.Fatalf("expected 3 pellets, got %d", len(spread))
	}
	for i, d := range spread {
		if math.Abs(d.Len()-1) > 1e-9 {
			t.Errorf("pellet %d not unit length: %v", i, d)
		}
	}
	if geom.Dist(spread[1], dir) > 1e-9 {
		t.Errorf("middle pellet should follow aim, got %v", spread[1])
	}
	if math.Abs(spread[0][0]+spread[2][0]) > 1e-9 {
		t.Errorf("outer pellets should be symmetric, got %v and %v", spread[0], spread[2])
	}
	angle := math.Acos(spread[0].Dot(dir)) * 180 / math.Pi
	if math.Abs(angle-BuiltinWeapons[KindSpread].SpreadDeg) > 1e-6 {
		t.Errorf("expected %f degree fan, got %f", BuiltinWeapons[KindSpread].SpreadDeg, angle)
	}
}
