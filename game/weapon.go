package game

import (
	"encoding/json"
	"math"
	"os"
	"sort"

	"github.com/pkg/errors"

	"arenacore/geom"
)

// WeaponKind identifies one of the built-in weapons
type WeaponKind int

const (
	KindPrimary   WeaponKind = 0 // fast, low damage
	KindSecondary WeaponKind = 1 // slow rocket with splash
	KindSpread    WeaponKind = 2 // several weak pellets
)

// Built-in weapon names as they appear on the wire
const (
	Primary   = "primary"
	Secondary = "secondary"
	Spread    = "spread"
)

func (k WeaponKind) String() string {
	if k < 0 || int(k) >= len(BuiltinWeapons) {
		return "unknown"
	}
	return BuiltinWeapons[k].Name
}

// ErrUnknownWeapon is returned by Armory.Lookup
var ErrUnknownWeapon = errors.New("unknown weapon")

// ErrNoDirection rejects firing along a zero vector
var ErrNoDirection = errors.New("fire direction is zero")

// Weapon holds the attributes of one weapon
type Weapon struct {
	Name         string  `json:"name"`
	Speed        float64 `json:"speed"`         // units/s
	Damage       int     `json:"damage"`        // direct hit
	Lifetime     float64 `json:"lifetime"`      // seconds
	Radius       float64 `json:"radius"`        // projectile radius for obstacle tests
	HitBonus     float64 `json:"hit_bonus"`     // added to the target radius for entity tests
	Splash       bool    `json:"splash"`
	SplashRadius float64 `json:"splash_radius"`
	Pellets      int     `json:"pellets"`
	SpreadDeg    float64 `json:"spread_deg"` // fan half-angle for multi-pellet volleys
	Cooldown     float64 `json:"cooldown"`   // seconds between shots
}

var BuiltinWeapons = [3]Weapon{
	KindPrimary: {
		Name: Primary, Speed: 700, Damage: 12, Lifetime: 1.5,
		Radius: 1.05, HitBonus: 1.0, Pellets: 1, Cooldown: 0.12,
	},
	KindSecondary: {
		Name: Secondary, Speed: 120, Damage: 100, Lifetime: 4.0,
		Radius: 0.5, HitBonus: 2.5, Splash: true, SplashRadius: 15,
		Pellets: 1, Cooldown: 1.5,
	},
	KindSpread: {
		Name: Spread, Speed: 195, Damage: 8, Lifetime: 2.0,
		Radius: 0.12, HitBonus: 0, Pellets: 3, SpreadDeg: 8, Cooldown: 0.6,
	},
}

// Validate checks a weapon record before it enters an Armory
func (w Weapon) Validate() error {
	switch {
	case w.Name == "":
		return errors.New("weapon: empty name")
	case w.Speed <= 0:
		return errors.Errorf("weapon %s: speed must be positive", w.Name)
	case w.Lifetime <= 0:
		return errors.Errorf("weapon %s: lifetime must be positive", w.Name)
	case w.Damage < 0:
		return errors.Errorf("weapon %s: negative damage", w.Name)
	case w.Radius <= 0:
		return errors.Errorf("weapon %s: radius must be positive", w.Name)
	case w.HitBonus < 0:
		return errors.Errorf("weapon %s: negative hit bonus", w.Name)
	case w.Splash && w.SplashRadius <= 0:
		return errors.Errorf("weapon %s: splash without a radius", w.Name)
	case w.Pellets < 1:
		return errors.Errorf("weapon %s: needs at least one pellet", w.Name)
	case w.Cooldown < 0:
		return errors.Errorf("weapon %s: negative cooldown", w.Name)
	}
	return nil
}

// Armory is the validated weapon table keyed by name
type Armory struct {
	weapons map[string]*Weapon
}

// NewArmory validates ws on top of the built-in weapons. A record with a
// built-in name replaces it.
func NewArmory(ws ...Weapon) (*Armory, error) {
	a := &Armory{weapons: make(map[string]*Weapon)}
	all := append(BuiltinWeapons[:len(BuiltinWeapons):len(BuiltinWeapons)], ws...)
	for _, w := range all {
		if err := w.Validate(); err != nil {
			return nil, err
		}
		w := w
		a.weapons[w.Name] = &w
	}
	return a, nil
}

// DefaultArmory holds only the built-in weapons
func DefaultArmory() *Armory {
	a, err := NewArmory()
	if err != nil {
		panic(err)
	}
	return a
}

// LoadArmory reads a JSON array of weapons from path
func LoadArmory(path string) (*Armory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read weapon table")
	}
	var ws []Weapon
	if err := json.Unmarshal(data, &ws); err != nil {
		return nil, errors.Wrapf(err, "parse weapon table %s", path)
	}
	return NewArmory(ws...)
}

// Lookup returns the named weapon
func (a *Armory) Lookup(name string) (*Weapon, error) {
	w, ok := a.weapons[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownWeapon, "%q", name)
	}
	return w, nil
}

// Names lists every weapon, sorted
func (a *Armory) Names() []string {
	out := make([]string, 0, len(a.weapons))
	for n := range a.weapons {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Volley returns one unit direction per pellet. Multi-pellet weapons fan
// out evenly around the vertical axis.
func Volley(w *Weapon, dir geom.Vec3) []geom.Vec3 {
	dir = dir.Normalize()
	if w.Pellets <= 1 {
		return []geom.Vec3{dir}
	}
	out := make([]geom.Vec3, w.Pellets)
	step := 2 * w.SpreadDeg / float64(w.Pellets-1)
	for i := range out {
		a := (-w.SpreadDeg + step*float64(i)) * math.Pi / 180
		sin, cos := math.Sincos(a)
		out[i] = geom.V(
			dir[0]*cos+dir[2]*sin,
			dir[1],
			-dir[0]*sin+dir[2]*cos,
		).Normalize()
	}
	return out
}
