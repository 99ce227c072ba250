package effect

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/darklegend/server/internal/battleground"
)

var (
	ErrUnknownEffect = errors.New("effect: unknown effect")
	ErrInvalidEffect = errors.New("effect: invalid definition")
)

// Kind 技能效果種類。
type Kind int

const (
	KindBuff Kind = iota + 1
	KindDebuff
	KindPoison
	KindBurn
	KindSlow
	KindStun
	KindKnockback
	KindDamage
	KindHeal
)

var kindNames = map[Kind]string{
	KindBuff:      "buff",
	KindDebuff:    "debuff",
	KindPoison:    "poison",
	KindBurn:      "burn",
	KindSlow:      "slow",
	KindStun:      "stun",
	KindKnockback: "knockback",
	KindDamage:    "damage",
	KindHeal:      "heal",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown effect kind %q", b)
}

// Instant effects act once on application and are never tracked.
func (k Kind) Instant() bool {
	return k == KindDamage || k == KindHeal || k == KindKnockback
}

// OverTime effects hurt on every interval while active.
func (k Kind) OverTime() bool { return k == KindPoison || k == KindBurn }

// Stat is the stat a buff or debuff modifies.
type Stat int

const (
	StatAttack Stat = iota + 1
	StatDefense
	StatMaxHP
	StatMoveSpeed
)

var statNames = map[Stat]string{
	StatAttack:    "attack",
	StatDefense:   "defense",
	StatMaxHP:     "max_hp",
	StatMoveSpeed: "move_speed",
}

func (s Stat) String() string {
	if n, ok := statNames[s]; ok {
		return n
	}
	return fmt.Sprintf("stat(%d)", int(s))
}

func (s *Stat) UnmarshalText(b []byte) error {
	for stat, name := range statNames {
		if name == string(b) {
			*s = stat
			return nil
		}
	}
	return fmt.Errorf("unknown stat %q", b)
}

// Def is an effect template.
type Def struct {
	ID        int           `yaml:"id"`
	Name      string        `yaml:"name"`
	Kind      Kind          `yaml:"kind"`
	Stat      Stat          `yaml:"stat"`     // buff / debuff only
	Flat      int           `yaml:"flat"`     // flat stat change
	Percent   float64       `yaml:"percent"`  // % of the stat at application time
	Power     int           `yaml:"power"`    // damage, heal or per-interval DoT amount
	Interval  time.Duration `yaml:"interval"` // DoT period
	Distance  float64       `yaml:"distance"` // knockback distance
	Duration  time.Duration `yaml:"duration"` // 0 = until removed
	MaxStacks int           `yaml:"max_stacks"`
}

func (d *Def) Validate() error {
	if _, ok := kindNames[d.Kind]; !ok {
		return fmt.Errorf("%w: effect %d has no kind", ErrInvalidEffect, d.ID)
	}
	switch {
	case d.Duration < 0:
		return fmt.Errorf("%w: effect %d negative duration", ErrInvalidEffect, d.ID)
	case (d.Kind == KindBuff || d.Kind == KindDebuff) && d.Stat == 0:
		return fmt.Errorf("%w: effect %d needs a stat", ErrInvalidEffect, d.ID)
	case d.Kind.OverTime() && (d.Interval <= 0 || d.Power <= 0):
		return fmt.Errorf("%w: effect %d needs interval and power", ErrInvalidEffect, d.ID)
	case (d.Kind == KindDamage || d.Kind == KindHeal) && d.Power <= 0:
		return fmt.Errorf("%w: effect %d needs power", ErrInvalidEffect, d.ID)
	}
	return nil
}

func (d *Def) stackLimit() int {
	if d.MaxStacks < 1 {
		return 1
	}
	return d.MaxStacks
}

// Target is the stat block effects act on.
type Target struct {
	Attack    int
	Defense   int
	MaxHP     int
	HP        int
	MP        int
	MoveSpeed float64
	StunCount int
	Position  battleground.Vec2
}

func (t *Target) Stunned() bool { return t.StunCount > 0 }
func (t *Target) Dead() bool    { return t.HP <= 0 }

func (t *Target) hurt(n int) int {
	if n > t.HP {
		n = t.HP
	}
	t.HP -= n
	return n
}

func (t *Target) heal(n int) int {
	if t.HP+n > t.MaxHP {
		n = t.MaxHP - t.HP
	}
	if n < 0 {
		n = 0
	}
	t.HP += n
	return n
}

func (t *Target) clampHP() {
	if t.HP > t.MaxHP {
		t.HP = t.MaxHP
	}
}

// Registry holds effect templates by id.
type Registry struct {
	defs map[int]*Def
}

func NewRegistry(defs []Def) (*Registry, error) {
	r := &Registry{defs: make(map[int]*Def, len(defs))}
	for i := range defs {
		d := defs[i]
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.defs[d.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate effect id %d", ErrInvalidEffect, d.ID)
		}
		r.defs[d.ID] = &d
	}
	return r, nil
}

func (r *Registry) Get(id int) (*Def, error) {
	d, ok := r.defs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownEffect, id)
	}
	return d, nil
}

func (r *Registry) Count() int { return len(r.defs) }

func (r *Registry) IDs() []int {
	out := make([]int, 0, len(r.defs))
	for id := range r.defs {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

func pct(v int, p float64) int { return int(math.Round(float64(v) * p / 100)) }
