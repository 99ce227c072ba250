package effect

import (
	"fmt"
	"time"

	"github.com/darklegend/server/internal/battleground"
)

// Delta is exactly what one application changed on the target. Removal
// subtracts it back, whatever happened to the stat in between.
type Delta struct {
	Attack    int
	Defense   int
	MaxHP     int
	MoveSpeed float64
	Stun      int
}

// Application is one ledger entry.
type Application struct {
	ID        uint64
	Def       *Def
	Delta     Delta
	AppliedAt time.Time
	ExpiresAt time.Time // zero = until removed
	NextTick  time.Time
}

func (a *Application) expired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt)
}

// TickResult reports what a tick did to the target.
type TickResult struct {
	App      uint64
	EffectID int
	Kind     Kind
	Damage   int
	Expired  bool
}

// Set 單一目標身上的效果帳本。Single-goroutine access only (game loop).
type Set struct {
	target *Target
	apps   []*Application
	nextID uint64
}

func NewSet(target *Target) *Set {
	return &Set{target: target}
}

func (s *Set) Target() *Target { return s.target }

// Apply applies def at now. Knockback pushes away from the target's own
// position along +X; use ApplyFrom to give a source.
func (s *Set) Apply(def *Def, now time.Time) (uint64, error) {
	return s.ApplyFrom(def, s.target.Position, now)
}

// ApplyFrom applies def with origin as the source position. Instant
// effects return id 0. When the stack limit for def is reached the oldest
// application of def is removed first.
func (s *Set) ApplyFrom(def *Def, origin battleground.Vec2, now time.Time) (uint64, error) {
	if def == nil {
		return 0, ErrUnknownEffect
	}
	if err := def.Validate(); err != nil {
		return 0, err
	}
	t := s.target

	switch def.Kind {
	case KindDamage:
		t.hurt(def.Power)
		return 0, nil
	case KindHeal:
		t.heal(def.Power)
		return 0, nil
	case KindKnockback:
		t.Position = knockback(t.Position, origin, def.Distance)
		return 0, nil
	}

	if s.Stacks(def.ID) >= def.stackLimit() {
		s.removeOldest(def.ID)
	}

	s.nextID++
	app := &Application{ID: s.nextID, Def: def, AppliedAt: now}
	if def.Duration > 0 {
		app.ExpiresAt = now.Add(def.Duration)
	}
	if def.Kind.OverTime() {
		app.NextTick = now.Add(def.Interval)
	}
	app.Delta = s.deltaFor(def)
	s.add(app.Delta)
	s.apps = append(s.apps, app)
	return app.ID, nil
}

func (s *Set) deltaFor(def *Def) Delta {
	t := s.target
	var d Delta
	switch def.Kind {
	case KindBuff, KindDebuff:
		sign := 1
		if def.Kind == KindDebuff {
			sign = -1
		}
		switch def.Stat {
		case StatAttack:
			d.Attack = sign * (def.Flat + pct(t.Attack, def.Percent))
		case StatDefense:
			d.Defense = sign * (def.Flat + pct(t.Defense, def.Percent))
		case StatMaxHP:
			d.MaxHP = sign * (def.Flat + pct(t.MaxHP, def.Percent))
		case StatMoveSpeed:
			d.MoveSpeed = float64(sign) * (float64(def.Flat) + t.MoveSpeed*def.Percent/100)
		}
	case KindSlow:
		d.MoveSpeed = -t.MoveSpeed * def.Percent / 100
	case KindStun:
		d.Stun = 1
	}
	return d
}

func (s *Set) add(d Delta) {
	t := s.target
	t.Attack += d.Attack
	t.Defense += d.Defense
	t.MaxHP += d.MaxHP
	t.MoveSpeed += d.MoveSpeed
	t.StunCount += d.Stun
	t.clampHP()
}

func (s *Set) revert(d Delta) {
	s.add(Delta{
		Attack:    -d.Attack,
		Defense:   -d.Defense,
		MaxHP:     -d.MaxHP,
		MoveSpeed: -d.MoveSpeed,
		Stun:      -d.Stun,
	})
}

func knockback(pos, origin battleground.Vec2, dist float64) battleground.Vec2 {
	l := pos.Dist(origin)
	if l == 0 {
		return battleground.Vec2{X: pos.X + dist, Y: pos.Y}
	}
	dx, dy := (pos.X-origin.X)/l, (pos.Y-origin.Y)/l
	return battleground.Vec2{X: pos.X + dx*dist, Y: pos.Y + dy*dist}
}

// Tick runs due DoT intervals and expires finished applications. DoT never
// hurts past the expiry instant.
func (s *Set) Tick(now time.Time) []TickResult {
	var out []TickResult
	kept := s.apps[:0]
	for _, a := range s.apps {
		if a.Def.Kind.OverTime() {
			dmg := 0
			for !a.NextTick.After(now) && (a.ExpiresAt.IsZero() || !a.NextTick.After(a.ExpiresAt)) {
				dmg += s.target.hurt(a.Def.Power)
				a.NextTick = a.NextTick.Add(a.Def.Interval)
			}
			if dmg > 0 {
				out = append(out, TickResult{App: a.ID, EffectID: a.Def.ID, Kind: a.Def.Kind, Damage: dmg})
			}
		}
		if a.expired(now) {
			s.revert(a.Delta)
			out = append(out, TickResult{App: a.ID, EffectID: a.Def.ID, Kind: a.Def.Kind, Expired: true})
			continue
		}
		kept = append(kept, a)
	}
	for i := len(kept); i < len(s.apps); i++ {
		s.apps[i] = nil
	}
	s.apps = kept
	return out
}

// Remove ends one application early.
func (s *Set) Remove(id uint64) bool {
	for i, a := range s.apps {
		if a.ID == id {
			s.revert(a.Delta)
			s.apps = append(s.apps[:i], s.apps[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveKind ends every application of a kind (cure poison, cleanse stun).
func (s *Set) RemoveKind(kind Kind) int {
	return s.removeWhere(func(a *Application) bool { return a.Def.Kind == kind })
}

// Clear ends everything, e.g. on death.
func (s *Set) Clear() int {
	return s.removeWhere(func(*Application) bool { return true })
}

func (s *Set) removeWhere(match func(*Application) bool) int {
	n := 0
	kept := s.apps[:0]
	for _, a := range s.apps {
		if match(a) {
			s.revert(a.Delta)
			n++
			continue
		}
		kept = append(kept, a)
	}
	for i := len(kept); i < len(s.apps); i++ {
		s.apps[i] = nil
	}
	s.apps = kept
	return n
}

func (s *Set) removeOldest(defID int) {
	for _, a := range s.apps {
		if a.Def.ID == defID {
			s.Remove(a.ID)
			return
		}
	}
}

// Stacks counts live applications of a template.
func (s *Set) Stacks(defID int) int {
	n := 0
	for _, a := range s.apps {
		if a.Def.ID == defID {
			n++
		}
	}
	return n
}

func (s *Set) Has(kind Kind) bool {
	for _, a := range s.apps {
		if a.Def.Kind == kind {
			return true
		}
	}
	return false
}

// Ledger returns copies of the live applications, oldest first.
func (s *Set) Ledger() []Application {
	out := make([]Application, len(s.apps))
	for i, a := range s.apps {
		out[i] = *a
	}
	return out
}

func (s *Set) Len() int { return len(s.apps) }

func (a Application) String() string {
	return fmt.Sprintf("%s#%d(%d)", a.Def.Kind, a.Def.ID, a.ID)
}
