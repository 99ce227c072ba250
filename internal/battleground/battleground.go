package battleground

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/darklegend/server/internal/core/ecs"
	"github.com/darklegend/server/internal/core/event"
	"go.uber.org/zap"
)

var (
	ErrInvalidTransition = errors.New("battleground: invalid state transition")
	ErrNotInProgress     = errors.New("battleground: match not in progress")
	ErrMatchEnded        = errors.New("battleground: match already ended")
	ErrUnknownTeam       = errors.New("battleground: unknown team")
	ErrNotParticipant    = errors.New("battleground: player not in match")
	ErrFriendlyFire      = errors.New("battleground: killer and victim on same team")
	ErrIllegalFlagAction = errors.New("battleground: illegal flag action")
	ErrNotAlive          = errors.New("battleground: player is dead or eliminated")
	ErrUnknownMode       = errors.New("battleground: unknown mode")
	ErrAlreadyQueued     = errors.New("battleground: player already queued")
	ErrAlreadyInMatch    = errors.New("battleground: player already in a match")
	ErrNotQueued         = errors.New("battleground: player not queued")
)

// Vec2 is an opaque map location. The engines only compare distances; the
// host decides what a coordinate means.
type Vec2 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

func (v Vec2) Dist(o Vec2) float64 {
	return math.Hypot(v.X-o.X, v.Y-o.Y)
}

// Arena describes the fixed locations a mode needs.
type Arena struct {
	Name        string
	Center      Vec2
	Team1Spawns []Vec2
	Team2Spawns []Vec2
	Flag1Base   Vec2
	Flag2Base   Vec2
	Hills       []Vec2
}

func (a Arena) spawns(team int) []Vec2 {
	switch team {
	case 1:
		return a.Team1Spawns
	case 2:
		return a.Team2Spawns
	}
	return nil
}

// Mover relocates a participant (respawn, drop-in).
type Mover interface {
	Relocate(player ecs.EntityID, to Vec2)
}

// Locator reports where a participant currently is.
type Locator interface {
	Position(player ecs.EntityID) (Vec2, bool)
}

// Damager applies environmental damage to a participant.
type Damager interface {
	ApplyDamage(player ecs.EntityID, amount int)
}

// LootSpawner places loot objects owned by a match and takes them away
// again when the match is discarded.
type LootSpawner interface {
	SpawnLoot(owner ecs.EntityID, at Vec2)
	ClearLoot(owner ecs.EntityID) int
}

// Host bundles the external collaborators. Any of them may be nil.
type Host struct {
	Mover   Mover
	Locator Locator
	Damager Damager
	Loot    LootSpawner
}

func (h Host) relocate(p ecs.EntityID, to Vec2) {
	if h.Mover != nil {
		h.Mover.Relocate(p, to)
	}
}

func (h Host) position(p ecs.EntityID) (Vec2, bool) {
	if h.Locator == nil {
		return Vec2{}, false
	}
	return h.Locator.Position(p)
}

func (h Host) damage(p ecs.EntityID, amount int) {
	if h.Damager != nil {
		h.Damager.ApplyDamage(p, amount)
	}
}

func (h Host) spawnLoot(owner ecs.EntityID, at Vec2) {
	if h.Loot != nil {
		h.Loot.SpawnLoot(owner, at)
	}
}

func (h Host) clearLoot(owner ecs.EntityID) int {
	if h.Loot == nil {
		return 0
	}
	return h.Loot.ClearLoot(owner)
}

// Deps carries the shared services every mode is built with.
type Deps struct {
	Bus  *event.Bus
	Log  *zap.Logger
	Host Host
	Rand *rand.Rand
}

func (d Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}

func (d Deps) rng() *rand.Rand {
	if d.Rand == nil {
		return rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return d.Rand
}

// Mode is implemented by every battleground rule set. The host drives it
// with Tick; all timing comes from the now argument.
type Mode interface {
	Base() *Match
	InitializeMatch(team1, team2 []ecs.EntityID) error
	StartMatch(now time.Time) error
	Tick(now time.Time)
	// CheckWinCondition reports whether the mode's own end rule holds.
	CheckWinCondition() bool
	// RuleWinner names the winner when the mode rule ends the match.
	RuleWinner() int
}

// Disposer is implemented by modes that leave objects in the world. The
// manager calls Dispose once, when the match is discarded.
type Disposer interface {
	Dispose()
}

func pickPoint(r *rand.Rand, pts []Vec2) (Vec2, bool) {
	if len(pts) == 0 {
		return Vec2{}, false
	}
	return pts[r.Intn(len(pts))], true
}

// pointInCircle returns a uniformly distributed point inside the circle.
func pointInCircle(r *rand.Rand, center Vec2, radius float64) Vec2 {
	d := radius * math.Sqrt(r.Float64())
	a := r.Float64() * 2 * math.Pi
	return Vec2{X: center.X + d*math.Cos(a), Y: center.Y + d*math.Sin(a)}
}

func otherTeam(team int) int {
	switch team {
	case 1:
		return 2
	case 2:
		return 1
	}
	return 0
}
