package battleground

import (
	"math"
	"sort"
	"time"

	"github.com/darklegend/server/internal/config"
	"github.com/darklegend/server/internal/core/ecs"
	"go.uber.org/zap"
)

const ModeBattleRoyale = "battle_royale"

// zoneDamageInterval is how often a player outside the circle is hurt.
const zoneDamageInterval = time.Second

// BattleRoyale 大逃殺：所有玩家合併為一個存活集合，安全圈定期縮小，
// 存活人數 ≤ 1 時結束。
type BattleRoyale struct {
	*Match
	cfg   config.BattleRoyaleConfig
	arena Arena
	deps  Deps

	alive      map[ecs.EntityID]struct{}
	eliminated []ecs.EntityID

	center     Vec2
	radius     float64
	lastShrink time.Time
	lastDamage map[ecs.EntityID]time.Time
}

func NewBattleRoyale(cfg config.BattleRoyaleConfig, arena Arena, deps Deps) *BattleRoyale {
	return &BattleRoyale{
		Match:      NewMatch(ModeBattleRoyale, cfg.TeamSize, cfg.TimeLimit, deps),
		cfg:        cfg,
		arena:      arena,
		deps:       deps,
		alive:      make(map[ecs.EntityID]struct{}),
		lastDamage: make(map[ecs.EntityID]time.Time),
		center:     arena.Center,
		radius:     cfg.InitialRadius,
	}
}

// InitializeMatch keeps the two rosters only to remember where each player
// came from; everyone lands in one alive set.
func (b *BattleRoyale) InitializeMatch(team1, team2 []ecs.EntityID) error {
	if err := b.Match.InitializeMatch(team1, team2); err != nil {
		return err
	}
	b.alive = make(map[ecs.EntityID]struct{}, len(team1)+len(team2))
	for _, p := range b.Players() {
		b.alive[p] = struct{}{}
	}
	b.eliminated = nil
	b.lastDamage = make(map[ecs.EntityID]time.Time)
	b.center = b.arena.Center
	b.radius = b.cfg.InitialRadius
	return nil
}

func (b *BattleRoyale) StartMatch(now time.Time) error {
	if err := b.Match.StartMatch(now); err != nil {
		return err
	}
	b.lastShrink = now

	rng := b.deps.rng()
	for _, p := range b.aliveSorted() {
		b.deps.Host.relocate(p, pointInCircle(rng, b.center, b.radius))
	}
	loot := b.LootCount()
	for i := 0; i < loot; i++ {
		b.deps.Host.spawnLoot(b.ID, pointInCircle(rng, b.center, b.radius))
	}
	b.log.Info("battle royale drop",
		zap.Int("players", len(b.alive)),
		zap.Float64("radius", b.radius),
		zap.Int("loot", loot),
	)
	return nil
}

// LootCount is the number of loot objects for the initial circle:
// LootDensity per 10,000 square units.
func (b *BattleRoyale) LootCount() int {
	if b.cfg.LootDensity <= 0 || b.cfg.InitialRadius <= 0 {
		return 0
	}
	area := math.Pi * b.cfg.InitialRadius * b.cfg.InitialRadius
	return int(math.Round(b.cfg.LootDensity * area / 10000))
}

// Dispose removes the loot this match spawned.
func (b *BattleRoyale) Dispose() {
	if n := b.deps.Host.clearLoot(b.ID); n > 0 {
		b.log.Debug("battle royale loot cleared", zap.Int("loot", n))
	}
}

func (b *BattleRoyale) GetAliveCount() int { return len(b.alive) }

func (b *BattleRoyale) IsAlive(p ecs.EntityID) bool {
	_, ok := b.alive[p]
	return ok
}

// Eliminated returns players in elimination order.
func (b *BattleRoyale) Eliminated() []ecs.EntityID {
	return append([]ecs.EntityID(nil), b.eliminated...)
}

func (b *BattleRoyale) Circle() (Vec2, float64) { return b.center, b.radius }

// Eliminate removes the victim from the alive set. killer may be zero for
// zone or environment deaths; a participating killer earns their team a
// point. The end check runs immediately so the match ends on the first
// elimination that leaves one or nobody standing.
func (b *BattleRoyale) Eliminate(victim, killer ecs.EntityID, now time.Time) error {
	if b.State() != StateInProgress {
		return ErrNotInProgress
	}
	if b.TeamOf(victim) == 0 {
		return ErrNotParticipant
	}
	if _, ok := b.alive[victim]; !ok {
		return ErrNotAlive
	}
	delete(b.alive, victim)
	delete(b.lastDamage, victim)
	b.eliminated = append(b.eliminated, victim)

	if kt := b.TeamOf(killer); kt != 0 && killer != victim {
		_ = b.UpdateScore(kt, 1)
	}
	b.evaluateEnd(now, b)
	return nil
}

func (b *BattleRoyale) Tick(now time.Time) {
	if b.State() != StateInProgress {
		return
	}
	b.shrink(now)
	b.applyZoneDamage(now)
	b.evaluateEnd(now, b)
}

// shrink runs one step per elapsed ShrinkInterval. The schedule advances
// from the match start, not from the tick that noticed it.
func (b *BattleRoyale) shrink(now time.Time) {
	if b.cfg.ShrinkInterval <= 0 {
		return
	}
	for now.Sub(b.lastShrink) >= b.cfg.ShrinkInterval {
		b.lastShrink = b.lastShrink.Add(b.cfg.ShrinkInterval)
		if b.radius <= b.cfg.MinRadius {
			continue
		}
		b.radius = math.Max(b.cfg.MinRadius, b.radius-b.cfg.ShrinkStep)
		b.log.Debug("circle shrunk", zap.Float64("radius", b.radius))
	}
}

// applyZoneDamage 圈外玩家每秒受一次傷害；計時器按玩家各自獨立。
func (b *BattleRoyale) applyZoneDamage(now time.Time) {
	if b.cfg.ZoneDamage <= 0 {
		return
	}
	for _, p := range b.aliveSorted() {
		// the damage sink may eliminate synchronously
		if b.State() != StateInProgress {
			return
		}
		if !b.IsAlive(p) {
			continue
		}
		pos, ok := b.deps.Host.position(p)
		if !ok {
			continue
		}
		if pos.Dist(b.center) <= b.radius {
			delete(b.lastDamage, p)
			continue
		}
		if last, hit := b.lastDamage[p]; hit && now.Sub(last) < zoneDamageInterval {
			continue
		}
		b.lastDamage[p] = now
		b.deps.Host.damage(p, b.cfg.ZoneDamage)
	}
}

func (b *BattleRoyale) aliveSorted() []ecs.EntityID {
	out := make([]ecs.EntityID, 0, len(b.alive))
	for p := range b.alive {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (b *BattleRoyale) CheckWinCondition() bool { return len(b.alive) <= 1 }

// RuleWinner is the original team of the last survivor, 0 if nobody is left.
func (b *BattleRoyale) RuleWinner() int {
	if len(b.alive) != 1 {
		return 0
	}
	for p := range b.alive {
		return b.TeamOf(p)
	}
	return 0
}
