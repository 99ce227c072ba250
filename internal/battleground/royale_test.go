package battleground

import (
	"testing"
	"time"

	"github.com/darklegend/server/internal/config"
	"github.com/darklegend/server/internal/core/ecs"
	"github.com/darklegend/server/internal/core/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRoyale(t *testing.T, bus *event.Bus, h *fakeHost, mutate func(*config.BattleRoyaleConfig)) *BattleRoyale {
	t.Helper()
	cfg := config.Defaults().Battleground.BattleRoyale
	if mutate != nil {
		mutate(&cfg)
	}
	b := NewBattleRoyale(cfg, testArena, testDeps(bus, h))
	require.NoError(t, b.InitializeMatch(ids(1, 2, 3), ids(4, 5)))
	return b
}

func TestRoyale_MergesRostersAndDropsInsideCircle(t *testing.T) {
	h := newFakeHost()
	b := newTestRoyale(t, nil, h, nil)
	assert.Equal(t, 5, b.GetAliveCount())

	require.NoError(t, b.StartMatch(t0))
	center, radius := b.Circle()
	for _, p := range ids(1, 2, 3, 4, 5) {
		require.Len(t, h.moves[p], 1)
		assert.LessOrEqual(t, h.moves[p][0].Dist(center), radius)
	}
	assert.Len(t, h.loot, b.LootCount())
	assert.Greater(t, b.LootCount(), 0)
}

func TestRoyale_CircleShrinksToMinimum(t *testing.T) {
	b := newTestRoyale(t, nil, nil, func(c *config.BattleRoyaleConfig) {
		c.InitialRadius = 200
		c.ShrinkStep = 60
		c.MinRadius = 50
		c.TimeLimit = 0
	})
	require.NoError(t, b.StartMatch(t0))

	b.Tick(at(119 * time.Second))
	_, r := b.Circle()
	assert.Equal(t, 200.0, r)

	want := []float64{140, 80, 50, 50}
	for i, w := range want {
		b.Tick(at(time.Duration(i+1) * 120 * time.Second))
		_, r = b.Circle()
		assert.Equal(t, w, r)
	}
}

func TestRoyale_ZoneDamagePerPlayerOncePerSecond(t *testing.T) {
	h := newFakeHost()
	b := newTestRoyale(t, nil, h, func(c *config.BattleRoyaleConfig) {
		c.InitialRadius = 100
		c.ZoneDamage = 7
		c.LootDensity = 0
	})
	require.NoError(t, b.StartMatch(t0))
	p := ids(1, 2, 3, 4, 5)
	for _, id := range p {
		h.pos[id] = Vec2{}
	}
	h.pos[p[0]] = Vec2{X: 500}

	b.Tick(at(100 * time.Millisecond))
	assert.Equal(t, 7, h.damage[p[0]])
	b.Tick(at(600 * time.Millisecond))
	assert.Equal(t, 7, h.damage[p[0]], "rate limited")

	// second player leaves the circle later; own timer
	h.pos[p[1]] = Vec2{Y: -300}
	b.Tick(at(900 * time.Millisecond))
	assert.Equal(t, 7, h.damage[p[1]])

	b.Tick(at(1100 * time.Millisecond))
	assert.Equal(t, 14, h.damage[p[0]])
	assert.Equal(t, 7, h.damage[p[1]])
	assert.Zero(t, h.damage[p[2]])
}

func TestRoyale_EliminationEndsExactlyOnce(t *testing.T) {
	bus := event.NewBus()
	var ended []event.MatchEnded
	event.Subscribe(bus, func(e event.MatchEnded) { ended = append(ended, e) })

	b := newTestRoyale(t, bus, nil, nil)
	require.NoError(t, b.StartMatch(t0))
	p := ids(1, 2, 3, 4, 5)

	prev := b.GetAliveCount()
	for i, victim := range []int{0, 1, 3, 2} {
		require.NoError(t, b.Eliminate(p[victim], p[4], at(time.Duration(i)*time.Second)))
		assert.LessOrEqual(t, b.GetAliveCount(), prev)
		prev = b.GetAliveCount()
		b.Tick(at(time.Duration(i)*time.Second + 100*time.Millisecond))
	}

	assert.Equal(t, 1, b.GetAliveCount())
	assert.True(t, b.IsAlive(p[4]))
	require.Len(t, ended, 1)
	assert.Equal(t, 2, ended[0].Winner, "survivor came from team 2")
	assert.Equal(t, ReasonWinCondition, ended[0].Reason)
	assert.Equal(t, 4, b.Score(2))
	assert.Equal(t, []ecs.EntityID{p[0], p[1], p[3], p[2]}, b.Eliminated())

	assert.ErrorIs(t, b.Eliminate(p[4], 0, at(time.Minute)), ErrNotInProgress)
	b.Tick(at(2 * time.Minute))
	assert.Len(t, ended, 1)
}

func TestRoyale_EliminateRejects(t *testing.T) {
	b := newTestRoyale(t, nil, nil, nil)
	require.NoError(t, b.StartMatch(t0))
	assert.ErrorIs(t, b.Eliminate(ids(99)[0], 0, t0), ErrNotParticipant)
	require.NoError(t, b.Eliminate(ids(1)[0], 0, t0))
	assert.ErrorIs(t, b.Eliminate(ids(1)[0], 0, t0), ErrNotAlive)
}

func TestRoyale_ZoneKillInsideDamageLoop(t *testing.T) {
	h := newFakeHost()
	b := newTestRoyale(t, nil, h, func(c *config.BattleRoyaleConfig) {
		c.InitialRadius = 10
		c.ZoneDamage = 100
	})
	require.NoError(t, b.StartMatch(t0))
	for _, id := range ids(1, 2, 3, 4, 5) {
		h.pos[id] = Vec2{X: 1000}
	}
	h.onHurt = func(p ecs.EntityID, total int) {
		if total >= 100 {
			_ = b.Eliminate(p, 0, at(time.Second))
		}
	}
	b.Tick(at(time.Second))
	assert.Equal(t, StateEnded, b.State())
	assert.Equal(t, 1, b.GetAliveCount())
	assert.Equal(t, 0, b.Score(1)+b.Score(2))
}

func TestRoyale_ShrinkScheduleIgnoresLateTicks(t *testing.T) {
	b := newTestRoyale(t, nil, nil, func(c *config.BattleRoyaleConfig) {
		c.InitialRadius = 200
		c.ShrinkStep = 60
		c.MinRadius = 50
		c.TimeLimit = 0
	})
	require.NoError(t, b.StartMatch(t0))

	b.Tick(at(130 * time.Second))
	_, r := b.Circle()
	assert.Equal(t, 140.0, r)

	b.Tick(at(245 * time.Second))
	_, r = b.Circle()
	assert.Equal(t, 80.0, r, "second step due at 240s, not 250s")

	b.Tick(at(10 * time.Minute))
	_, r = b.Circle()
	assert.Equal(t, 50.0, r)
}

func TestRoyale_LootClearedOnDisposal(t *testing.T) {
	f := newManagerFixture(t)
	h := newFakeHost()
	cfg := config.Defaults().Battleground.BattleRoyale
	require.NoError(t, f.mgr.RegisterMode(ModeSpec{
		Name:       ModeBattleRoyale,
		MinPlayers: 2,
		New:        func() Mode { return NewBattleRoyale(cfg, testArena, testDeps(f.bus, h)) },
	}))

	for round := 0; round < 3; round++ {
		start := at(time.Duration(round) * time.Hour)
		p := ids(uint32(10+2*round), uint32(11+2*round))
		require.NoError(t, f.mgr.Join(ModeBattleRoyale, p[0]))
		require.NoError(t, f.mgr.Join(ModeBattleRoyale, p[1]))
		f.mgr.Tick(start)

		active := f.mgr.Active()
		require.Len(t, active, 1)
		mode, _ := f.mgr.Get(active[0])
		br := mode.(*BattleRoyale)
		require.Len(t, h.loot, br.LootCount())
		for _, o := range h.owners {
			assert.Equal(t, active[0], o)
		}

		require.NoError(t, br.EndMatch(0, start.Add(time.Minute)))
		f.mgr.Tick(start.Add(time.Minute + 10*time.Second))
		assert.Len(t, h.loot, br.LootCount(), "kept during the grace period")

		f.mgr.Tick(start.Add(2 * time.Minute))
		assert.Empty(t, h.loot)
		f.world.FlushDestroyQueue()
		assert.Empty(t, f.mgr.Active())
	}
}
