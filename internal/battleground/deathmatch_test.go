package battleground

import (
	"testing"
	"time"

	"github.com/darklegend/server/internal/config"
	"github.com/darklegend/server/internal/core/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDeathmatch(t *testing.T, mutate func(*config.DeathmatchConfig)) (*Deathmatch, *fakeHost) {
	t.Helper()
	cfg := config.Defaults().Battleground.Deathmatch
	if mutate != nil {
		mutate(&cfg)
	}
	h := newFakeHost()
	d := NewDeathmatch(cfg, testArena, testDeps(nil, h))
	require.NoError(t, d.InitializeMatch(ids(1, 2, 3), ids(4, 5, 6)))
	require.NoError(t, d.StartMatch(t0))
	return d, h
}

func TestDeathmatch_ScoreEqualsKillsTimesPoints(t *testing.T) {
	d, _ := newTestDeathmatch(t, func(c *config.DeathmatchConfig) { c.PointsPerKill = 3 })
	p := ids(1, 2, 3, 4, 5, 6)

	kills := []struct{ killer, victim int }{{0, 3}, {4, 1}, {2, 5}, {1, 4}, {5, 0}}
	for i, k := range kills {
		require.NoError(t, d.RecordKill(p[k.killer], p[k.victim], nil, at(time.Duration(i)*time.Second)))
		assert.Equal(t, d.Kills()*3, d.Score(1)+d.Score(2))
	}
	assert.Equal(t, 9, d.Score(1))
	assert.Equal(t, 6, d.Score(2))
}

func TestDeathmatch_RejectsBadKills(t *testing.T) {
	d, _ := newTestDeathmatch(t, nil)
	p := ids(1, 2, 4, 99)
	assert.ErrorIs(t, d.RecordKill(p[0], p[1], nil, t0), ErrFriendlyFire)
	assert.ErrorIs(t, d.RecordKill(p[0], p[3], nil, t0), ErrNotParticipant)
	assert.Equal(t, 0, d.Kills())
	assert.Equal(t, 0, d.Score(1))
}

func TestDeathmatch_Assists(t *testing.T) {
	d, _ := newTestDeathmatch(t, func(c *config.DeathmatchConfig) { c.PointsPerAssist = 2 })
	p := ids(1, 2, 3, 4)
	// killer listed as own assist and an enemy assist are both ignored
	require.NoError(t, d.RecordKill(p[0], p[3], []ecs.EntityID{p[1], p[2], p[0], p[3]}, t0))
	assert.Equal(t, 1+2+2, d.Score(1))
}

func TestDeathmatch_RespawnAfterDelay(t *testing.T) {
	d, h := newTestDeathmatch(t, nil)
	p := ids(1, 4)
	require.NoError(t, d.RecordKill(p[0], p[1], nil, t0))
	assert.Equal(t, 1, d.PendingRespawns())
	when, ok := d.RespawnAt(p[1])
	require.True(t, ok)
	assert.Equal(t, at(5*time.Second), when)

	d.Tick(at(4 * time.Second))
	assert.Empty(t, h.moves[p[1]])

	d.Tick(at(5 * time.Second))
	require.Len(t, h.moves[p[1]], 1)
	assert.Contains(t, testArena.Team2Spawns, h.moves[p[1]][0])
	assert.Equal(t, 0, d.PendingRespawns())
}

func TestDeathmatch_WinAtThreshold(t *testing.T) {
	d, _ := newTestDeathmatch(t, func(c *config.DeathmatchConfig) { c.KillsToWin = 2 })
	p := ids(1, 4)
	require.NoError(t, d.RecordKill(p[1], p[0], nil, t0))
	d.Tick(at(time.Second))
	assert.Equal(t, StateInProgress, d.State())
	d.Tick(at(5 * time.Second))

	require.NoError(t, d.RecordKill(p[1], p[0], nil, at(6*time.Second)))
	assert.True(t, d.CheckWinCondition())
	d.Tick(at(7 * time.Second))
	assert.Equal(t, StateEnded, d.State())
	assert.Equal(t, 2, d.Winner())
	assert.Equal(t, ReasonWinCondition, d.EndReason())

	assert.ErrorIs(t, d.RecordKill(p[1], p[0], nil, at(8*time.Second)), ErrNotInProgress)
}

func TestDeathmatch_DeadVictimCannotBeKilledAgain(t *testing.T) {
	d, _ := newTestDeathmatch(t, nil)
	p := ids(1, 4)
	require.NoError(t, d.RecordKill(p[0], p[1], nil, t0))
	when, _ := d.RespawnAt(p[1])

	assert.ErrorIs(t, d.RecordKill(p[0], p[1], nil, at(2*time.Second)), ErrNotAlive)
	assert.Equal(t, 1, d.Kills())
	assert.Equal(t, 1, d.Score(1))
	again, _ := d.RespawnAt(p[1])
	assert.Equal(t, when, again, "respawn not pushed back")

	d.Tick(at(5 * time.Second))
	require.NoError(t, d.RecordKill(p[0], p[1], nil, at(6*time.Second)))
	assert.Equal(t, 2, d.Score(1))
}

func TestDeathmatch_RecordDeathRespawnsWithoutScore(t *testing.T) {
	d, h := newTestDeathmatch(t, nil)
	p := ids(2)[0]
	require.NoError(t, d.RecordDeath(p, t0))
	assert.ErrorIs(t, d.RecordDeath(p, t0), ErrNotAlive)
	assert.ErrorIs(t, d.RecordDeath(ids(99)[0], t0), ErrNotParticipant)
	assert.Zero(t, d.Score(1)+d.Score(2))
	assert.Zero(t, d.Kills())

	d.Tick(at(5 * time.Second))
	require.Len(t, h.moves[p], 1)
	assert.Contains(t, testArena.Team1Spawns, h.moves[p][0])
	assert.Zero(t, d.PendingRespawns())
}
