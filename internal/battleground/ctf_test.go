package battleground

import (
	"testing"
	"time"

	"github.com/darklegend/server/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCTF(t *testing.T) *CaptureTheFlag {
	t.Helper()
	cfg := config.Defaults().Battleground.CaptureFlag
	c := NewCaptureTheFlag(cfg, testArena, testDeps(nil, nil))
	require.NoError(t, c.InitializeMatch(ids(1, 2), ids(3, 4)))
	require.NoError(t, c.StartMatch(t0))
	return c
}

func TestCTF_PickupRules(t *testing.T) {
	c := newTestCTF(t)
	p := ids(1, 2, 3)

	assert.ErrorIs(t, c.PickupFlag(p[0], 1, t0), ErrIllegalFlagAction, "own flag")
	require.NoError(t, c.PickupFlag(p[0], 2, t0))
	assert.ErrorIs(t, c.PickupFlag(p[1], 2, t0), ErrIllegalFlagAction, "already carried")

	f, ok := c.Flag(2)
	require.True(t, ok)
	assert.Equal(t, FlagCarried, f.State)
	assert.Equal(t, p[0], f.Carrier)

	// dropped flag may be picked up again by the opposing team
	require.NoError(t, c.DropFlag(p[0], Vec2{X: 10}, at(time.Second)))
	require.NoError(t, c.PickupFlag(p[1], 2, at(2*time.Second)))
	f, _ = c.Flag(2)
	assert.Equal(t, p[1], f.Carrier)
	assert.True(t, f.DroppedAt.IsZero())
}

func TestCTF_CaptureRequiresOwnFlagHome(t *testing.T) {
	c := newTestCTF(t)
	p := ids(1, 3)

	require.NoError(t, c.PickupFlag(p[0], 2, t0)) // team1 takes team2 flag
	require.NoError(t, c.PickupFlag(p[1], 1, t0)) // team2 takes team1 flag

	err := c.CaptureFlag(p[0], at(time.Second))
	assert.ErrorIs(t, err, ErrIllegalFlagAction)
	assert.Equal(t, 0, c.Score(1))

	// team2 carrier drops, team1 returns its flag, then captures
	require.NoError(t, c.DropFlag(p[1], Vec2{}, at(2*time.Second)))
	assert.ErrorIs(t, c.CaptureFlag(p[0], at(3*time.Second)), ErrIllegalFlagAction, "own flag dropped, not home")
	require.NoError(t, c.ReturnFlag(ids(2)[0], at(4*time.Second)))
	require.NoError(t, c.CaptureFlag(p[0], at(5*time.Second)))

	assert.Equal(t, 1, c.Score(1))
	assert.Equal(t, 1, c.Captures(1))
	f, _ := c.Flag(2)
	assert.Equal(t, FlagAtBase, f.State)
	assert.Equal(t, testArena.Flag2Base, f.Position)
}

func TestCTF_CaptureWithoutCarryingIsRejected(t *testing.T) {
	c := newTestCTF(t)
	p := ids(1, 2)
	require.NoError(t, c.PickupFlag(p[0], 2, t0))
	assert.ErrorIs(t, c.CaptureFlag(p[1], t0), ErrIllegalFlagAction, "teammate is not the carrier")
	assert.ErrorIs(t, c.CaptureFlag(ids(50)[0], t0), ErrNotParticipant)
	assert.Equal(t, 0, c.Score(1))
}

func TestCTF_DroppedFlagAutoReturns(t *testing.T) {
	c := newTestCTF(t)
	p := ids(1)
	require.NoError(t, c.PickupFlag(p[0], 2, t0))
	require.NoError(t, c.DropFlag(p[0], Vec2{X: 5, Y: 5}, at(10*time.Second)))

	c.Tick(at(39 * time.Second))
	f, _ := c.Flag(2)
	assert.Equal(t, FlagDropped, f.State)
	assert.Equal(t, Vec2{X: 5, Y: 5}, f.Position)

	c.Tick(at(40 * time.Second))
	f, _ = c.Flag(2)
	assert.Equal(t, FlagAtBase, f.State)
}

func TestCTF_ReturnOnlyDroppedOwnFlag(t *testing.T) {
	c := newTestCTF(t)
	assert.ErrorIs(t, c.ReturnFlag(ids(1)[0], t0), ErrIllegalFlagAction)
	assert.ErrorIs(t, c.DropFlag(ids(1)[0], Vec2{}, t0), ErrIllegalFlagAction)
}

func TestCTF_WinAfterThreeCaptures(t *testing.T) {
	c := newTestCTF(t)
	p := ids(3)
	for i := 0; i < 3; i++ {
		now := at(time.Duration(i) * time.Minute)
		require.NoError(t, c.PickupFlag(p[0], 1, now))
		require.NoError(t, c.CaptureFlag(p[0], now))
		c.Tick(now)
	}
	assert.Equal(t, StateEnded, c.State())
	assert.Equal(t, 2, c.Winner())
	assert.ErrorIs(t, c.PickupFlag(p[0], 1, at(time.Hour)), ErrNotInProgress)
}

func TestCTF_DeadCarrierRespawnsAndFlagGoesHome(t *testing.T) {
	h := newFakeHost()
	cfg := config.Defaults().Battleground.CaptureFlag
	c := NewCaptureTheFlag(cfg, testArena, testDeps(nil, h))
	require.NoError(t, c.InitializeMatch(ids(1, 2), ids(3, 4)))
	require.NoError(t, c.StartMatch(t0))
	p := ids(1)[0]

	require.NoError(t, c.PickupFlag(p, 2, t0))
	require.NoError(t, c.RecordDeath(p, at(time.Second)))
	f, _ := c.Flag(2)
	assert.Equal(t, FlagAtBase, f.State)
	assert.Zero(t, c.Carrying(p))

	assert.ErrorIs(t, c.PickupFlag(p, 2, at(2*time.Second)), ErrNotAlive)
	when, ok := c.RespawnAt(p)
	require.True(t, ok)
	assert.Equal(t, at(11*time.Second), when)

	c.Tick(at(10 * time.Second))
	assert.Empty(t, h.moves[p])
	c.Tick(at(11 * time.Second))
	require.Len(t, h.moves[p], 1)
	assert.Contains(t, testArena.Team1Spawns, h.moves[p][0])
	require.NoError(t, c.PickupFlag(p, 2, at(12*time.Second)))
}
