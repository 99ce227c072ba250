package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/darklegend/server/internal/reset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCalcResetReward_ShippedScript(t *testing.T) {
	e, err := NewEngine("../../scripts", zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	var calc reset.RewardCalculator = ResetRewards{E: e}
	table := reset.DefaultRewardTable()
	for _, n := range []int{1, 10, 11, 30, 31, 50, 51, 100} {
		want, err := table.CalculateReward(n)
		require.NoError(t, err)
		got, err := calc.CalculateReward(n)
		require.NoError(t, err)
		assert.Equal(t, want.BonusStats, got.BonusStats, "count %d", n)
		assert.InDelta(t, want.Damage, got.Damage, 1e-9, "count %d", n)
		assert.InDelta(t, want.MP, got.MP, 1e-9, "count %d", n)
	}

	_, err = calc.CalculateReward(101)
	assert.ErrorIs(t, err, reset.ErrRewardOutOfRange)
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "reset"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "reset", "reward.lua"), []byte(body), 0o644))
	return dir
}

func TestCalcResetReward_ScriptErrors(t *testing.T) {
	e, err := NewEngine(writeScript(t, `function calc_reset_reward(n) error("boom") end`), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()
	_, err = e.CalcResetReward(1)
	assert.Error(t, err)

	e2, err := NewEngine(writeScript(t, `function calc_reset_reward(n) return 5 end`), zap.NewNop())
	require.NoError(t, err)
	defer e2.Close()
	_, err = e2.CalcResetReward(1)
	assert.Error(t, err)

	e3, err := NewEngine(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	defer e3.Close()
	assert.False(t, e3.HasFunc("calc_reset_reward"))
	_, err = e3.CalcResetReward(1)
	assert.Error(t, err)
}

func TestNewEngine_BadScript(t *testing.T) {
	_, err := NewEngine(writeScript(t, `function (`), zap.NewNop())
	assert.Error(t, err)
}

func TestCalcResetReward_Custom(t *testing.T) {
	e, err := NewEngine(writeScript(t, `
function calc_reset_reward(n)
  return { points = n * 10, damage = 0.5, defense = 1, hp = 2, mp = 0 }
end`), zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	r, err := e.CalcResetReward(7)
	require.NoError(t, err)
	assert.Equal(t, 70, r.BonusStats)
	assert.InDelta(t, 0.005, r.Damage, 1e-12)
	assert.InDelta(t, 0.02, r.HP, 1e-12)
	assert.Zero(t, r.MP)
}
