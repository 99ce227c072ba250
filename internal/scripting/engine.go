package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/darklegend/server/internal/reset"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for scripted formulas.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	// core 先載入，再載入各功能腳本
	for _, sub := range []string{"core", "reset"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// HasFunc reports whether a global Lua function is defined.
func (e *Engine) HasFunc(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// CalcResetReward calls Lua calc_reset_reward(count). The script returns a
// table {points, damage, defense, hp, mp} with whole percentages, or nil when
// the count has no reward.
func (e *Engine) CalcResetReward(count int) (reset.Reward, error) {
	fn := e.vm.GetGlobal("calc_reset_reward")
	if fn == lua.LNil {
		return reset.Reward{}, fmt.Errorf("lua function calc_reset_reward not found")
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(count)); err != nil {
		e.log.Error("lua calc_reset_reward error", zap.Error(err), zap.Int("count", count))
		return reset.Reward{}, fmt.Errorf("calc_reset_reward(%d): %w", count, err)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	if result == lua.LNil {
		return reset.Reward{}, fmt.Errorf("%w: %d", reset.ErrRewardOutOfRange, count)
	}
	rt, ok := result.(*lua.LTable)
	if !ok {
		return reset.Reward{}, fmt.Errorf("calc_reset_reward(%d) returned %s", count, result.Type())
	}

	return reset.Reward{
		BonusStats: lInt(rt, "points"),
		Damage:     lNum(rt, "damage") / 100,
		Defense:    lNum(rt, "defense") / 100,
		HP:         lNum(rt, "hp") / 100,
		MP:         lNum(rt, "mp") / 100,
	}, nil
}

// ResetRewards adapts the engine to reset.RewardCalculator.
type ResetRewards struct{ E *Engine }

func (r ResetRewards) CalculateReward(count int) (reset.Reward, error) {
	return r.E.CalcResetReward(count)
}

// lInt reads an integer field from a Lua table.
func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

func lNum(t *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(t.RawGetString(key)))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
