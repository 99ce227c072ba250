package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/darklegend/server/internal/battleground"
	"github.com/darklegend/server/internal/config"
	"github.com/darklegend/server/internal/core/ecs"
	"github.com/darklegend/server/internal/core/event"
	coresys "github.com/darklegend/server/internal/core/system"
	"github.com/darklegend/server/internal/data"
	"github.com/darklegend/server/internal/reset"
	"github.com/darklegend/server/internal/scripting"
	"github.com/darklegend/server/internal/system"
	"github.com/darklegend/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := "config/server.toml"
	if p := os.Getenv("DARKLEGEND_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	printSection("儲存")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer st.Close()
	fmt.Println()

	printSection("資料載入")

	arenas, err := data.LoadArenaTable(cfg.Data.ArenaList)
	if err != nil {
		return fmt.Errorf("load arena table: %w", err)
	}
	printStat("戰場地圖", arenas.Count())

	rewardFile, err := data.LoadResetRewards(cfg.Data.RewardList)
	if err != nil {
		return fmt.Errorf("load reset rewards: %w", err)
	}
	printStat("轉生獎勵區間", len(rewardFile.Table.Brackets()))

	effects, err := data.LoadEffectTable(cfg.Data.EffectList)
	if err != nil {
		return fmt.Errorf("load effect table: %w", err)
	}
	printStat("技能效果", effects.Count())

	var rewards reset.RewardCalculator = rewardFile.Table
	if cfg.Reset.RewardSource == "lua" {
		luaEngine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
		if err != nil {
			return fmt.Errorf("lua engine: %w", err)
		}
		defer luaEngine.Close()
		if !luaEngine.HasFunc("calc_reset_reward") {
			return fmt.Errorf("lua engine: calc_reset_reward not defined in %s", cfg.Scripting.Dir)
		}
		rewards = scripting.ResetRewards{E: luaEngine}
		printOK("Lua 轉生獎勵公式載入完成")
	}
	fmt.Println()

	bus := event.NewBus()
	ecsWorld := ecs.NewWorld()
	worldState := world.NewState(ecsWorld)

	resets := reset.NewSystem(cfg.Reset, rewards, bus, log)
	for _, k := range []reset.Kind{reset.KindNormal, reset.KindGrand, reset.KindMaster} {
		if items := rewardFile.Items(k); len(items) > 0 {
			resets.SetItems(k, items)
		}
	}
	subscribeResetLog(bus, log)

	printSection("戰場")

	mgr := battleground.NewManager(ecsWorld, cfg.Battleground.GracePeriod, bus, log)
	deps := battleground.Deps{
		Bus:  bus,
		Log:  log,
		Host: worldState.Host(),
		Rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	modeCount, err := registerModes(mgr, cfg.Battleground, arenas, deps, log)
	if err != nil {
		return fmt.Errorf("battleground: %w", err)
	}
	printStat("開放模式", modeCount)
	fmt.Println()

	clock := system.Clock(time.Now)
	persistSys := system.NewPersistenceSystem(worldState, st.store, log, cfg.Loop.SaveIntervalTicks)
	recordSys := system.NewMatchRecordSystem(bus, st.results, log)

	runner := coresys.NewRunner()
	runner.Register(system.NewBattlegroundSystem(mgr, clock))
	runner.Register(system.NewEffectSystem(worldState, mgr, bus, clock, log))
	runner.Register(system.NewRankingSystem(worldState, 0))
	runner.Register(recordSys)
	runner.Register(persistSys)
	runner.Register(system.NewCleanupSystem(ecsWorld, log))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Loop.TickRate)
	defer ticker.Stop()

	printSection("伺服器就緒")
	printReady(fmt.Sprintf("儲存後端 %s", cfg.Storage.Backend))
	printReady(fmt.Sprintf("遊戲迴圈啟動 (tick: %s)", cfg.Loop.TickRate))
	fmt.Println()

	log.Info("server ready",
		zap.Int("modes", modeCount),
		zap.Int("effects", effects.Count()),
		zap.Int("normal_min_level", resets.Requirement(reset.KindNormal).MinLevel),
	)

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Loop.TickRate)
		case sig := <-shutdownCh:
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			recordSys.Flush()
			persistSys.SaveAllPlayers()
			log.Info("伺服器已停止")
			return nil
		}
	}
}

func subscribeResetLog(bus *event.Bus, log *zap.Logger) {
	event.Subscribe(bus, func(e event.ResetSucceeded) {
		log.Info("轉生成功",
			zap.String("char", e.Handle),
			zap.String("kind", e.Kind),
			zap.Int("seq", e.Sequence),
		)
	})
	event.Subscribe(bus, func(e event.MatchCompleted) {
		log.Info("戰場結束",
			zap.String("session", e.SessionID),
			zap.String("mode", e.Mode),
			zap.Int("winner", e.Winner),
		)
	})
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
