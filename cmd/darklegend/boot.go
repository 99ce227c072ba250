package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/darklegend/server/internal/battleground"
	"github.com/darklegend/server/internal/cache"
	"github.com/darklegend/server/internal/config"
	"github.com/darklegend/server/internal/data"
	"github.com/darklegend/server/internal/persist"
	"github.com/darklegend/server/internal/reset"
	"github.com/darklegend/server/internal/system"
	"go.uber.org/zap"
)

// storage is the progression store plus the optional match result sink.
type storage struct {
	store   reset.Store
	results system.ResultWriter
	closers []func()
}

func (s *storage) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (*storage, error) {
	st := &storage{}
	switch cfg.Storage.Backend {
	case "postgres":
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, db.Close)
		printOK("PostgreSQL 連線成功")

		if err := db.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
		printOK("資料庫遷移完成")

		progress := persist.NewProgressRepo(db)
		st.store = progress
		st.results = persist.NewResultRepo(db)

		top, err := progress.TopResets(ctx, 3)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("query reset ranking: %w", err)
		}
		for i, r := range top {
			log.Info("轉生排行",
				zap.Int("rank", i+1),
				zap.String("char", r.Handle),
				zap.Int("master", r.MasterResets),
				zap.Int("grand", r.GrandResets),
				zap.Int("normal", r.NormalResets),
			)
		}

	case "redis", "memory":
		c := cfg.Cache
		if cfg.Storage.Backend == "memory" {
			c.RedisAddr = ""
		} else if c.RedisAddr == "" {
			return nil, fmt.Errorf("storage backend redis needs cache.redis_addr")
		}
		kv, err := cache.New(c, log)
		if err != nil {
			return nil, err
		}
		st.closers = append(st.closers, func() { _ = kv.Close() })
		st.store = cache.NewProgressStore(kv, c.KeyPrefix, c.TTL)
		printOK(fmt.Sprintf("快取儲存 (%s)", cfg.Storage.Backend))

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	return st, nil
}

// registerModes registers every enabled mode with the first arena that
// supports it.
func registerModes(mgr *battleground.Manager, cfg config.BattlegroundConfig, arenas *data.ArenaTable, deps battleground.Deps, log *zap.Logger) (int, error) {
	type entry struct {
		name  string
		queue config.QueueConfig
		build func(battleground.Arena) func() battleground.Mode
	}
	entries := []entry{
		{battleground.ModeDeathmatch, cfg.Deathmatch.QueueConfig, func(a battleground.Arena) func() battleground.Mode {
			return func() battleground.Mode { return battleground.NewDeathmatch(cfg.Deathmatch, a, deps) }
		}},
		{battleground.ModeCaptureFlag, cfg.CaptureFlag.QueueConfig, func(a battleground.Arena) func() battleground.Mode {
			return func() battleground.Mode { return battleground.NewCaptureTheFlag(cfg.CaptureFlag, a, deps) }
		}},
		{battleground.ModeKingOfTheHill, cfg.KingOfTheHill.QueueConfig, func(a battleground.Arena) func() battleground.Mode {
			return func() battleground.Mode { return battleground.NewKingOfTheHill(cfg.KingOfTheHill, a, deps) }
		}},
		{battleground.ModeBattleRoyale, cfg.BattleRoyale.QueueConfig, func(a battleground.Arena) func() battleground.Mode {
			return func() battleground.Mode { return battleground.NewBattleRoyale(cfg.BattleRoyale, a, deps) }
		}},
	}

	n := 0
	for _, e := range entries {
		if !e.queue.Enabled {
			continue
		}
		ae, ok := arenas.ForMode(e.name)
		if !ok {
			log.Warn("沒有可用的戰場地圖，略過模式", zap.String("mode", e.name))
			continue
		}
		if err := mgr.RegisterMode(battleground.ModeSpec{
			Name:       e.name,
			MinPlayers: e.queue.MinPlayers,
			TeamSize:   e.queue.TeamSize,
			New:        e.build(ae.Arena()),
		}); err != nil {
			return n, err
		}
		printStat(fmt.Sprintf("%s @ %s", e.name, ae.Name), e.queue.MinPlayers)
		n++
	}
	return n, nil
}

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m           Dark Legend  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       戰場 · 轉生 · 技能效果 核心         \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s \033[90m(編號: %d)\033[0m\n\n", serverName, serverID)
}

// displayWidth counts CJK runes as two columns.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x7F {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func printSection(title string) {
	lineLen := 46 - displayWidth(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - displayWidth(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}
