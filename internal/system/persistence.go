package system

import (
	"context"
	"errors"
	"time"

	coresys "github.com/darklegend/server/internal/core/system"
	"github.com/darklegend/server/internal/reset"
	"github.com/darklegend/server/internal/world"
	"go.uber.org/zap"
)

// PersistenceSystem periodically saves the reset progression of online
// players. Phase 5 (Persist).
type PersistenceSystem struct {
	ws        *world.State
	store     reset.Store
	log       *zap.Logger
	tickCount int
	interval  int // auto-save every N ticks
}

func NewPersistenceSystem(ws *world.State, store reset.Store, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	return &PersistenceSystem{
		ws:       ws,
		store:    store,
		log:      log,
		interval: intervalTicks,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.savePlayers(true)
}

// SaveAllPlayers persists all online players immediately, ignoring dirty flags.
// Called for graceful shutdown to ensure no data is lost.
func (s *PersistenceSystem) SaveAllPlayers() int {
	return s.savePlayers(false)
}

// SavePlayer saves one player now, e.g. on logout.
func (s *PersistenceSystem) SavePlayer(p *world.PlayerInfo) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.Save(ctx, p.Char.Snapshot()); err != nil {
		return err
	}
	p.Char.Dirty = false
	return nil
}

// savePlayers persists progression. If dirtyOnly is true, only saves
// characters whose Dirty flag is set; the flag is cleared after a
// successful save.
func (s *PersistenceSystem) savePlayers(dirtyOnly bool) int {
	count := 0
	s.ws.AllPlayers(func(p *world.PlayerInfo) {
		if dirtyOnly && !p.Char.Dirty {
			return // 沒有變動，略過
		}
		if err := s.SavePlayer(p); err != nil {
			s.log.Error("自動存檔轉生進度失敗", zap.String("char", p.Handle()), zap.Error(err))
			return
		}
		count++
	})
	if count > 0 {
		s.log.Info("自動存檔完成", zap.Int("玩家數", count))
	}
	return count
}

// LoadPlayer restores a character's progression before it goes in-world.
// A missing record leaves the character as is.
func LoadPlayer(ctx context.Context, store reset.Store, c *reset.Character) error {
	rec, err := store.Load(ctx, c.Handle)
	if err != nil {
		if errors.Is(err, reset.ErrNotFound) {
			return nil
		}
		return err
	}
	c.Restore(rec)
	return nil
}
