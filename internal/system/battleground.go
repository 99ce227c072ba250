package system

import (
	"time"

	"github.com/darklegend/server/internal/battleground"
	coresys "github.com/darklegend/server/internal/core/system"
)

// BattlegroundSystem forms matches from queues and ticks every running
// match. Phase 2 (Update).
type BattlegroundSystem struct {
	mgr   *battleground.Manager
	clock Clock
}

func NewBattlegroundSystem(mgr *battleground.Manager, clock Clock) *BattlegroundSystem {
	return &BattlegroundSystem{mgr: mgr, clock: clock}
}

func (s *BattlegroundSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *BattlegroundSystem) Update(_ time.Duration) {
	s.mgr.Tick(s.clock())
}
