package system

import (
	"errors"
	"time"

	"github.com/darklegend/server/internal/battleground"
	"github.com/darklegend/server/internal/core/event"
	coresys "github.com/darklegend/server/internal/core/system"
	"github.com/darklegend/server/internal/world"
	"go.uber.org/zap"
)

// EffectSystem ticks every online player's effect ledger and handles
// players whose HP reached zero this tick, whether from DoT or zone damage.
// Phase 3 (PostUpdate), after the match engines have applied zone damage.
//
// Players who die inside a match stay dead until the mode respawns them or
// the match completes; everyone in a completed match is revived.
type EffectSystem struct {
	ws    *world.State
	mgr   *battleground.Manager
	clock Clock
	log   *zap.Logger
}

func NewEffectSystem(ws *world.State, mgr *battleground.Manager, bus *event.Bus, clock Clock, log *zap.Logger) *EffectSystem {
	s := &EffectSystem{ws: ws, mgr: mgr, clock: clock, log: log}
	event.Subscribe(bus, s.onMatchCompleted)
	return s
}

func (s *EffectSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *EffectSystem) Update(_ time.Duration) {
	now := s.clock()
	s.ws.AllPlayers(func(p *world.PlayerInfo) {
		if p.Dead {
			return
		}
		p.Effects.Tick(now)
		if p.Body.Dead() {
			s.KillPlayer(p, now)
		}
	})
}

// KillPlayer 玩家死亡：清除所有效果，並通知所在戰場。
func (s *EffectSystem) KillPlayer(p *world.PlayerInfo, now time.Time) {
	if p.Dead {
		return
	}
	p.Dead = true
	p.Body.HP = 0
	cleared := p.Effects.Clear()
	s.log.Debug("player died",
		zap.String("char", p.Handle()),
		zap.Int("effects_cleared", cleared),
	)

	if s.mgr == nil {
		return
	}
	matchID, ok := s.mgr.PlayerMatch(p.ID)
	if !ok {
		// 不在戰場中：原地復活
		s.ws.Revive(p.ID)
		return
	}
	mode, ok := s.mgr.Get(matchID)
	if !ok || mode.Base().State() != battleground.StateInProgress {
		s.ws.Revive(p.ID)
		return
	}

	var err error
	switch m := mode.(type) {
	case *battleground.BattleRoyale:
		err = m.Eliminate(p.ID, 0, now)
	case *battleground.CaptureTheFlag:
		if m.Carrying(p.ID) != 0 {
			err = m.DropFlag(p.ID, p.Body.Position, now)
		}
		if err == nil {
			err = m.RecordDeath(p.ID, now)
		}
	case battleground.Respawner:
		err = m.RecordDeath(p.ID, now)
	}
	// a kill already recorded by the combat side is not an error here
	if err != nil && !errors.Is(err, battleground.ErrNotAlive) {
		s.log.Warn("battleground death hook failed",
			zap.String("char", p.Handle()),
			zap.Stringer("match", matchID),
			zap.Error(err),
		)
	}
}

// onMatchCompleted revives every dead participant of a finished match.
func (s *EffectSystem) onMatchCompleted(ev event.MatchCompleted) {
	if s.mgr == nil {
		return
	}
	mode, ok := s.mgr.Get(ev.MatchID)
	if !ok {
		return
	}
	n := 0
	for _, id := range mode.Base().Players() {
		if s.ws.Revive(id) {
			n++
		}
	}
	if n > 0 {
		s.log.Debug("match participants revived",
			zap.String("session", ev.SessionID),
			zap.Int("count", n),
		)
	}
}
