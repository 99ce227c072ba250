package battleground

import (
	"fmt"
	"time"

	"github.com/darklegend/server/internal/config"
	"github.com/darklegend/server/internal/core/ecs"
	"go.uber.org/zap"
)

const ModeKingOfTheHill = "king_of_the_hill"

// HillState is the control state of the active hill.
type HillState int

const (
	HillNeutral    HillState = iota // nobody holds it, nobody is capturing
	HillContested                   // both teams present
	HillCapturing                   // one team alone, timer running
	HillControlled                  // a team holds it
)

func (s HillState) String() string {
	switch s {
	case HillNeutral:
		return "neutral"
	case HillContested:
		return "contested"
	case HillCapturing:
		return "capturing"
	case HillControlled:
		return "controlled"
	}
	return fmt.Sprintf("hill(%d)", int(s))
}

// KingOfTheHill 山丘之王：單一據點輪替，獨佔據點的隊伍每秒得分。
type KingOfTheHill struct {
	*Match
	cfg   config.KingOfHillConfig
	arena Arena
	deps  Deps
	respawnQueue

	hills        []Vec2
	hillIdx      int
	lastRotation time.Time

	occupants [3]map[ecs.EntityID]struct{}

	state       HillState
	controlling int
	capturing   int
	progress    time.Duration
	lastEval    time.Time
	lastScoreAt time.Time
}

func NewKingOfTheHill(cfg config.KingOfHillConfig, arena Arena, deps Deps) *KingOfTheHill {
	hills := append([]Vec2(nil), arena.Hills...)
	if len(hills) == 0 {
		hills = []Vec2{arena.Center}
	}
	k := &KingOfTheHill{
		Match:        NewMatch(ModeKingOfTheHill, cfg.TeamSize, cfg.TimeLimit, deps),
		cfg:          cfg,
		arena:        arena,
		deps:         deps,
		respawnQueue: newRespawnQueue(cfg.RespawnDelay),
		hills:        hills,
	}
	k.resetHill()
	return k
}

func (k *KingOfTheHill) resetHill() {
	k.occupants[1] = make(map[ecs.EntityID]struct{})
	k.occupants[2] = make(map[ecs.EntityID]struct{})
	k.state = HillNeutral
	k.controlling = 0
	k.capturing = 0
	k.progress = 0
}

func (k *KingOfTheHill) InitializeMatch(team1, team2 []ecs.EntityID) error {
	if err := k.Match.InitializeMatch(team1, team2); err != nil {
		return err
	}
	k.hillIdx = 0
	k.resetHill()
	k.respawnQueue.clear()
	return nil
}

func (k *KingOfTheHill) StartMatch(now time.Time) error {
	if err := k.Match.StartMatch(now); err != nil {
		return err
	}
	k.lastRotation = now
	k.lastEval = now
	k.lastScoreAt = now
	return nil
}

func (k *KingOfTheHill) CurrentHill() (int, Vec2) { return k.hillIdx, k.hills[k.hillIdx] }
func (k *KingOfTheHill) ControlState() HillState  { return k.state }
func (k *KingOfTheHill) ControllingTeam() int     { return k.controlling }
func (k *KingOfTheHill) CapturingTeam() int       { return k.capturing }

// HillCaptureProgress is the continuous-presence time accrued by the
// capturing team.
func (k *KingOfTheHill) HillCaptureProgress() time.Duration { return k.progress }

// Occupants returns how many players of the team stand on the hill.
func (k *KingOfTheHill) Occupants(team int) int {
	if team != 1 && team != 2 {
		return 0
	}
	return len(k.occupants[team])
}

func (k *KingOfTheHill) EnterHill(player ecs.EntityID, now time.Time) error {
	if k.State() != StateInProgress {
		return ErrNotInProgress
	}
	t := k.TeamOf(player)
	if t == 0 {
		return ErrNotParticipant
	}
	if k.waiting(player) {
		return ErrNotAlive
	}
	k.evaluate(now)
	k.occupants[t][player] = struct{}{}
	k.evaluate(now)
	return nil
}

func (k *KingOfTheHill) ExitHill(player ecs.EntityID, now time.Time) error {
	if k.State() != StateInProgress {
		return ErrNotInProgress
	}
	t := k.TeamOf(player)
	if t == 0 {
		return ErrNotParticipant
	}
	k.evaluate(now)
	delete(k.occupants[t], player)
	k.evaluate(now)
	return nil
}

// RecordDeath takes the victim off the hill and starts their respawn timer.
func (k *KingOfTheHill) RecordDeath(victim ecs.EntityID, now time.Time) error {
	if err := k.ExitHill(victim, now); err != nil {
		return err
	}
	return k.schedule(victim, now)
}

func (k *KingOfTheHill) Tick(now time.Time) {
	if k.State() != StateInProgress {
		return
	}
	k.process(k.Match, k.arena, k.deps, now)
	if k.cfg.RotateInterval > 0 && now.Sub(k.lastRotation) >= k.cfg.RotateInterval {
		k.rotate(now)
	}
	k.evaluate(now)
	k.accrue(now)
	k.evaluateEnd(now, k)
}

// rotate 據點輪替：不論控制狀態，清空佔領資訊並移到下一個位置。
func (k *KingOfTheHill) rotate(now time.Time) {
	k.hillIdx = (k.hillIdx + 1) % len(k.hills)
	k.lastRotation = k.lastRotation.Add(k.cfg.RotateInterval)
	k.lastEval = now
	k.resetHill()
	k.log.Debug("hill rotated", zap.Int("hill", k.hillIdx))
}

// evaluate advances the control state machine by the time elapsed since the
// previous evaluation, using the occupancy that held during that interval.
func (k *KingOfTheHill) evaluate(now time.Time) {
	dt := now.Sub(k.lastEval)
	if dt < 0 {
		dt = 0
	}
	k.lastEval = now

	n1, n2 := len(k.occupants[1]), len(k.occupants[2])
	switch {
	case n1 > 0 && n2 > 0:
		// 雙方都在：進度凍結
		k.state = HillContested

	case n1 > 0 || n2 > 0:
		t := 1
		if n2 > 0 {
			t = 2
		}
		if k.controlling == t {
			k.state = HillControlled
			k.capturing = 0
			k.progress = 0
			return
		}
		if k.capturing != t {
			k.capturing = t
			k.progress = 0
		}
		k.progress += dt
		if k.progress >= k.cfg.CaptureTime {
			k.controlling = t
			k.capturing = 0
			k.progress = 0
			k.state = HillControlled
			k.lastScoreAt = now
			k.log.Info("hill captured", zap.Int("team", t), zap.Int("hill", k.hillIdx))
			return
		}
		k.state = HillCapturing

	default:
		// 無人：進度以相同速率衰減，不低於 0
		k.progress -= dt
		if k.progress <= 0 {
			k.progress = 0
			k.capturing = 0
		}
		switch {
		case k.controlling != 0:
			k.state = HillControlled
		case k.capturing != 0:
			k.state = HillCapturing
		default:
			k.state = HillNeutral
		}
	}
}

// accrue pays the controlling team PointsPerSecond for every full second
// it stands on the hill alone. The scoring clock advances in whole seconds
// so late ticks do not lose time.
func (k *KingOfTheHill) accrue(now time.Time) {
	if k.state != HillControlled || k.controlling == 0 {
		return
	}
	if len(k.occupants[k.controlling]) == 0 {
		k.lastScoreAt = now
		return
	}
	n := 0
	for now.Sub(k.lastScoreAt) >= time.Second {
		k.lastScoreAt = k.lastScoreAt.Add(time.Second)
		n++
	}
	if n > 0 {
		_ = k.UpdateScore(k.controlling, n*k.cfg.PointsPerSecond)
	}
}

func (k *KingOfTheHill) CheckWinCondition() bool {
	if k.cfg.ScoreToWin <= 0 {
		return false
	}
	return k.Score(1) >= k.cfg.ScoreToWin || k.Score(2) >= k.cfg.ScoreToWin
}

func (k *KingOfTheHill) RuleWinner() int { return k.Leader() }
