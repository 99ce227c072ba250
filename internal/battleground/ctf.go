package battleground

import (
	"fmt"
	"time"

	"github.com/darklegend/server/internal/config"
	"github.com/darklegend/server/internal/core/ecs"
	"go.uber.org/zap"
)

const ModeCaptureFlag = "capture_the_flag"

type FlagState int

const (
	FlagAtBase FlagState = iota
	FlagCarried
	FlagDropped
)

func (s FlagState) String() string {
	switch s {
	case FlagAtBase:
		return "at_base"
	case FlagCarried:
		return "carried"
	case FlagDropped:
		return "dropped"
	}
	return fmt.Sprintf("flag(%d)", int(s))
}

// Flag belongs to Team. Carrier is set only while Carried; DroppedAt only
// while Dropped.
type Flag struct {
	Team      int
	State     FlagState
	Carrier   ecs.EntityID
	Position  Vec2
	Base      Vec2
	DroppedAt time.Time
}

func (f *Flag) reset() {
	f.State = FlagAtBase
	f.Carrier = 0
	f.Position = f.Base
	f.DroppedAt = time.Time{}
}

// CaptureTheFlag 奪旗：持敵方旗且己方旗在基地時才能得分。
type CaptureTheFlag struct {
	*Match
	cfg   config.CaptureFlagConfig
	arena Arena
	deps  Deps
	respawnQueue

	flags    [3]*Flag
	captures [3]int
}

func NewCaptureTheFlag(cfg config.CaptureFlagConfig, arena Arena, deps Deps) *CaptureTheFlag {
	c := &CaptureTheFlag{
		Match:        NewMatch(ModeCaptureFlag, cfg.TeamSize, cfg.TimeLimit, deps),
		cfg:          cfg,
		arena:        arena,
		deps:         deps,
		respawnQueue: newRespawnQueue(cfg.RespawnDelay),
	}
	c.flags[1] = &Flag{Team: 1, Base: arena.Flag1Base}
	c.flags[2] = &Flag{Team: 2, Base: arena.Flag2Base}
	c.flags[1].reset()
	c.flags[2].reset()
	return c
}

func (c *CaptureTheFlag) InitializeMatch(team1, team2 []ecs.EntityID) error {
	if err := c.Match.InitializeMatch(team1, team2); err != nil {
		return err
	}
	c.flags[1].reset()
	c.flags[2].reset()
	c.captures = [3]int{}
	c.respawnQueue.clear()
	return nil
}

// Flag returns a copy of the team's flag.
func (c *CaptureTheFlag) Flag(team int) (Flag, bool) {
	if team != 1 && team != 2 {
		return Flag{}, false
	}
	return *c.flags[team], true
}

func (c *CaptureTheFlag) Captures(team int) int {
	if team != 1 && team != 2 {
		return 0
	}
	return c.captures[team]
}

// PickupFlag lets an opposing player take a flag that is at base or dropped.
func (c *CaptureTheFlag) PickupFlag(player ecs.EntityID, flagTeam int, now time.Time) error {
	if c.State() != StateInProgress {
		return ErrNotInProgress
	}
	pt := c.TeamOf(player)
	if pt == 0 {
		return ErrNotParticipant
	}
	if flagTeam != 1 && flagTeam != 2 {
		return fmt.Errorf("%w: %d", ErrUnknownTeam, flagTeam)
	}
	if pt == flagTeam {
		return fmt.Errorf("%w: cannot carry own flag", ErrIllegalFlagAction)
	}
	if c.waiting(player) {
		return ErrNotAlive
	}
	f := c.flags[flagTeam]
	if f.State == FlagCarried {
		return fmt.Errorf("%w: flag already carried", ErrIllegalFlagAction)
	}
	f.State = FlagCarried
	f.Carrier = player
	f.DroppedAt = time.Time{}
	c.log.Debug("flag picked up", zap.Int("flag", flagTeam), zap.Stringer("player", player))
	return nil
}

// DropFlag drops whatever flag the player carries at the given spot. Used
// for voluntary drops as well as carrier death.
func (c *CaptureTheFlag) DropFlag(player ecs.EntityID, at Vec2, now time.Time) error {
	if c.State() != StateInProgress {
		return ErrNotInProgress
	}
	f := c.carriedBy(player)
	if f == nil {
		return fmt.Errorf("%w: not carrying a flag", ErrIllegalFlagAction)
	}
	f.State = FlagDropped
	f.Carrier = 0
	f.Position = at
	f.DroppedAt = now
	return nil
}

// ReturnFlag sends a dropped flag home when a defender touches it.
func (c *CaptureTheFlag) ReturnFlag(player ecs.EntityID, now time.Time) error {
	if c.State() != StateInProgress {
		return ErrNotInProgress
	}
	pt := c.TeamOf(player)
	if pt == 0 {
		return ErrNotParticipant
	}
	if c.waiting(player) {
		return ErrNotAlive
	}
	f := c.flags[pt]
	if f.State != FlagDropped {
		return fmt.Errorf("%w: own flag is %s", ErrIllegalFlagAction, f.State)
	}
	f.reset()
	return nil
}

// CaptureFlag scores when the player carries the enemy flag and their own
// flag is at base, both at the moment of the call.
func (c *CaptureTheFlag) CaptureFlag(player ecs.EntityID, now time.Time) error {
	if c.State() != StateInProgress {
		return ErrNotInProgress
	}
	pt := c.TeamOf(player)
	if pt == 0 {
		return ErrNotParticipant
	}
	enemy := c.flags[otherTeam(pt)]
	if enemy.State != FlagCarried || enemy.Carrier != player {
		return fmt.Errorf("%w: not carrying enemy flag", ErrIllegalFlagAction)
	}
	if own := c.flags[pt]; own.State != FlagAtBase {
		return fmt.Errorf("%w: own flag is %s", ErrIllegalFlagAction, own.State)
	}

	c.captures[pt]++
	enemy.reset()
	c.log.Info("flag captured", zap.Int("team", pt), zap.Int("captures", c.captures[pt]))
	return c.UpdateScore(pt, 1)
}

func (c *CaptureTheFlag) carriedBy(player ecs.EntityID) *Flag {
	for _, f := range c.flags[1:] {
		if f.State == FlagCarried && f.Carrier == player {
			return f
		}
	}
	return nil
}

// Carrying returns the team whose flag player holds, 0 if none.
func (c *CaptureTheFlag) Carrying(player ecs.EntityID) int {
	if f := c.carriedBy(player); f != nil {
		return f.Team
	}
	return 0
}

// RecordDeath starts the victim's respawn timer. A flag still on the dead
// carrier goes back to its base; drop it first with DropFlag to leave it
// where the carrier fell.
func (c *CaptureTheFlag) RecordDeath(victim ecs.EntityID, now time.Time) error {
	if c.State() != StateInProgress {
		return ErrNotInProgress
	}
	if c.TeamOf(victim) == 0 {
		return ErrNotParticipant
	}
	if err := c.schedule(victim, now); err != nil {
		return err
	}
	if f := c.carriedBy(victim); f != nil {
		f.reset()
		c.log.Debug("dead carrier's flag returned", zap.Int("flag", f.Team))
	}
	return nil
}

func (c *CaptureTheFlag) Tick(now time.Time) {
	if c.State() != StateInProgress {
		return
	}
	c.process(c.Match, c.arena, c.deps, now)
	// 掉落超過時限的旗子自動回基地
	for _, f := range c.flags[1:] {
		if f.State == FlagDropped && now.Sub(f.DroppedAt) >= c.cfg.FlagReturnTime {
			f.reset()
			c.log.Debug("dropped flag returned", zap.Int("flag", f.Team))
		}
	}
	c.evaluateEnd(now, c)
}

func (c *CaptureTheFlag) CheckWinCondition() bool {
	if c.cfg.CapturesToWin <= 0 {
		return false
	}
	return c.captures[1] >= c.cfg.CapturesToWin || c.captures[2] >= c.cfg.CapturesToWin
}

func (c *CaptureTheFlag) RuleWinner() int { return c.Leader() }
