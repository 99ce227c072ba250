package battleground

import (
	"time"

	"github.com/darklegend/server/internal/config"
	"github.com/darklegend/server/internal/core/ecs"
)

const ModeDeathmatch = "team_deathmatch"

// Deathmatch 團隊死鬥：擊殺數先達門檻的隊伍獲勝。
type Deathmatch struct {
	*Match
	cfg   config.DeathmatchConfig
	arena Arena
	deps  Deps

	respawnQueue
	kills int
}

func NewDeathmatch(cfg config.DeathmatchConfig, arena Arena, deps Deps) *Deathmatch {
	return &Deathmatch{
		Match:        NewMatch(ModeDeathmatch, cfg.TeamSize, cfg.TimeLimit, deps),
		cfg:          cfg,
		arena:        arena,
		deps:         deps,
		respawnQueue: newRespawnQueue(cfg.RespawnDelay),
	}
}

func (d *Deathmatch) InitializeMatch(team1, team2 []ecs.EntityID) error {
	if err := d.Match.InitializeMatch(team1, team2); err != nil {
		return err
	}
	d.kills = 0
	d.respawnQueue.clear()
	return nil
}

// RecordKill credits the killer's team and starts the victim's respawn
// timer. Assisting teammates add PointsPerAssist each. A victim already
// waiting to respawn cannot be killed again.
func (d *Deathmatch) RecordKill(killer, victim ecs.EntityID, assists []ecs.EntityID, now time.Time) error {
	if d.State() != StateInProgress {
		return ErrNotInProgress
	}
	kt, vt := d.TeamOf(killer), d.TeamOf(victim)
	if kt == 0 || vt == 0 {
		return ErrNotParticipant
	}
	if kt == vt {
		return ErrFriendlyFire
	}
	if d.waiting(victim) {
		return ErrNotAlive
	}

	d.kills++
	if err := d.UpdateScore(kt, d.cfg.PointsPerKill); err != nil {
		return err
	}
	if d.cfg.PointsPerAssist != 0 {
		for _, a := range assists {
			if a == killer || d.TeamOf(a) != kt {
				continue
			}
			if err := d.UpdateScore(kt, d.cfg.PointsPerAssist); err != nil {
				return err
			}
		}
	}
	return d.schedule(victim, now)
}

// RecordDeath handles a death nobody gets credit for (DoT, environment):
// the respawn timer starts, no score changes.
func (d *Deathmatch) RecordDeath(victim ecs.EntityID, now time.Time) error {
	if d.State() != StateInProgress {
		return ErrNotInProgress
	}
	if d.TeamOf(victim) == 0 {
		return ErrNotParticipant
	}
	return d.schedule(victim, now)
}

// Kills returns the number of recorded kills.
func (d *Deathmatch) Kills() int { return d.kills }

func (d *Deathmatch) Tick(now time.Time) {
	if d.State() != StateInProgress {
		return
	}
	d.process(d.Match, d.arena, d.deps, now)
	d.evaluateEnd(now, d)
}

func (d *Deathmatch) CheckWinCondition() bool {
	if d.cfg.KillsToWin <= 0 {
		return false
	}
	return d.Score(1) >= d.cfg.KillsToWin || d.Score(2) >= d.cfg.KillsToWin
}

func (d *Deathmatch) RuleWinner() int { return d.Leader() }
