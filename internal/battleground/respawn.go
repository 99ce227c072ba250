package battleground

import (
	"sort"
	"time"

	"github.com/darklegend/server/internal/core/ecs"
	"go.uber.org/zap"
)

// Respawner is implemented by modes that bring dead players back at their
// team's spawn after a delay.
type Respawner interface {
	// RecordDeath schedules the victim's respawn without scoring anything.
	RecordDeath(victim ecs.EntityID, now time.Time) error
	RespawnAt(player ecs.EntityID) (time.Time, bool)
}

// respawnQueue 死亡玩家的復活排程。
type respawnQueue struct {
	delay time.Duration
	at    map[ecs.EntityID]time.Time
}

func newRespawnQueue(delay time.Duration) respawnQueue {
	return respawnQueue{delay: delay, at: make(map[ecs.EntityID]time.Time)}
}

func (q *respawnQueue) clear() { q.at = make(map[ecs.EntityID]time.Time) }

// schedule records a death. A player already waiting is rejected.
func (q *respawnQueue) schedule(p ecs.EntityID, now time.Time) error {
	if _, dead := q.at[p]; dead {
		return ErrNotAlive
	}
	q.at[p] = now.Add(q.delay)
	return nil
}

func (q *respawnQueue) waiting(p ecs.EntityID) bool {
	_, ok := q.at[p]
	return ok
}

func (q *respawnQueue) RespawnAt(p ecs.EntityID) (time.Time, bool) {
	t, ok := q.at[p]
	return t, ok
}

// PendingRespawns returns how many players are waiting to respawn.
func (q *respawnQueue) PendingRespawns() int { return len(q.at) }

// process 把復活時間已到的玩家移到己方重生點（依 id 排序以保持可重現）。
func (q *respawnQueue) process(m *Match, arena Arena, deps Deps, now time.Time) {
	if len(q.at) == 0 {
		return
	}
	due := make([]ecs.EntityID, 0, len(q.at))
	for p, at := range q.at {
		if !now.Before(at) {
			due = append(due, p)
		}
	}
	sort.Slice(due, func(i, j int) bool { return due[i] < due[j] })

	rng := deps.rng()
	for _, p := range due {
		delete(q.at, p)
		pos, ok := pickPoint(rng, arena.spawns(m.TeamOf(p)))
		if !ok {
			m.log.Warn("arena has no spawn points",
				zap.String("mode", m.Name()),
				zap.Int("team", m.TeamOf(p)),
			)
			continue
		}
		deps.Host.relocate(p, pos)
	}
}
