package battleground

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/darklegend/server/internal/core/ecs"
	"github.com/darklegend/server/internal/core/event"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
)

// ModeSpec registers a mode with the manager. New must return a fresh mode
// in Waiting each call.
type ModeSpec struct {
	Name       string
	MinPlayers int
	TeamSize   int // players per team; 0 = take the whole queue
	New        func() Mode
}

type activeMatch struct {
	mode      Mode
	completed bool
	disposed  bool
	disposeAt time.Time
}

// Manager 戰場管理：依模式名稱維護排隊，湊滿人數後交替分隊開局，
// 結束後經過緩衝時間丟棄對戰物件。
type Manager struct {
	world   *ecs.World
	matches *ecs.Store[activeMatch]

	specs   map[string]*ModeSpec
	queues  map[string][]ecs.EntityID
	queued  map[ecs.EntityID]string
	inMatch map[ecs.EntityID]ecs.EntityID

	grace time.Duration
	fold  cases.Caser
	bus   *event.Bus
	log   *zap.Logger
}

func NewManager(world *ecs.World, grace time.Duration, bus *event.Bus, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	m := &Manager{
		world:   world,
		matches: ecs.NewStore[activeMatch](),
		specs:   make(map[string]*ModeSpec),
		queues:  make(map[string][]ecs.EntityID),
		queued:  make(map[ecs.EntityID]string),
		inMatch: make(map[ecs.EntityID]ecs.EntityID),
		grace:   grace,
		fold:    cases.Fold(),
		bus:     bus,
		log:     log,
	}
	world.Register(m.matches)
	event.Subscribe(bus, m.onMatchEnded)
	return m
}

func (m *Manager) key(name string) string {
	return m.fold.String(strings.TrimSpace(name))
}

// RegisterMode adds a mode. Names are matched case-insensitively.
func (m *Manager) RegisterMode(spec ModeSpec) error {
	k := m.key(spec.Name)
	if k == "" || spec.New == nil {
		return fmt.Errorf("register mode %q: name and factory required", spec.Name)
	}
	if _, dup := m.specs[k]; dup {
		return fmt.Errorf("register mode %q: already registered", spec.Name)
	}
	if spec.MinPlayers < 1 {
		spec.MinPlayers = 1
	}
	m.specs[k] = &spec
	return nil
}

// Modes returns the registered mode keys in sorted order.
func (m *Manager) Modes() []string {
	out := make([]string, 0, len(m.specs))
	for k := range m.specs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (m *Manager) Join(mode string, player ecs.EntityID) error {
	k := m.key(mode)
	if _, ok := m.specs[k]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	if q, ok := m.queued[player]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyQueued, q)
	}
	if id, ok := m.inMatch[player]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyInMatch, id)
	}
	m.queues[k] = append(m.queues[k], player)
	m.queued[player] = k
	return nil
}

func (m *Manager) Leave(player ecs.EntityID) error {
	k, ok := m.queued[player]
	if !ok {
		return ErrNotQueued
	}
	q := m.queues[k]
	for i, p := range q {
		if p == player {
			m.queues[k] = append(q[:i], q[i+1:]...)
			break
		}
	}
	delete(m.queued, player)
	return nil
}

func (m *Manager) QueueLength(mode string) int { return len(m.queues[m.key(mode)]) }

// Get returns a live or lingering match by id.
func (m *Manager) Get(id ecs.EntityID) (Mode, bool) {
	am, ok := m.matches.Get(id)
	if !ok {
		return nil, false
	}
	return am.mode, true
}

// Active returns the ids of all matches not yet discarded, in id order.
func (m *Manager) Active() []ecs.EntityID { return m.matches.IDs() }

// PlayerMatch returns the match a player is fighting in.
func (m *Manager) PlayerMatch(player ecs.EntityID) (ecs.EntityID, bool) {
	id, ok := m.inMatch[player]
	return id, ok
}

// Tick forms matches from full queues, ticks every running match and queues
// finished matches for destruction once their grace period is over.
func (m *Manager) Tick(now time.Time) {
	for _, k := range m.Modes() {
		m.formMatches(k, now)
	}

	m.matches.Each(func(id ecs.EntityID, am *activeMatch) {
		if am.mode.Base().State() == StateInProgress {
			am.mode.Tick(now)
		}
		if am.completed && !am.disposed && !now.Before(am.disposeAt) {
			am.disposed = true
			if d, ok := am.mode.(Disposer); ok {
				d.Dispose()
			}
			m.world.MarkForDestruction(id)
		}
	})
}

func (m *Manager) formMatches(k string, now time.Time) {
	spec := m.specs[k]
	for len(m.queues[k]) >= spec.MinPlayers {
		q := m.queues[k]
		n := len(q)
		if spec.TeamSize > 0 && n > spec.TeamSize*2 {
			n = spec.TeamSize * 2
		}
		players := append([]ecs.EntityID(nil), q[:n]...)
		m.queues[k] = q[n:]
		for _, p := range players {
			delete(m.queued, p)
		}
		if err := m.startMatch(spec, players, now); err != nil {
			m.log.Error("battleground start failed", zap.String("mode", spec.Name), zap.Error(err))
			return
		}
	}
}

// SplitTeams assigns even queue positions to team 1 and odd ones to team 2.
func SplitTeams(players []ecs.EntityID) (team1, team2 []ecs.EntityID) {
	team1 = make([]ecs.EntityID, 0, (len(players)+1)/2)
	team2 = make([]ecs.EntityID, 0, len(players)/2)
	for i, p := range players {
		if i%2 == 0 {
			team1 = append(team1, p)
		} else {
			team2 = append(team2, p)
		}
	}
	return team1, team2
}

func (m *Manager) startMatch(spec *ModeSpec, players []ecs.EntityID, now time.Time) error {
	mode := spec.New()
	base := mode.Base()
	id := m.world.CreateEntity()
	base.ID = id
	base.SessionID = uuid.NewString()

	t1, t2 := SplitTeams(players)
	if err := mode.InitializeMatch(t1, t2); err != nil {
		m.world.MarkForDestruction(id)
		return fmt.Errorf("initialize: %w", err)
	}
	m.matches.Set(id, &activeMatch{mode: mode})
	for _, p := range players {
		m.inMatch[p] = id
	}
	if err := mode.StartMatch(now); err != nil {
		m.release(id, base)
		m.world.MarkForDestruction(id)
		return fmt.Errorf("start: %w", err)
	}
	return nil
}

func (m *Manager) onMatchEnded(ev event.MatchEnded) {
	am, ok := m.matches.Get(ev.MatchID)
	if !ok || am.completed {
		return
	}
	am.completed = true
	am.disposeAt = ev.At.Add(m.grace)
	m.release(ev.MatchID, am.mode.Base())

	event.Publish(m.bus, event.MatchCompleted{
		MatchID:   ev.MatchID,
		SessionID: ev.SessionID,
		Mode:      ev.Mode,
		Winner:    ev.Winner,
		DisposeAt: am.disposeAt,
	})
}

func (m *Manager) release(id ecs.EntityID, base *Match) {
	for _, p := range base.Players() {
		if m.inMatch[p] == id {
			delete(m.inMatch, p)
		}
	}
}
