package world

import (
	"fmt"

	"github.com/darklegend/server/internal/battleground"
	"github.com/darklegend/server/internal/core/ecs"
	"github.com/darklegend/server/internal/effect"
	"github.com/darklegend/server/internal/reset"
)

// PlayerInfo holds in-memory data for a player currently in-world.
// Accessed only from the game loop goroutine, no locks.
type PlayerInfo struct {
	ID      ecs.EntityID
	Char    *reset.Character
	Body    *effect.Target // live combat stats and position
	Effects *effect.Set
	Dead    bool
}

func (p *PlayerInfo) Handle() string { return p.Char.Handle }

// State is the registry of online players and ground loot. Player and loot
// ids come from the shared ecs world so removal goes through its deferred
// destroy queue.
type State struct {
	ecs      *ecs.World
	players  *ecs.Store[PlayerInfo]
	ground   *ecs.Store[GroundLoot]
	byHandle map[string]ecs.EntityID
}

func NewState(w *ecs.World) *State {
	s := &State{
		ecs:      w,
		players:  ecs.NewStore[PlayerInfo](),
		ground:   ecs.NewStore[GroundLoot](),
		byHandle: make(map[string]ecs.EntityID),
	}
	w.Register(s.players)
	w.Register(s.ground)
	return s
}

// AddPlayer brings a character in-world. Its live body starts from the
// character's effective combat block at full HP/MP.
func (s *State) AddPlayer(c *reset.Character, moveSpeed float64) (*PlayerInfo, error) {
	k := reset.HandleKey(c.Handle)
	if k == "" {
		return nil, fmt.Errorf("add player: empty handle")
	}
	if _, dup := s.byHandle[k]; dup {
		return nil, fmt.Errorf("add player %s: already online", c.Handle)
	}
	cb := c.EffectiveCombat()
	body := &effect.Target{
		Attack:    cb.Damage,
		Defense:   cb.Defense,
		MaxHP:     cb.MaxHP,
		HP:        cb.MaxHP,
		MP:        cb.MaxMP,
		MoveSpeed: moveSpeed,
	}
	p := &PlayerInfo{
		ID:      s.ecs.CreateEntity(),
		Char:    c,
		Body:    body,
		Effects: effect.NewSet(body),
	}
	s.players.Set(p.ID, p)
	s.byHandle[k] = p.ID
	return p, nil
}

// RemovePlayer takes a player offline. The entity is destroyed at the end
// of the tick; the record stays readable until then.
func (s *State) RemovePlayer(id ecs.EntityID) *PlayerInfo {
	p, ok := s.players.Get(id)
	if !ok {
		return nil
	}
	delete(s.byHandle, reset.HandleKey(p.Char.Handle))
	s.ecs.MarkForDestruction(id)
	return p
}

func (s *State) Get(id ecs.EntityID) *PlayerInfo {
	p, _ := s.players.Get(id)
	return p
}

func (s *State) GetByHandle(handle string) *PlayerInfo {
	id, ok := s.byHandle[reset.HandleKey(handle)]
	if !ok {
		return nil
	}
	return s.Get(id)
}

func (s *State) PlayerCount() int { return len(s.byHandle) }

// AllPlayers iterates online players in id order.
func (s *State) AllPlayers(fn func(*PlayerInfo)) {
	s.players.Each(func(id ecs.EntityID, p *PlayerInfo) {
		if s.byHandle[reset.HandleKey(p.Char.Handle)] == id {
			fn(p)
		}
	})
}

// ── battleground.Host ──

// Relocate moves a player; a dead player is revived at the new spot.
func (s *State) Relocate(id ecs.EntityID, to battleground.Vec2) {
	if p := s.Get(id); p != nil {
		p.Body.Position = to
		s.Revive(id)
	}
}

// Revive brings a dead player back at full HP where they fell. False if
// the player is unknown or alive.
func (s *State) Revive(id ecs.EntityID) bool {
	p := s.Get(id)
	if p == nil || !p.Dead {
		return false
	}
	p.Dead = false
	p.Body.HP = p.Body.MaxHP
	return true
}

func (s *State) Position(id ecs.EntityID) (battleground.Vec2, bool) {
	p := s.Get(id)
	if p == nil || p.Dead {
		return battleground.Vec2{}, false
	}
	return p.Body.Position, true
}

func (s *State) ApplyDamage(id ecs.EntityID, amount int) {
	p := s.Get(id)
	if p == nil || p.Dead {
		return
	}
	p.Body.HP -= amount
	if p.Body.HP < 0 {
		p.Body.HP = 0
	}
}

// Host bundles the state as every battleground collaborator.
func (s *State) Host() battleground.Host {
	return battleground.Host{Mover: s, Locator: s, Damager: s, Loot: s}
}
