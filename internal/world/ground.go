package world

import (
	"github.com/darklegend/server/internal/battleground"
	"github.com/darklegend/server/internal/core/ecs"
)

// GroundLoot is a loot object lying in an arena. Not persisted; exists
// only in memory.
type GroundLoot struct {
	ID       ecs.EntityID
	Owner    ecs.EntityID // match that spawned it
	Position battleground.Vec2
}

// SpawnLoot implements battleground.LootSpawner.
func (s *State) SpawnLoot(owner ecs.EntityID, at battleground.Vec2) {
	id := s.ecs.CreateEntity()
	s.ground.Set(id, &GroundLoot{ID: id, Owner: owner, Position: at})
}

// PickupLoot removes a loot object; false if it is already gone.
func (s *State) PickupLoot(id ecs.EntityID) bool {
	if !s.ground.Has(id) {
		return false
	}
	s.ground.Remove(id)
	s.ecs.MarkForDestruction(id)
	return true
}

func (s *State) GroundLootCount() int { return s.ground.Len() }

// ClearLoot removes every loot object a match spawned. Implements
// battleground.LootSpawner.
func (s *State) ClearLoot(owner ecs.EntityID) int {
	n := 0
	for _, id := range s.ground.IDs() {
		if l, _ := s.ground.Get(id); l.Owner == owner && s.PickupLoot(id) {
			n++
		}
	}
	return n
}
