package battleground

import (
	"math/rand"
	"time"

	"github.com/darklegend/server/internal/core/ecs"
	"github.com/darklegend/server/internal/core/event"
	"go.uber.org/zap"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time { return t0.Add(d) }

type fakeHost struct {
	moves  map[ecs.EntityID][]Vec2
	pos    map[ecs.EntityID]Vec2
	damage map[ecs.EntityID]int
	loot   []Vec2
	owners []ecs.EntityID
	onHurt func(p ecs.EntityID, total int)
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		moves:  make(map[ecs.EntityID][]Vec2),
		pos:    make(map[ecs.EntityID]Vec2),
		damage: make(map[ecs.EntityID]int),
	}
}

func (h *fakeHost) Relocate(p ecs.EntityID, to Vec2) {
	h.moves[p] = append(h.moves[p], to)
	h.pos[p] = to
}

func (h *fakeHost) Position(p ecs.EntityID) (Vec2, bool) {
	v, ok := h.pos[p]
	return v, ok
}

func (h *fakeHost) ApplyDamage(p ecs.EntityID, amount int) {
	h.damage[p] += amount
	if h.onHurt != nil {
		h.onHurt(p, h.damage[p])
	}
}

func (h *fakeHost) SpawnLoot(owner ecs.EntityID, at Vec2) {
	h.loot = append(h.loot, at)
	h.owners = append(h.owners, owner)
}

func (h *fakeHost) ClearLoot(owner ecs.EntityID) int {
	loot, owners := h.loot[:0], h.owners[:0]
	for i, o := range h.owners {
		if o != owner {
			loot = append(loot, h.loot[i])
			owners = append(owners, o)
		}
	}
	n := len(h.loot) - len(loot)
	h.loot, h.owners = loot, owners
	return n
}

func (h *fakeHost) host() Host {
	return Host{Mover: h, Locator: h, Damager: h, Loot: h}
}

func testDeps(bus *event.Bus, h *fakeHost) Deps {
	d := Deps{Bus: bus, Log: zap.NewNop(), Rand: rand.New(rand.NewSource(7))}
	if h != nil {
		d.Host = h.host()
	}
	return d
}

func ids(n ...uint32) []ecs.EntityID {
	out := make([]ecs.EntityID, len(n))
	for i, v := range n {
		out[i] = ecs.NewEntityID(v, 0)
	}
	return out
}

var testArena = Arena{
	Name:        "valley",
	Center:      Vec2{X: 0, Y: 0},
	Team1Spawns: []Vec2{{X: -100, Y: 0}, {X: -100, Y: 10}},
	Team2Spawns: []Vec2{{X: 100, Y: 0}, {X: 100, Y: 10}},
	Flag1Base:   Vec2{X: -120, Y: 0},
	Flag2Base:   Vec2{X: 120, Y: 0},
	Hills:       []Vec2{{X: 0, Y: 0}, {X: 0, Y: 50}, {X: 0, Y: -50}},
}
