package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntityPool_NeverIssuesZero(t *testing.T) {
	p := NewEntityPool()
	id := p.Create()
	assert.False(t, id.IsZero())
	assert.True(t, p.Alive(id))
	assert.False(t, p.Alive(0))
}

func TestEntityPool_DestroyInvalidatesStaleID(t *testing.T) {
	p := NewEntityPool()
	a := p.Create()
	p.Destroy(a)
	assert.False(t, p.Alive(a))

	b := p.Create()
	assert.Equal(t, a.Index(), b.Index(), "slot is reused")
	assert.Equal(t, a.Generation()+1, b.Generation())
	assert.True(t, p.Alive(b))

	p.Destroy(a) // stale, must not free b
	assert.True(t, p.Alive(b))
}

func TestStore_IDsSorted(t *testing.T) {
	s := NewStore[int]()
	for _, id := range []EntityID{9, 3, 5} {
		v := int(id)
		s.Set(id, &v)
	}
	assert.Equal(t, []EntityID{3, 5, 9}, s.IDs())

	var seen []EntityID
	s.Each(func(id EntityID, _ *int) { seen = append(seen, id) })
	assert.Equal(t, []EntityID{3, 5, 9}, seen)
}

func TestWorld_FlushRemovesFromStores(t *testing.T) {
	w := NewWorld()
	s := NewStore[string]()
	w.Register(s)

	id := w.CreateEntity()
	v := "match"
	s.Set(id, &v)

	w.MarkForDestruction(id)
	w.MarkForDestruction(id)
	assert.Equal(t, 2, w.PendingDestroy())
	assert.True(t, s.Has(id), "nothing happens before flush")

	n := w.FlushDestroyQueue()
	require.Equal(t, 1, n)
	assert.False(t, s.Has(id))
	assert.False(t, w.Alive(id))
	assert.Equal(t, 0, w.PendingDestroy())
}
