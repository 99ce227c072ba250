package cache

import (
	"context"
	"testing"
	"time"

	"github.com/darklegend/server/internal/config"
	"github.com/darklegend/server/internal/reset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalKV_Basic(t *testing.T) {
	ctx := context.Background()
	c := NewLocal()

	_, err := c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, c.Del(ctx, "k"))
	ok, _ = c.Exists(ctx, "k")
	assert.False(t, ok)
}

func TestLocalKV_Expiry(t *testing.T) {
	ctx := context.Background()
	c := NewLocal()
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	clock = clock.Add(59 * time.Second)
	_, err := c.Get(ctx, "k")
	require.NoError(t, err)

	clock = clock.Add(2 * time.Second)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNew_WithoutRedisIsLocal(t *testing.T) {
	kv, err := New(config.CacheConfig{}, zap.NewNop())
	require.NoError(t, err)
	_, ok := kv.(*LocalKV)
	assert.True(t, ok)
	assert.NoError(t, kv.Close())
}

func TestProgressStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewProgressStore(NewLocal(), "darklegend:progress:", 0)

	_, err := s.Load(ctx, "hero")
	assert.ErrorIs(t, err, reset.ErrNotFound)

	c := reset.NewCharacter("hero", 400, 10_000_000)
	sys := reset.NewSystem(config.Defaults().Reset, nil, nil, zap.NewNop())
	require.NoError(t, sys.PerformNormalReset(c, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))

	require.NoError(t, s.Save(ctx, c.Snapshot()))
	rec, err := s.Load(ctx, "hero")
	require.NoError(t, err)
	assert.Equal(t, c.Snapshot(), rec)

	raw, err := s.kv.Get(ctx, "darklegend:progress:hero")
	require.NoError(t, err)
	assert.Contains(t, raw, `"normal_resets":1`)
}

func TestProgressStore_HandleIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	s := NewProgressStore(NewLocal(), "p:", 0)

	c := reset.NewCharacter("Aria", 400, 0)
	require.NoError(t, s.Save(ctx, c.Snapshot()))

	for _, h := range []string{"aria", "ARIA", "Aria"} {
		rec, err := s.Load(ctx, h)
		require.NoError(t, err, h)
		assert.Equal(t, "Aria", rec.Handle, "display case kept in the record")
	}
	_, err := s.kv.Get(ctx, "p:aria")
	assert.NoError(t, err)
	_, err = s.kv.Get(ctx, "p:Aria")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProgressStore_CorruptRecord(t *testing.T) {
	ctx := context.Background()
	kv := NewLocal()
	require.NoError(t, kv.Set(ctx, "p:x", "{not json", 0))
	_, err := NewProgressStore(kv, "p:", 0).Load(ctx, "x")
	assert.Error(t, err)
}
