package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/darklegend/server/internal/reset"
)

// ProgressStore keeps reset records as JSON strings under
// prefix+reset.HandleKey(handle).
type ProgressStore struct {
	kv     KV
	prefix string
	ttl    time.Duration
}

func NewProgressStore(kv KV, prefix string, ttl time.Duration) *ProgressStore {
	return &ProgressStore{kv: kv, prefix: prefix, ttl: ttl}
}

func (s *ProgressStore) key(handle string) string { return s.prefix + reset.HandleKey(handle) }

func (s *ProgressStore) Load(ctx context.Context, handle string) (reset.Record, error) {
	raw, err := s.kv.Get(ctx, s.key(handle))
	if errors.Is(err, ErrNotFound) {
		return reset.Record{}, reset.ErrNotFound
	}
	if err != nil {
		return reset.Record{}, fmt.Errorf("load progress %s: %w", handle, err)
	}
	return reset.UnmarshalRecord([]byte(raw))
}

func (s *ProgressStore) Save(ctx context.Context, rec reset.Record) error {
	b, err := reset.MarshalRecord(rec)
	if err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key(rec.Handle), string(b), s.ttl); err != nil {
		return fmt.Errorf("save progress %s: %w", rec.Handle, err)
	}
	return nil
}
