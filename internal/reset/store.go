package reset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrNotFound = errors.New("reset: progress record not found")

// HandleKey is the storage key for a character handle. Handles are
// case-insensitive everywhere a character is looked up.
func HandleKey(h string) string { return strings.ToLower(h) }

// Store persists progression records keyed by HandleKey(handle).
type Store interface {
	Load(ctx context.Context, handle string) (Record, error)
	Save(ctx context.Context, rec Record) error
}

// MarshalRecord encodes a record as the JSON blob every backend stores.
func MarshalRecord(rec Record) ([]byte, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal progress %s: %w", rec.Handle, err)
	}
	return b, nil
}

func UnmarshalRecord(b []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(b, &rec); err != nil {
		return Record{}, fmt.Errorf("unmarshal progress: %w", err)
	}
	rec.Progress.normalize()
	return rec, nil
}
