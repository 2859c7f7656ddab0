package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/desking/internal/desk"
	"github.com/iwvelando/desking/pkg/documents"
	"github.com/iwvelando/desking/pkg/validation"
)

// ErrSnapshotNotFound is returned for unknown or expired snapshot IDs.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotStore hands pencil snapshots from the desk to the print view.
type SnapshotStore struct {
	cache desk.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewSnapshotStore keeps snapshots in cache for ttl.
func NewSnapshotStore(cache desk.Cache, ttl time.Duration) *SnapshotStore {
	if cache == nil {
		cache = desk.NewMemoryCache()
	}
	return &SnapshotStore{cache: cache, ttl: ttl, now: time.Now}
}

func snapshotKey(id string) string {
	return "snapshot:" + id
}

// Save stores p under a new ID, stamping SavedAt when it is unset.
func (s *SnapshotStore) Save(ctx context.Context, p documents.Pencil) (string, documents.Pencil, error) {
	if p.SavedAt.IsZero() {
		p.SavedAt = s.now()
	}
	encoded, err := json.Marshal(p)
	if err != nil {
		return "", p, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	id := uuid.NewString()
	if err := s.cache.Set(ctx, snapshotKey(id), string(encoded), s.ttl); err != nil {
		return "", p, fmt.Errorf("failed to store snapshot: %w", err)
	}
	return id, p, nil
}

// Load returns the snapshot saved under id.
func (s *SnapshotStore) Load(ctx context.Context, id string) (documents.Pencil, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return documents.Pencil{}, validation.Invalid("snapshot id %q is not valid", id)
	}

	value, ok, err := s.cache.Get(ctx, snapshotKey(parsed.String()))
	if err != nil {
		return documents.Pencil{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if !ok {
		return documents.Pencil{}, ErrSnapshotNotFound
	}

	var p documents.Pencil
	if err := json.Unmarshal([]byte(value), &p); err != nil {
		return documents.Pencil{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return p, nil
}
