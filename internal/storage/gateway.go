package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"minibudget/internal/core"
)

// DefaultKey holds the movement collection. The version suffix allows a
// future shape change to move to a new key with an explicit migration.
const DefaultKey = "mini_budget_movements_v1"

// Gateway loads and saves the complete movement collection.
type Gateway struct {
	blobs BlobStore
	key   string
}

func NewGateway(blobs BlobStore, key string) *Gateway {
	if strings.TrimSpace(key) == "" {
		key = DefaultKey
	}
	return &Gateway{blobs: blobs, key: key}
}

// Key returns the storage key the collection lives under.
func (g *Gateway) Key() string { return g.key }

// Load reads the stored collection.
//
// A missing blob is an empty ledger. A blob that is not a JSON array is
// treated as corrupt and also yields an empty ledger. Array entries that
// fail to decode or validate are dropped. Only backend read failures are
// returned as errors.
func (g *Gateway) Load(ctx context.Context) ([]core.Movement, error) {
	raw, ok, err := g.blobs.Get(ctx, g.key)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", g.key, err)
	}
	if !ok || len(bytes.TrimSpace(raw)) == 0 {
		return []core.Movement{}, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(raw, &records); err != nil {
		slog.WarnContext(ctx, "Stored ledger is corrupt, starting empty",
			"key", g.key,
			"error_type", "storage_corruption",
			"error", err)
		return []core.Movement{}, nil
	}

	out := make([]core.Movement, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for i, rec := range records {
		var m core.Movement
		if err := json.Unmarshal(rec, &m); err != nil {
			slog.WarnContext(ctx, "Skipping undecodable movement", "key", g.key, "index", i, "error", err)
			continue
		}
		if err := m.Validate(); err != nil {
			slog.WarnContext(ctx, "Skipping invalid movement", "key", g.key, "index", i, "id", m.ID, "error", err)
			continue
		}
		if _, dup := seen[m.ID]; dup {
			slog.WarnContext(ctx, "Skipping duplicate movement id", "key", g.key, "index", i, "id", m.ID)
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out, nil
}

// Save serializes the whole collection and writes it in one Put.
func (g *Gateway) Save(ctx context.Context, movements []core.Movement) error {
	if movements == nil {
		movements = []core.Movement{}
	}
	raw, err := json.Marshal(movements)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	if err := g.blobs.Put(ctx, g.key, raw); err != nil {
		return fmt.Errorf("write %s: %w", g.key, err)
	}
	slog.DebugContext(ctx, "Ledger saved", "key", g.key, "count", len(movements), "bytes", len(raw))
	return nil
}
