package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"goalnest-wallet/internal/models"
	"goalnest-wallet/internal/session"

	"go.uber.org/zap"
)

// SnapshotCache holds the composed wallet for the UI layer under a
// short TTL. Snapshots are session-scoped output, never durable
// state: a missing cache entry just means the next refresh recomputes.
type SnapshotCache struct {
	kv     session.KV
	ttl    time.Duration
	logger *zap.Logger
}

// NewSnapshotCache creates a snapshot cache.
func NewSnapshotCache(kv session.KV, ttl time.Duration, logger *zap.Logger) *SnapshotCache {
	return &SnapshotCache{
		kv:     kv,
		ttl:    ttl,
		logger: logger,
	}
}

func snapshotKey(childID string) string {
	return fmt.Sprintf("goalnest:wallet:%s", childID)
}

// Put writes the snapshot for the child.
func (c *SnapshotCache) Put(ctx context.Context, childID string, snapshot *models.WalletSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal wallet snapshot: %w", err)
	}

	if err := c.kv.Set(ctx, snapshotKey(childID), string(data), c.ttl); err != nil {
		return fmt.Errorf("failed to cache wallet snapshot: %w", err)
	}

	c.logger.Debug("Updated wallet snapshot cache",
		zap.String("child_id", childID),
		zap.String("source", snapshot.Source),
	)

	return nil
}

// Get reads the cached snapshot, or (nil, nil) on a miss.
func (c *SnapshotCache) Get(ctx context.Context, childID string) (*models.WalletSnapshot, error) {
	val, err := c.kv.Get(ctx, snapshotKey(childID))
	if err != nil {
		if err == session.ErrCacheMiss {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read wallet snapshot: %w", err)
	}

	var snapshot models.WalletSnapshot
	if err := json.Unmarshal([]byte(val), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet snapshot: %w", err)
	}

	return &snapshot, nil
}
