package ledger

import (
	"context"
	"fmt"
	"sort"

	"goalnest-wallet/internal/models"

	"go.uber.org/zap"
)

// Source is the remote-store surface the aggregator reads from.
// *repository.LedgerRepository implements it.
type Source interface {
	PointsHistory(ctx context.Context, legacyUID string) ([]models.LedgerEntry, error)
	LedgerEntries(ctx context.Context, childIDs []string) ([]models.LedgerEntry, error)
}

// Aggregator merges point-change records from the stored procedure
// and the raw ledger table. The procedure may be stale, empty, or
// entirely unavailable in some deployments, while the raw table is
// the source of truth but may be keyed under either historical id
// scheme. Union-then-dedupe is correct under every combination of
// those failure modes without waiting on a schema migration.
type Aggregator struct {
	source Source
	logger *zap.Logger
}

// NewAggregator creates a ledger aggregator.
func NewAggregator(source Source, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		source: source,
		logger: logger,
	}
}

// Load fetches both sources and returns the deduplicated union,
// newest first. Either source failing independently is swallowed and
// treated as empty: the aggregator improves accuracy opportunistically
// and is never a hard dependency.
func (a *Aggregator) Load(ctx context.Context, legacyUID, canonicalID string) []models.LedgerEntry {
	history, err := a.source.PointsHistory(ctx, legacyUID)
	if err != nil {
		a.logger.Warn("Points history procedure unavailable",
			zap.String("legacy_uid", legacyUID),
			zap.Error(err),
		)
		history = nil
	}

	ids := []string{legacyUID}
	if canonicalID != "" && canonicalID != legacyUID {
		ids = append(ids, canonicalID)
	}

	raw, err := a.source.LedgerEntries(ctx, ids)
	if err != nil {
		a.logger.Warn("Raw ledger table unavailable",
			zap.Strings("child_ids", ids),
			zap.Error(err),
		)
		raw = nil
	}

	return Dedupe(append(history, raw...))
}

// Dedupe removes duplicate entries by logical identity, keeping the
// first occurrence, and sorts the result newest first. Idempotent:
// deduplicating the same union twice yields the same set.
func Dedupe(entries []models.LedgerEntry) []models.LedgerEntry {
	seen := make(map[string]struct{}, len(entries))
	result := make([]models.LedgerEntry, 0, len(entries))

	for _, entry := range entries {
		key := logicalKey(entry)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, entry)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result
}

// logicalKey is the entry's logical identity: the entry id when
// present, otherwise the (child, time, reason, points) tuple. Rows
// surfaced by the stored procedure sometimes lack ids the raw table
// has, so both forms must collapse to one record.
func logicalKey(entry models.LedgerEntry) string {
	if entry.EntryID != "" {
		return "id:" + entry.EntryID
	}
	return fmt.Sprintf("tuple:%s|%d|%s|%d",
		entry.ChildUID, entry.CreatedAt.UnixNano(), entry.Reason, entry.Points)
}
