package repository

import (
	"context"
	"database/sql"
	"fmt"

	"goalnest-wallet/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// LedgerRepository reads point-change records from the remote store.
type LedgerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLedgerRepository creates a new ledger repository.
func NewLedgerRepository(db *sql.DB, logger *zap.Logger) *LedgerRepository {
	return &LedgerRepository{
		db:     db,
		logger: logger,
	}
}

// PointsHistory calls the get_points_history stored procedure keyed by
// the legacy uid. The procedure is a precomputed view that may be
// stale, empty, or entirely absent in some deployments.
func (r *LedgerRepository) PointsHistory(ctx context.Context, legacyUID string) ([]models.LedgerEntry, error) {
	query := `SELECT entry_id, child_uid, points, reason, created_at FROM get_points_history($1)`

	rows, err := r.db.QueryContext(ctx, query, legacyUID)
	if err != nil {
		return nil, fmt.Errorf("failed to query points history: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// LedgerEntries reads the raw points_ledger table filtered by an id
// set carrying both forms of the child's identity. The raw table is
// the source of truth but may be keyed under either historical id
// scheme.
func (r *LedgerRepository) LedgerEntries(ctx context.Context, childIDs []string) ([]models.LedgerEntry, error) {
	query := `
		SELECT entry_id, child_uid, points, reason, created_at
		FROM points_ledger
		WHERE child_uid = ANY($1)
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(childIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		var entryID, reason sql.NullString

		if err := rows.Scan(
			&entryID,
			&entry.ChildUID,
			&entry.Points,
			&reason,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}

		entry.EntryID = entryID.String
		entry.Reason = reason.String

		entries = append(entries, entry)
	}

	return entries, nil
}
