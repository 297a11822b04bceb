package repository

import (
	"context"
	"database/sql"
	"fmt"

	"goalnest-wallet/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// WalletRepository reads the wallet aggregate and its derivation
// sources from the remote store.
type WalletRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewWalletRepository creates a new wallet repository.
func NewWalletRepository(db *sql.DB, logger *zap.Logger) *WalletRepository {
	return &WalletRepository{
		db:     db,
		logger: logger,
	}
}

// PrecomputedWallet reads the child_wallets aggregate row under either
// id form. Returns (nil, nil) when no row exists.
func (r *WalletRepository) PrecomputedWallet(ctx context.Context, childIDs []string) (*models.WalletAggregate, error) {
	query := `
		SELECT child_uid, earned_points, available_points
		FROM child_wallets
		WHERE child_uid = ANY($1)
		LIMIT 1
	`

	var agg models.WalletAggregate
	err := r.db.QueryRowContext(ctx, query, pq.Array(childIDs)).Scan(
		&agg.ChildUID,
		&agg.EarnedPoints,
		&agg.AvailablePoints,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query precomputed wallet: %w", err)
	}

	return &agg, nil
}

// CompletedPoints sums the positive rows of the completed_activities
// view for the child. This is the derived earned figure.
func (r *WalletRepository) CompletedPoints(ctx context.Context, childIDs []string) (int, error) {
	query := `
		SELECT COALESCE(SUM(points), 0)
		FROM completed_activities
		WHERE child_uid = ANY($1)
		  AND points > 0
	`

	var total int
	if err := r.db.QueryRowContext(ctx, query, pq.Array(childIDs)).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum completed points: %w", err)
	}

	return total, nil
}

// AcceptedOfferCost sums the effective cost of offers the child has
// accepted but that are not yet fulfilled.
func (r *WalletRepository) AcceptedOfferCost(ctx context.Context, childIDs []string) (int, error) {
	query := `
		SELECT COALESCE(SUM(points_cost), 0)
		FROM offers
		WHERE child_uid = ANY($1)
		  AND status = 'Accepted'
	`

	var total int
	if err := r.db.QueryRowContext(ctx, query, pq.Array(childIDs)).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum accepted offer cost: %w", err)
	}

	return total, nil
}

// PendingRedemptionCost sums the catalog cost of pending and approved
// redemptions. Offer-created redemption rows carry no cost of their
// own, so the catalog is joined by reward id or title.
func (r *WalletRepository) PendingRedemptionCost(ctx context.Context, childIDs []string) (int, error) {
	query := `
		SELECT COALESCE(SUM(COALESCE(rd.points_cost, rw.points_cost, 0)), 0)
		FROM redemptions rd
		LEFT JOIN rewards rw
		  ON rw.reward_id = rd.reward_id
		  OR (rd.reward_id IS NULL AND rw.title = rd.title)
		WHERE rd.child_uid = ANY($1)
		  AND rd.status IN ('Pending', 'Approved')
	`

	var total int
	if err := r.db.QueryRowContext(ctx, query, pq.Array(childIDs)).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum pending redemption cost: %w", err)
	}

	return total, nil
}
