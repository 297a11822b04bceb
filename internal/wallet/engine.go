package wallet

import (
	"context"

	"goalnest-wallet/internal/models"

	"go.uber.org/zap"
)

// Source is the remote-store surface the engine reads from.
// *repository.WalletRepository implements it.
type Source interface {
	PrecomputedWallet(ctx context.Context, childIDs []string) (*models.WalletAggregate, error)
	CompletedPoints(ctx context.Context, childIDs []string) (int, error)
	AcceptedOfferCost(ctx context.Context, childIDs []string) (int, error)
	PendingRedemptionCost(ctx context.Context, childIDs []string) (int, error)
}

// Engine composes the wallet snapshot for a child.
//
// The precomputed aggregate is trusted whenever it carries a positive
// earned or available value; the derived path recomputes everything
// from primitive tables and is strictly more expensive, so it serves
// as the safety net rather than the default. Disagreement between the
// two paths is not detected or reconciled.
type Engine struct {
	source Source
	logger *zap.Logger
}

// NewEngine creates a wallet reconciliation engine.
func NewEngine(source Source, logger *zap.Logger) *Engine {
	return &Engine{
		source: source,
		logger: logger,
	}
}

// Compute builds the wallet snapshot for the child. entries is the
// deduplicated ledger from the aggregator; it feeds the encouragement
// figure on both paths. Source failures are absorbed into zero values
// (worst case is a zero wallet, never an error surfaced to the UI).
func (e *Engine) Compute(ctx context.Context, identity *models.ChildIdentity, entries []models.LedgerEntry) *models.WalletSnapshot {
	ids := identity.IDSet()
	encouragement := EncouragementPoints(entries)

	if snapshot := e.fromPrecomputed(ctx, ids); snapshot != nil {
		snapshot.EncouragementPoints = encouragement
		return snapshot
	}

	snapshot := e.fromDerived(ctx, ids)
	snapshot.EncouragementPoints = encouragement
	return snapshot
}

// fromPrecomputed returns a snapshot from the child_wallets aggregate,
// or nil when the aggregate is absent, failing, or all-zero (all three
// trigger the derived fallback).
func (e *Engine) fromPrecomputed(ctx context.Context, ids []string) *models.WalletSnapshot {
	agg, err := e.source.PrecomputedWallet(ctx, ids)
	if err != nil {
		e.logger.Warn("Precomputed wallet unavailable",
			zap.Strings("child_ids", ids),
			zap.Error(err),
		)
		return nil
	}
	if agg == nil || (agg.EarnedPoints <= 0 && agg.AvailablePoints <= 0) {
		return nil
	}

	available := agg.AvailablePoints
	if available < 0 {
		available = 0
	}
	reserved := agg.EarnedPoints - available
	if reserved < 0 {
		reserved = 0
	}

	return &models.WalletSnapshot{
		EarnedPoints:    agg.EarnedPoints,
		ReservedPoints:  reserved,
		AvailablePoints: available,
		Source:          models.WalletSourcePrecomputed,
	}
}

// fromDerived recomputes the wallet from primitive tables: earned from
// the completed-activity view, reserved from accepted offers plus
// in-flight redemptions.
func (e *Engine) fromDerived(ctx context.Context, ids []string) *models.WalletSnapshot {
	earned, err := e.source.CompletedPoints(ctx, ids)
	if err != nil {
		e.logger.Warn("Completed-activity view unavailable", zap.Error(err))
		earned = 0
	}

	offerCost, err := e.source.AcceptedOfferCost(ctx, ids)
	if err != nil {
		e.logger.Warn("Accepted offer query unavailable", zap.Error(err))
		offerCost = 0
	}

	redemptionCost, err := e.source.PendingRedemptionCost(ctx, ids)
	if err != nil {
		e.logger.Warn("Pending redemption query unavailable", zap.Error(err))
		redemptionCost = 0
	}

	reserved := offerCost + redemptionCost
	available := earned - reserved
	if available < 0 {
		available = 0
	}

	return &models.WalletSnapshot{
		EarnedPoints:    earned,
		ReservedPoints:  reserved,
		AvailablePoints: available,
		Source:          models.WalletSourceDerived,
	}
}
