package repository

import (
	"context"
	"database/sql"
	"fmt"

	"goalnest-wallet/internal/models"

	"github.com/lib/pq"
	"go.uber.org/zap"
)

// RewardRepository reads the reward catalog, targeted offers and
// redemptions from the remote store.
type RewardRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRewardRepository creates a new reward repository.
func NewRewardRepository(db *sql.DB, logger *zap.Logger) *RewardRepository {
	return &RewardRepository{
		db:     db,
		logger: logger,
	}
}

// ActiveRewards lists the active catalog for a family.
func (r *RewardRepository) ActiveRewards(ctx context.Context, familyID string) ([]models.Reward, error) {
	query := `
		SELECT reward_id, family_id, title, points_cost, active
		FROM rewards
		WHERE family_id = $1
		  AND active = TRUE
		ORDER BY title
	`

	rows, err := r.db.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query rewards: %w", err)
	}
	defer rows.Close()

	var rewards []models.Reward
	for rows.Next() {
		var reward models.Reward
		if err := rows.Scan(
			&reward.RewardID,
			&reward.FamilyID,
			&reward.Title,
			&reward.PointsCost,
			&reward.Active,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, reward)
	}

	return rewards, nil
}

// OffersForChild lists offers targeted at the child, under both id
// forms.
func (r *RewardRepository) OffersForChild(ctx context.Context, childIDs []string) ([]models.Offer, error) {
	query := `
		SELECT offer_id, child_uid, reward_id, title, points_cost, status, expires_at
		FROM offers
		WHERE child_uid = ANY($1)
		ORDER BY offer_id
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(childIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query offers: %w", err)
	}
	defer rows.Close()

	var offers []models.Offer
	for rows.Next() {
		var offer models.Offer
		var rewardID sql.NullString
		var expiresAt sql.NullTime

		if err := rows.Scan(
			&offer.OfferID,
			&offer.ChildUID,
			&rewardID,
			&offer.Title,
			&offer.PointsCost,
			&offer.Status,
			&expiresAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan offer: %w", err)
		}

		offer.RewardID = rewardID.String
		if expiresAt.Valid {
			t := expiresAt.Time
			offer.ExpiresAt = &t
		}

		offers = append(offers, offer)
	}

	return offers, nil
}

// RedemptionsForChild lists the child's redemptions, under both id
// forms.
func (r *RewardRepository) RedemptionsForChild(ctx context.Context, childIDs []string) ([]models.Redemption, error) {
	query := `
		SELECT redemption_id, child_uid, reward_id, title, points_cost, status, created_at
		FROM redemptions
		WHERE child_uid = ANY($1)
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(childIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query redemptions: %w", err)
	}
	defer rows.Close()

	var redemptions []models.Redemption
	for rows.Next() {
		var redemption models.Redemption
		var rewardID sql.NullString
		var pointsCost sql.NullInt64

		if err := rows.Scan(
			&redemption.RedemptionID,
			&redemption.ChildUID,
			&rewardID,
			&redemption.Title,
			&pointsCost,
			&redemption.Status,
			&redemption.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan redemption: %w", err)
		}

		redemption.RewardID = rewardID.String
		if pointsCost.Valid {
			cost := int(pointsCost.Int64)
			redemption.PointsCost = &cost
		}

		redemptions = append(redemptions, redemption)
	}

	return redemptions, nil
}
