package rewards

import (
	"strings"
	"time"

	"goalnest-wallet/internal/models"
)

// Reward display states. Each catalog reward is in exactly one.
const (
	StateAvailable = "available"
	StatePending   = "pending"
	StateCompleted = "completed"
)

// ClassifiedReward pairs a catalog reward with its display state and,
// when a redemption drove the state, that redemption.
type ClassifiedReward struct {
	Reward     models.Reward      `json:"reward"`
	State      string             `json:"state"`
	Redemption *models.Redemption `json:"redemption,omitempty"`
}

// Classify maps every catalog reward to a display state from the
// child's redemptions. A redemption references a reward by id, or by
// equal title when it was created from an offer and carries no id.
// Pending beats Approved/Fulfilled when several redemptions reference
// the same reward, so an in-progress ask is never hidden behind an
// older completed one. Rejected redemptions leave the reward available.
func Classify(catalog []models.Reward, redemptions []models.Redemption) []ClassifiedReward {
	result := make([]ClassifiedReward, 0, len(catalog))

	for _, reward := range catalog {
		classified := ClassifiedReward{Reward: reward, State: StateAvailable}

		for i := range redemptions {
			redemption := &redemptions[i]
			if !references(redemption, &reward) {
				continue
			}
			switch redemption.Status {
			case models.RedemptionStatusPending:
				classified.State = StatePending
				classified.Redemption = redemption
			case models.RedemptionStatusApproved, models.RedemptionStatusFulfilled:
				if classified.State != StatePending {
					classified.State = StateCompleted
					classified.Redemption = redemption
				}
			}
			if classified.State == StatePending {
				break
			}
		}

		result = append(result, classified)
	}

	return result
}

// references reports whether the redemption was made against the
// reward. Title comparison is case-insensitive because offer-created
// redemptions copy the title as typed by the parent.
func references(redemption *models.Redemption, reward *models.Reward) bool {
	if redemption.RewardID != "" && redemption.RewardID == reward.RewardID {
		return true
	}
	return redemption.RewardID == "" &&
		strings.EqualFold(redemption.Title, reward.Title)
}

// IsExpired reports whether the offer has passed its expiry without
// being acted on. Offers already in a terminal status keep that status
// regardless of the clock.
func IsExpired(offer *models.Offer, now time.Time) bool {
	if offer.Status != models.OfferStatusOffered {
		return false
	}
	return offer.ExpiresAt != nil && offer.ExpiresAt.Before(now)
}
