package models

import "time"

// Offer statuses. Transitions are performed by remote procedures; this
// module only classifies and reacts.
const (
	OfferStatusOffered   = "Offered"
	OfferStatusAccepted  = "Accepted"
	OfferStatusRejected  = "Rejected"
	OfferStatusFulfilled = "Fulfilled"
	OfferStatusExpired   = "Expired"
)

// Redemption statuses.
const (
	RedemptionStatusPending   = "Pending"
	RedemptionStatusApproved  = "Approved"
	RedemptionStatusRejected  = "Rejected"
	RedemptionStatusFulfilled = "Fulfilled"
)

// Reward is a catalog item a child can redeem points for.
type Reward struct {
	RewardID   string `json:"reward_id"`
	FamilyID   string `json:"family_id"`
	Title      string `json:"title"`
	PointsCost int    `json:"points_cost"`
	Active     bool   `json:"active"`
}

// Offer is a reward targeted at a specific child, possibly without a
// catalog row behind it.
type Offer struct {
	OfferID    string     `json:"offer_id"`
	ChildUID   string     `json:"child_uid"`
	RewardID   string     `json:"reward_id,omitempty"`
	Title      string     `json:"title"`
	PointsCost int        `json:"points_cost"`
	Status     string     `json:"status"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
}

// IsReserved reports whether the offer's cost counts against the
// child's available points: accepted but not yet fulfilled.
func (o *Offer) IsReserved() bool {
	return o.Status == OfferStatusAccepted
}

// Redemption is an in-flight or settled spend of points against a
// reward. PointsCost may be nil for offer-created redemptions; the
// cost is then resolved by joining back to the catalog by reward id
// or title.
type Redemption struct {
	RedemptionID string    `json:"redemption_id"`
	ChildUID     string    `json:"child_uid"`
	RewardID     string    `json:"reward_id,omitempty"`
	Title        string    `json:"title"`
	PointsCost   *int      `json:"points_cost,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// InFlight reports whether the redemption still holds points back
// from the available balance.
func (r *Redemption) InFlight() bool {
	return r.Status == RedemptionStatusPending || r.Status == RedemptionStatusApproved
}
