package models

// Change-notification event types, one per watched table.
const (
	EventLedgerChanged     = "ledger.changed"
	EventOfferChanged      = "offer.changed"
	EventRedemptionChanged = "redemption.changed"
)

// ChangeEvent is a server-pushed notification that a child-scoped row
// changed in one of the watched tables. Each event triggers exactly
// one soft-refresh cycle.
type ChangeEvent struct {
	EventType string `json:"event_type"`
	Table     string `json:"table"`
	ChildUID  string `json:"child_uid"`
	Timestamp int64  `json:"timestamp"`
}
