package models

import "time"

// LedgerEntry is a single point-change record. Entries are immutable
// once created; the only mutation the store performs is new-entry
// insertion (approvals, redemptions, bonuses).
type LedgerEntry struct {
	EntryID   string    `json:"entry_id"`
	ChildUID  string    `json:"child_uid"`
	Points    int       `json:"points"` // signed: positive earn, negative spend
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}
