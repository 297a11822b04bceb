package models

// WalletSnapshot source markers.
const (
	WalletSourcePrecomputed = "precomputed"
	WalletSourceDerived     = "derived"
)

// WalletSnapshot is the composed points balance for a child.
//
// AvailablePoints = max(0, EarnedPoints - ReservedPoints), always
// non-negative. Recomputed on every identity change and on every
// relevant push notification; never persisted beyond the session
// cache.
type WalletSnapshot struct {
	EarnedPoints        int    `json:"earned_points"`
	ReservedPoints      int    `json:"reserved_points"`
	AvailablePoints     int    `json:"available_points"`
	EncouragementPoints int    `json:"encouragement_points"`
	Source              string `json:"source"` // "precomputed" or "derived"
}

// WalletAggregate is the server-side denormalized wallet row
// (child_wallets table). Trusted opportunistically, not exclusively:
// it can be absent in some deployments or briefly inconsistent after
// a write.
type WalletAggregate struct {
	ChildUID        string `json:"child_uid"`
	EarnedPoints    int    `json:"earned_points"`
	AvailablePoints int    `json:"available_points"`
}
