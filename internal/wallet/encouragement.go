package wallet

import (
	"strings"

	"goalnest-wallet/internal/models"
)

// encouragementPhrases is the allow-list of reason fragments that
// mark a positive ledger entry as an encouragement award. Matching is
// case-insensitive substring over free text because the write side
// does not emit a reason code; the policy lives in this one function
// so it can be swapped for an enum check if that boundary ever comes
// under this system's control.
var encouragementPhrases = []string{
	"bonus",
	"high five",
	"high-five",
	"cheer",
	"encourage",
	"way to go",
	"great job",
	"kudos",
}

// IsEncouragement reports whether a ledger reason describes an
// encouragement award.
func IsEncouragement(reason string) bool {
	lowered := strings.ToLower(reason)
	for _, phrase := range encouragementPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// EncouragementPoints sums the positive encouragement entries. The
// figure is additive information shown alongside the wallet, never
// folded into available points.
func EncouragementPoints(entries []models.LedgerEntry) int {
	total := 0
	for _, entry := range entries {
		if entry.Points > 0 && IsEncouragement(entry.Reason) {
			total += entry.Points
		}
	}
	return total
}
