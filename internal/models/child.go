package models

// ChildIdentity is the resolved identity of a child within a family.
//
// CanonicalID and LegacyUID may differ (historical migration): older
// child-scoped rows reference legacy_uid, newer rows reference child_id.
// Both forms always resolve to the same child, so every child-scoped
// query must filter on both before treating rows as "the same child".
type ChildIdentity struct {
	CanonicalID string `json:"child_id"`
	LegacyUID   string `json:"legacy_uid"`
	FamilyID    string `json:"family_id"`
	Nickname    string `json:"nickname,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

// IDSet returns both id forms for dual-id queries, deduplicated.
func (c *ChildIdentity) IDSet() []string {
	if c.LegacyUID == "" || c.LegacyUID == c.CanonicalID {
		return []string{c.CanonicalID}
	}
	return []string{c.LegacyUID, c.CanonicalID}
}

// FamilyScope is the tenant boundary; all child and reward data is
// partitioned by family.
type FamilyScope struct {
	FamilyID   string `json:"family_id"`
	FamilyName string `json:"family_name,omitempty"`
}
