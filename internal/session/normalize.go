package session

import (
	"encoding/json"
	"strings"
)

// StoredIdentity is the structured form a stored identity value may
// take. Historical clients wrote several shapes: a bare id string, a
// JSON object carrying child_uid/id/uid, or the object nested under a
// "child" field. All reads go through DecodeStoredValue so no call
// site shape-sniffs on its own.
type StoredIdentity struct {
	ID       string          `json:"id,omitempty"`
	UID      string          `json:"uid,omitempty"`
	ChildID  string          `json:"child_id,omitempty"`
	ChildUID string          `json:"child_uid,omitempty"`
	FamilyID string          `json:"family_id,omitempty"`
	Child    *StoredIdentity `json:"child,omitempty"`
}

// StoredValue is the tagged union of the two storage formats: exactly
// one of Raw or Structured is set.
type StoredValue struct {
	Raw        string
	Structured *StoredIdentity
}

// DecodeStoredValue parses a stored tier value. Returns false for
// empty or undecodable values.
func DecodeStoredValue(raw string) (StoredValue, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return StoredValue{}, false
	}

	if strings.HasPrefix(trimmed, "{") {
		var structured StoredIdentity
		if err := json.Unmarshal([]byte(trimmed), &structured); err != nil {
			return StoredValue{}, false
		}
		return StoredValue{Structured: &structured}, true
	}

	// JSON-encoded bare string is also a historical shape
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal([]byte(trimmed), &s); err != nil || s == "" {
			return StoredValue{}, false
		}
		return StoredValue{Raw: s}, true
	}

	return StoredValue{Raw: trimmed}, true
}

// ChildID extracts a child identifier from the value, whatever its
// shape. Returns "" when none is present.
func (v StoredValue) ChildID() string {
	if v.Raw != "" {
		return v.Raw
	}
	if v.Structured == nil {
		return ""
	}
	return v.Structured.childID()
}

// FamilyID extracts a family identifier from the value. For raw
// values the string itself is the id.
func (v StoredValue) FamilyID() string {
	if v.Raw != "" {
		return v.Raw
	}
	if v.Structured == nil {
		return ""
	}
	if v.Structured.FamilyID != "" {
		return v.Structured.FamilyID
	}
	return v.Structured.childID() // family keys historically stored a bare id object
}

func (s *StoredIdentity) childID() string {
	switch {
	case s.ChildUID != "":
		return s.ChildUID
	case s.ChildID != "":
		return s.ChildID
	case s.ID != "":
		return s.ID
	case s.UID != "":
		return s.UID
	case s.Child != nil:
		return s.Child.childID()
	}
	return ""
}

// ExtractChildID is the permissive one-call extraction used by read
// paths: raw string, JSON object, or nested object all yield an id.
func ExtractChildID(raw string) (string, bool) {
	val, ok := DecodeStoredValue(raw)
	if !ok {
		return "", false
	}
	id := val.ChildID()
	return id, id != ""
}
