package identity

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Hints are the weak identity signals a resolution attempt starts
// from. All fields are optional; resolution walks a fixed precedence
// chain over whatever is present.
type Hints struct {
	FamilyParam string // fid query/deep-link parameter: family uuid or invite code
	QRPayload   string // raw QR-encoded URL
	ChildParam  string // explicit child id parameter
	Nickname    string // nick parameter
}

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	codePattern  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9-]{2,11}$`)
)

// ParseDeepLink extracts hints from a deep-link URL carrying fid,
// child and nick query parameters. A malformed URL yields empty
// hints.
func ParseDeepLink(raw string) Hints {
	if strings.TrimSpace(raw) == "" {
		return Hints{}
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return Hints{}
	}

	q := parsed.Query()
	return Hints{
		FamilyParam: strings.TrimSpace(q.Get("fid")),
		ChildParam:  strings.TrimSpace(q.Get("child")),
		Nickname:    strings.TrimSpace(q.Get("nick")),
	}
}

// normalized folds the QR payload into the explicit parameters. QR
// payloads are parsed as URLs; a malformed payload contributes
// nothing and is never retried. Explicit parameters win over
// QR-carried ones.
func (h Hints) normalized() Hints {
	if h.QRPayload == "" {
		return h
	}

	qr := ParseDeepLink(h.QRPayload)
	if h.FamilyParam == "" {
		h.FamilyParam = qr.FamilyParam
	}
	if h.ChildParam == "" {
		h.ChildParam = qr.ChildParam
	}
	if h.Nickname == "" {
		h.Nickname = qr.Nickname
	}
	return h
}

// IsEmailShaped reports whether a value looks like an email address.
// Email-shaped values are never treated as invite codes, so a parent
// credential pasted into a child-facing field never reaches the code
// lookup.
func IsEmailShaped(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// IsUUID reports whether the value parses as a uuid.
func IsUUID(s string) bool {
	_, err := uuid.Parse(strings.TrimSpace(s))
	return err == nil
}

// IsCodeShaped reports whether the value could be an invite code.
func IsCodeShaped(s string) bool {
	return codePattern.MatchString(strings.TrimSpace(s))
}
