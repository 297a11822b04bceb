package verifier

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"goalnest-wallet/internal/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Verification modes.
const (
	ModePIN      = "pin"
	ModePassword = "password"
)

// ErrInvalidPIN indicates the PIN failed the local format gate and no
// network call was made.
var ErrInvalidPIN = errors.New("pin must be 4-12 digits")

var pinPattern = regexp.MustCompile(`^[0-9]{4,12}$`)

// verifyRequest is the RPC body. The secret exists only here for the
// duration of the call; it is never logged and never written to the
// session store.
type verifyRequest struct {
	ChildUID string `json:"child_uid"`
	FamilyID string `json:"family_id"`
	Secret   string `json:"secret"`
	Mode     string `json:"mode"`
}

type verifyResponse struct {
	Valid bool `json:"valid"`
}

// Verifier sends child-entered credentials to the remote verification
// procedure. Exactly one round trip per attempt: no local comparison,
// no retry, no backoff. A failed verification is terminal for the
// attempt and the caller re-prompts.
type Verifier struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewVerifier creates a verifier against the given RPC base URL. The
// timeout bounds the call; a hung endpoint becomes an error instead
// of an indefinite wait.
func NewVerifier(baseURL string, timeout time.Duration, logger *zap.Logger) *Verifier {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(0). // one round trip per attempt, never retried
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Verifier{
		httpClient: client,
		logger:     logger,
	}
}

// Verify checks the secret against the remote store. PIN mode is
// format-gated locally (4-12 digits) before anything is sent;
// password mode has no local constraint. A transport or endpoint
// failure is returned as an error, distinct from a clean mismatch.
func (v *Verifier) Verify(ctx context.Context, identity *models.ChildIdentity, secret, mode string) (bool, error) {
	if mode == ModePIN && !pinPattern.MatchString(secret) {
		return false, ErrInvalidPIN
	}

	request := verifyRequest{
		ChildUID: identity.CanonicalID,
		FamilyID: identity.FamilyID,
		Secret:   secret,
		Mode:     mode,
	}

	var response verifyResponse
	resp, err := v.httpClient.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&response).
		Post("/rpc/verify_child_secret")

	if err != nil {
		return false, fmt.Errorf("failed to call verification endpoint: %w", err)
	}

	if resp.IsError() {
		return false, fmt.Errorf("verification endpoint returned status %d", resp.StatusCode())
	}

	v.logger.Debug("Secret verification completed",
		zap.String("child_id", identity.CanonicalID),
		zap.String("mode", mode),
		zap.Bool("valid", response.Valid),
	)

	return response.Valid, nil
}
