package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"goalnest-wallet/internal/models"

	"go.uber.org/zap"
)

// Fixed storage keys. The session tier expires with its TTL, the
// durable tier never expires; both hold the same logical values.
const (
	keySessionChild  = "goalnest:session:child"
	keySessionFamily = "goalnest:session:family"
	keyDurableChild  = "goalnest:durable:child"
	keyDurableFamily = "goalnest:durable:family"
)

// Store is the two-tier identity store. The tiers may diverge only
// momentarily (one resolution cycle); every read path that observes a
// divergence issues a repair write instead of failing the read.
type Store struct {
	kv         KV
	sessionTTL time.Duration
	logger     *zap.Logger
}

// NewStore creates a session store over the given KV backend.
func NewStore(kv KV, sessionTTL time.Duration, logger *zap.Logger) *Store {
	return &Store{
		kv:         kv,
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// SaveChild writes the resolved identity to both tiers.
func (s *Store) SaveChild(ctx context.Context, identity *models.ChildIdentity) error {
	data, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}
	return s.writeBoth(ctx, keySessionChild, keyDurableChild, string(data))
}

// SaveFamily writes the resolved family scope to both tiers.
func (s *Store) SaveFamily(ctx context.Context, scope *models.FamilyScope) error {
	data, err := json.Marshal(scope)
	if err != nil {
		return fmt.Errorf("failed to marshal family scope: %w", err)
	}
	return s.writeBoth(ctx, keySessionFamily, keyDurableFamily, string(data))
}

// RememberedChild returns the stored child id, repairing tiers as
// needed. The value may be a bare id string or a structured record;
// both shapes normalize through DecodeStoredValue.
func (s *Store) RememberedChild(ctx context.Context) (string, bool) {
	raw, ok := s.readRepaired(ctx, keySessionChild, keyDurableChild)
	if !ok {
		return "", false
	}
	return ExtractChildID(raw)
}

// RememberedFamily returns the stored family id, repairing tiers as
// needed.
func (s *Store) RememberedFamily(ctx context.Context) (string, bool) {
	raw, ok := s.readRepaired(ctx, keySessionFamily, keyDurableFamily)
	if !ok {
		return "", false
	}
	val, decoded := DecodeStoredValue(raw)
	if !decoded {
		return "", false
	}
	id := val.FamilyID()
	return id, id != ""
}

// Repair copies durable-tier values into an empty session tier. Must
// run before the first read by downstream components, which consume
// session-tier state unconditionally.
func (s *Store) Repair(ctx context.Context) error {
	for _, pair := range [][2]string{
		{keySessionChild, keyDurableChild},
		{keySessionFamily, keyDurableFamily},
	} {
		if _, ok := s.readRepaired(ctx, pair[0], pair[1]); !ok {
			continue
		}
	}
	return nil
}

// Clear drops both tiers (sign-out).
func (s *Store) Clear(ctx context.Context) error {
	for _, key := range []string{keySessionChild, keySessionFamily, keyDurableChild, keyDurableFamily} {
		if err := s.kv.Del(ctx, key); err != nil {
			return fmt.Errorf("failed to clear %s: %w", key, err)
		}
	}
	return nil
}

func (s *Store) writeBoth(ctx context.Context, sessionKey, durableKey, value string) error {
	if err := s.kv.Set(ctx, sessionKey, value, s.sessionTTL); err != nil {
		return fmt.Errorf("failed to write session tier: %w", err)
	}
	if err := s.kv.Set(ctx, durableKey, value, 0); err != nil {
		return fmt.Errorf("failed to write durable tier: %w", err)
	}
	return nil
}

// readRepaired reads the session tier, falling back to the durable
// tier and repairing whichever side is stale:
//   - session empty, durable set: copy durable -> session, return it
//   - session set, durable empty or different: copy session -> durable
//     (the session tier carries the latest resolution)
func (s *Store) readRepaired(ctx context.Context, sessionKey, durableKey string) (string, bool) {
	sessionVal, sessionErr := s.kv.Get(ctx, sessionKey)
	durableVal, durableErr := s.kv.Get(ctx, durableKey)

	sessionOK := sessionErr == nil && sessionVal != ""
	durableOK := durableErr == nil && durableVal != ""

	switch {
	case sessionOK && durableOK:
		if sessionVal != durableVal {
			if err := s.kv.Set(ctx, durableKey, sessionVal, 0); err != nil {
				s.logger.Warn("Failed to repair durable tier",
					zap.String("key", durableKey),
					zap.Error(err),
				)
			}
		}
		return sessionVal, true

	case !sessionOK && durableOK:
		if err := s.kv.Set(ctx, sessionKey, durableVal, s.sessionTTL); err != nil {
			s.logger.Warn("Failed to repair session tier",
				zap.String("key", sessionKey),
				zap.Error(err),
			)
		}
		return durableVal, true

	case sessionOK:
		if err := s.kv.Set(ctx, durableKey, sessionVal, 0); err != nil {
			s.logger.Warn("Failed to repair durable tier",
				zap.String("key", durableKey),
				zap.Error(err),
			)
		}
		return sessionVal, true
	}

	return "", false
}
