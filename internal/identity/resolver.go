package identity

import (
	"context"
	"errors"

	"goalnest-wallet/internal/models"

	"go.uber.org/zap"
)

// ErrNotFound indicates no hint yielded an identity. Callers present
// a manual-entry fallback (family code / nickname) instead of failing
// hard.
var ErrNotFound = errors.New("identity not found")

// Directory is the remote-store surface the resolver consults.
// *repository.FamilyRepository implements it.
type Directory interface {
	FamilyByCode(ctx context.Context, code string) (*models.FamilyScope, error)
	FamilyByID(ctx context.Context, familyID string) (*models.FamilyScope, error)
	ChildByAnyID(ctx context.Context, childID string) (*models.ChildIdentity, error)
	ChildByNickname(ctx context.Context, familyID, nickname string) (*models.ChildIdentity, error)
	ChildrenByFamily(ctx context.Context, familyID string) ([]models.ChildIdentity, error)
}

// Remembered is the session-store surface the resolver consults.
// *session.Store implements it.
type Remembered interface {
	RememberedChild(ctx context.Context) (string, bool)
	RememberedFamily(ctx context.Context) (string, bool)
}

// Resolver determines which family and child a request belongs to
// from weak, sometimes conflicting signals. Each resolution is an
// ordered strategy list with early exit; a strategy's source failing
// is swallowed and the chain moves on, so only a fully exhausted
// chain surfaces ErrNotFound.
type Resolver struct {
	directory Directory
	store     Remembered
	logger    *zap.Logger
}

// NewResolver creates a new identity resolver.
func NewResolver(directory Directory, store Remembered, logger *zap.Logger) *Resolver {
	return &Resolver{
		directory: directory,
		store:     store,
		logger:    logger,
	}
}

type familyStrategy struct {
	name string
	fn   func(ctx context.Context) (*models.FamilyScope, error)
}

// ResolveFamily resolves the family scope. Precedence: explicit
// query/deep-link parameter (uuid or invite code), remembered family,
// family inferred from a remembered child id. First success wins.
func (r *Resolver) ResolveFamily(ctx context.Context, hints Hints) (*models.FamilyScope, error) {
	hints = hints.normalized()

	strategies := []familyStrategy{
		{"explicit-param", func(ctx context.Context) (*models.FamilyScope, error) {
			return r.familyFromParam(ctx, hints.FamilyParam)
		}},
		{"remembered-family", r.familyFromStore},
		{"remembered-child", r.familyFromRememberedChild},
	}

	for _, strategy := range strategies {
		scope, err := strategy.fn(ctx)
		if err != nil {
			r.logger.Warn("Family resolution source failed",
				zap.String("strategy", strategy.name),
				zap.Error(err),
			)
			continue
		}
		if scope != nil {
			r.logger.Debug("Family resolved",
				zap.String("strategy", strategy.name),
				zap.String("family_id", scope.FamilyID),
			)
			return scope, nil
		}
	}

	return nil, ErrNotFound
}

// familyFromParam validates the explicit parameter as a uuid or an
// invite code. Email-shaped values are rejected by the format check
// before any code lookup is attempted.
func (r *Resolver) familyFromParam(ctx context.Context, param string) (*models.FamilyScope, error) {
	if param == "" {
		return nil, nil
	}

	if IsEmailShaped(param) {
		r.logger.Debug("Rejecting email-shaped family hint")
		return nil, nil
	}

	if IsUUID(param) {
		return r.directory.FamilyByID(ctx, param)
	}

	if !IsCodeShaped(param) {
		return nil, nil
	}

	return r.directory.FamilyByCode(ctx, param)
}

func (r *Resolver) familyFromStore(ctx context.Context) (*models.FamilyScope, error) {
	familyID, ok := r.store.RememberedFamily(ctx)
	if !ok {
		return nil, nil
	}
	return r.directory.FamilyByID(ctx, familyID)
}

func (r *Resolver) familyFromRememberedChild(ctx context.Context) (*models.FamilyScope, error) {
	childID, ok := r.store.RememberedChild(ctx)
	if !ok {
		return nil, nil
	}

	child, err := r.directory.ChildByAnyID(ctx, childID)
	if err != nil {
		return nil, err
	}
	if child == nil {
		return nil, nil
	}

	return &models.FamilyScope{FamilyID: child.FamilyID}, nil
}

type childStrategy struct {
	name string
	fn   func(ctx context.Context) (*models.ChildIdentity, error)
}

// ResolveChild resolves a child within a known family. Precedence:
// explicit child id, nickname lookup, remembered durable child id,
// first child of the family listing. The listing fallback is a
// selection default only, never an authentication decision.
//
// Explicit hints (child id, nickname) fail closed: a clean miss on a
// value the caller supplied returns ErrNotFound rather than silently
// selecting a different child. A source error on the same lookup
// still falls through the chain.
func (r *Resolver) ResolveChild(ctx context.Context, scope *models.FamilyScope, hints Hints) (*models.ChildIdentity, error) {
	hints = hints.normalized()

	explicit := []childStrategy{
		{"explicit-param", func(ctx context.Context) (*models.ChildIdentity, error) {
			if hints.ChildParam == "" {
				return nil, nil
			}
			child, err := r.childByID(ctx, scope, hints.ChildParam)
			if err != nil {
				return nil, err
			}
			if child == nil {
				return nil, ErrNotFound
			}
			return child, nil
		}},
		{"nickname", func(ctx context.Context) (*models.ChildIdentity, error) {
			if hints.Nickname == "" {
				return nil, nil
			}
			child, err := r.directory.ChildByNickname(ctx, scope.FamilyID, hints.Nickname)
			if err != nil {
				return nil, err
			}
			if child == nil {
				return nil, ErrNotFound
			}
			return child, nil
		}},
	}

	fallback := []childStrategy{
		{"remembered-child", func(ctx context.Context) (*models.ChildIdentity, error) {
			childID, ok := r.store.RememberedChild(ctx)
			if !ok {
				return nil, nil
			}
			return r.childByID(ctx, scope, childID)
		}},
		{"family-listing", func(ctx context.Context) (*models.ChildIdentity, error) {
			children, err := r.directory.ChildrenByFamily(ctx, scope.FamilyID)
			if err != nil {
				return nil, err
			}
			if len(children) == 0 {
				return nil, nil
			}
			return &children[0], nil
		}},
	}

	for _, strategy := range explicit {
		child, err := strategy.fn(ctx)
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			r.logger.Warn("Child resolution source failed",
				zap.String("strategy", strategy.name),
				zap.Error(err),
			)
			continue
		}
		if child != nil {
			r.logger.Debug("Child resolved",
				zap.String("strategy", strategy.name),
				zap.String("child_id", child.CanonicalID),
			)
			return child, nil
		}
	}

	for _, strategy := range fallback {
		child, err := strategy.fn(ctx)
		if err != nil {
			r.logger.Warn("Child resolution source failed",
				zap.String("strategy", strategy.name),
				zap.Error(err),
			)
			continue
		}
		if child != nil {
			r.logger.Debug("Child resolved",
				zap.String("strategy", strategy.name),
				zap.String("child_id", child.CanonicalID),
			)
			return child, nil
		}
	}

	return nil, ErrNotFound
}

// childByID looks the child up by either id form and enforces the
// family boundary: a child from another family never resolves inside
// this scope.
func (r *Resolver) childByID(ctx context.Context, scope *models.FamilyScope, childID string) (*models.ChildIdentity, error) {
	if childID == "" {
		return nil, nil
	}

	child, err := r.directory.ChildByAnyID(ctx, childID)
	if err != nil {
		return nil, err
	}
	if child == nil || child.FamilyID != scope.FamilyID {
		return nil, nil
	}

	return child, nil
}
