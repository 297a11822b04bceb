package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"goalnest-wallet/internal/models"

	"go.uber.org/zap"
)

// FamilyRepository reads families and children from the remote store.
type FamilyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewFamilyRepository creates a new family repository.
func NewFamilyRepository(db *sql.DB, logger *zap.Logger) *FamilyRepository {
	return &FamilyRepository{
		db:     db,
		logger: logger,
	}
}

// FamilyByCode exchanges a human-entered invite code for a family.
// A code maps to exactly one family or to none; a missing code
// returns (nil, nil).
func (r *FamilyRepository) FamilyByCode(ctx context.Context, code string) (*models.FamilyScope, error) {
	query := `
		SELECT family_id, family_name
		FROM families
		WHERE UPPER(invite_code) = UPPER($1)
	`

	var scope models.FamilyScope
	err := r.db.QueryRowContext(ctx, query, strings.TrimSpace(code)).Scan(
		&scope.FamilyID,
		&scope.FamilyName,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query family by code: %w", err)
	}

	return &scope, nil
}

// FamilyByID fetches a family by its uuid.
func (r *FamilyRepository) FamilyByID(ctx context.Context, familyID string) (*models.FamilyScope, error) {
	query := `
		SELECT family_id, family_name
		FROM families
		WHERE family_id = $1
	`

	var scope models.FamilyScope
	err := r.db.QueryRowContext(ctx, query, familyID).Scan(
		&scope.FamilyID,
		&scope.FamilyName,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query family by id: %w", err)
	}

	return &scope, nil
}

// ChildByAnyID looks a child up by either id form. Remembered values
// may carry the canonical id or the legacy uid depending on when they
// were written.
func (r *FamilyRepository) ChildByAnyID(ctx context.Context, childID string) (*models.ChildIdentity, error) {
	query := `
		SELECT child_id, legacy_uid, family_id, nickname, display_name
		FROM children
		WHERE child_id = $1 OR legacy_uid = $1
		LIMIT 1
	`

	return r.scanChild(r.db.QueryRowContext(ctx, query, childID))
}

// ChildByNickname looks a child up by nickname within a family,
// case-insensitively.
func (r *FamilyRepository) ChildByNickname(ctx context.Context, familyID, nickname string) (*models.ChildIdentity, error) {
	query := `
		SELECT child_id, legacy_uid, family_id, nickname, display_name
		FROM children
		WHERE family_id = $1 AND LOWER(nickname) = LOWER($2)
		LIMIT 1
	`

	return r.scanChild(r.db.QueryRowContext(ctx, query, familyID, strings.TrimSpace(nickname)))
}

// ChildrenByFamily lists all children of a family, ordered by
// nickname for a stable selection default.
func (r *FamilyRepository) ChildrenByFamily(ctx context.Context, familyID string) ([]models.ChildIdentity, error) {
	query := `
		SELECT child_id, legacy_uid, family_id, nickname, display_name
		FROM children
		WHERE family_id = $1
		ORDER BY nickname
	`

	rows, err := r.db.QueryContext(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}
	defer rows.Close()

	var children []models.ChildIdentity
	for rows.Next() {
		var child models.ChildIdentity
		var legacyUID, nickname, displayName sql.NullString

		if err := rows.Scan(
			&child.CanonicalID,
			&legacyUID,
			&child.FamilyID,
			&nickname,
			&displayName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan child: %w", err)
		}

		child.LegacyUID = orCanonical(legacyUID, child.CanonicalID)
		child.Nickname = nickname.String
		child.DisplayName = displayName.String

		children = append(children, child)
	}

	return children, nil
}

func (r *FamilyRepository) scanChild(row *sql.Row) (*models.ChildIdentity, error) {
	var child models.ChildIdentity
	var legacyUID, nickname, displayName sql.NullString

	err := row.Scan(
		&child.CanonicalID,
		&legacyUID,
		&child.FamilyID,
		&nickname,
		&displayName,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan child: %w", err)
	}

	child.LegacyUID = orCanonical(legacyUID, child.CanonicalID)
	child.Nickname = nickname.String
	child.DisplayName = displayName.String

	return &child, nil
}

// orCanonical defaults a missing legacy uid to the canonical id so
// dual-id filters always have two usable values.
func orCanonical(legacy sql.NullString, canonical string) string {
	if legacy.Valid && legacy.String != "" {
		return legacy.String
	}
	return canonical
}
