package identity_test

import (
	"context"
	"errors"
	"testing"

	"goalnest-wallet/internal/identity"
	"goalnest-wallet/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	famID   = "f47ac10b-58cc-4372-a567-0e02b2c3d479"
	childID = "11111111-1111-1111-1111-111111111111"
	legacy  = "22222222-2222-2222-2222-222222222222"
)

// fakeDirectory is an in-memory Directory that records lookups.
type fakeDirectory struct {
	families    map[string]*models.FamilyScope // by id
	codes       map[string]*models.FamilyScope // by invite code
	children    []models.ChildIdentity
	codeLookups int
	failAll     bool
}

func newFakeDirectory() *fakeDirectory {
	scope := &models.FamilyScope{FamilyID: famID, FamilyName: "Ortiz"}
	return &fakeDirectory{
		families: map[string]*models.FamilyScope{famID: scope},
		codes:    map[string]*models.FamilyScope{"SUNNY42": scope},
		children: []models.ChildIdentity{
			{CanonicalID: childID, LegacyUID: legacy, FamilyID: famID, Nickname: "Maya"},
			{CanonicalID: "33333333-3333-3333-3333-333333333333", LegacyUID: "33333333-3333-3333-3333-333333333333", FamilyID: famID, Nickname: "Theo"},
		},
	}
}

func (f *fakeDirectory) FamilyByCode(ctx context.Context, code string) (*models.FamilyScope, error) {
	f.codeLookups++
	if f.failAll {
		return nil, errors.New("store down")
	}
	return f.codes[code], nil
}

func (f *fakeDirectory) FamilyByID(ctx context.Context, familyID string) (*models.FamilyScope, error) {
	if f.failAll {
		return nil, errors.New("store down")
	}
	return f.families[familyID], nil
}

func (f *fakeDirectory) ChildByAnyID(ctx context.Context, id string) (*models.ChildIdentity, error) {
	if f.failAll {
		return nil, errors.New("store down")
	}
	for i := range f.children {
		if f.children[i].CanonicalID == id || f.children[i].LegacyUID == id {
			child := f.children[i]
			return &child, nil
		}
	}
	return nil, nil
}

func (f *fakeDirectory) ChildByNickname(ctx context.Context, familyID, nickname string) (*models.ChildIdentity, error) {
	if f.failAll {
		return nil, errors.New("store down")
	}
	for i := range f.children {
		if f.children[i].FamilyID == familyID && f.children[i].Nickname == nickname {
			child := f.children[i]
			return &child, nil
		}
	}
	return nil, nil
}

func (f *fakeDirectory) ChildrenByFamily(ctx context.Context, familyID string) ([]models.ChildIdentity, error) {
	if f.failAll {
		return nil, errors.New("store down")
	}
	var out []models.ChildIdentity
	for _, c := range f.children {
		if c.FamilyID == familyID {
			out = append(out, c)
		}
	}
	return out, nil
}

// fakeRemembered is an in-memory Remembered store.
type fakeRemembered struct {
	child  string
	family string
}

func (f *fakeRemembered) RememberedChild(ctx context.Context) (string, bool) {
	return f.child, f.child != ""
}

func (f *fakeRemembered) RememberedFamily(ctx context.Context) (string, bool) {
	return f.family, f.family != ""
}

func newResolver(dir *fakeDirectory, store *fakeRemembered) *identity.Resolver {
	return identity.NewResolver(dir, store, zap.NewNop())
}

func TestResolveFamily_ExplicitUUID(t *testing.T) {
	dir := newFakeDirectory()
	resolver := newResolver(dir, &fakeRemembered{})

	scope, err := resolver.ResolveFamily(context.Background(), identity.Hints{FamilyParam: famID})
	require.NoError(t, err)
	assert.Equal(t, famID, scope.FamilyID)
	assert.Zero(t, dir.codeLookups)
}

func TestResolveFamily_InviteCode(t *testing.T) {
	dir := newFakeDirectory()
	resolver := newResolver(dir, &fakeRemembered{})

	scope, err := resolver.ResolveFamily(context.Background(), identity.Hints{FamilyParam: "SUNNY42"})
	require.NoError(t, err)
	assert.Equal(t, famID, scope.FamilyID)
	assert.Equal(t, 1, dir.codeLookups)
}

func TestResolveFamily_EmailRejectedWithoutLookup(t *testing.T) {
	dir := newFakeDirectory()
	resolver := newResolver(dir, &fakeRemembered{})

	_, err := resolver.ResolveFamily(context.Background(), identity.Hints{FamilyParam: "parent@example.com"})
	assert.ErrorIs(t, err, identity.ErrNotFound)
	assert.Zero(t, dir.codeLookups, "email-shaped hint must never reach the code lookup")
}

func TestResolveFamily_RememberedFamily(t *testing.T) {
	dir := newFakeDirectory()
	resolver := newResolver(dir, &fakeRemembered{family: famID})

	scope, err := resolver.ResolveFamily(context.Background(), identity.Hints{})
	require.NoError(t, err)
	assert.Equal(t, famID, scope.FamilyID)
}

func TestResolveFamily_InferredFromRememberedChild(t *testing.T) {
	dir := newFakeDirectory()
	resolver := newResolver(dir, &fakeRemembered{child: legacy})

	scope, err := resolver.ResolveFamily(context.Background(), identity.Hints{})
	require.NoError(t, err)
	assert.Equal(t, famID, scope.FamilyID)
}

func TestResolveFamily_NoHints(t *testing.T) {
	resolver := newResolver(newFakeDirectory(), &fakeRemembered{})

	_, err := resolver.ResolveFamily(context.Background(), identity.Hints{})
	assert.ErrorIs(t, err, identity.ErrNotFound)
}

func TestResolveFamily_SourceFailureFallsThrough(t *testing.T) {
	// The explicit lookup fails, but the chain keeps going and still
	// exhausts cleanly instead of surfacing the source error.
	dir := newFakeDirectory()
	dir.failAll = true
	resolver := newResolver(dir, &fakeRemembered{family: famID})

	_, err := resolver.ResolveFamily(context.Background(), identity.Hints{FamilyParam: "SUNNY42"})
	assert.ErrorIs(t, err, identity.ErrNotFound)
}

func TestResolveFamily_UnknownCode(t *testing.T) {
	resolver := newResolver(newFakeDirectory(), &fakeRemembered{})

	_, err := resolver.ResolveFamily(context.Background(), identity.Hints{FamilyParam: "NOPE99"})
	assert.ErrorIs(t, err, identity.ErrNotFound)
}

func TestResolveChild_QRMatchesManualEntry(t *testing.T) {
	// A QR payload carrying the invite code and nickname must resolve
	// to the same child as entering them by hand.
	ctx := context.Background()

	qrResolver := newResolver(newFakeDirectory(), &fakeRemembered{})
	qrHints := identity.Hints{QRPayload: "https://app.goalnest.io/kid?fid=SUNNY42&nick=Maya"}
	qrScope, err := qrResolver.ResolveFamily(ctx, qrHints)
	require.NoError(t, err)
	qrChild, err := qrResolver.ResolveChild(ctx, qrScope, qrHints)
	require.NoError(t, err)

	manualResolver := newResolver(newFakeDirectory(), &fakeRemembered{})
	manualHints := identity.Hints{FamilyParam: "SUNNY42", Nickname: "Maya"}
	manualScope, err := manualResolver.ResolveFamily(ctx, manualHints)
	require.NoError(t, err)
	manualChild, err := manualResolver.ResolveChild(ctx, manualScope, manualHints)
	require.NoError(t, err)

	assert.Equal(t, manualChild, qrChild)
	assert.Equal(t, childID, qrChild.CanonicalID)
	assert.Equal(t, legacy, qrChild.LegacyUID)
}

func TestResolveFamily_MalformedQRPayload(t *testing.T) {
	dir := newFakeDirectory()
	resolver := newResolver(dir, &fakeRemembered{})

	_, err := resolver.ResolveFamily(context.Background(), identity.Hints{QRPayload: "::not a url::"})
	assert.ErrorIs(t, err, identity.ErrNotFound)
	assert.Zero(t, dir.codeLookups)
}

func TestResolveChild_ExplicitID(t *testing.T) {
	resolver := newResolver(newFakeDirectory(), &fakeRemembered{})
	scope := &models.FamilyScope{FamilyID: famID}

	child, err := resolver.ResolveChild(context.Background(), scope, identity.Hints{ChildParam: legacy})
	require.NoError(t, err)
	assert.Equal(t, childID, child.CanonicalID)
}

func TestResolveChild_ExplicitIDWrongFamily(t *testing.T) {
	resolver := newResolver(newFakeDirectory(), &fakeRemembered{})
	scope := &models.FamilyScope{FamilyID: "99999999-9999-9999-9999-999999999999"}

	_, err := resolver.ResolveChild(context.Background(), scope, identity.Hints{ChildParam: childID})
	assert.ErrorIs(t, err, identity.ErrNotFound)
}

func TestResolveChild_UnknownNicknameFailsClosed(t *testing.T) {
	// "Sam" is not in the family: the caller gets NotFound and falls
	// back to listing children, no silent default selection.
	resolver := newResolver(newFakeDirectory(), &fakeRemembered{})
	scope := &models.FamilyScope{FamilyID: famID}

	_, err := resolver.ResolveChild(context.Background(), scope, identity.Hints{Nickname: "Sam"})
	assert.ErrorIs(t, err, identity.ErrNotFound)
}

func TestResolveChild_RememberedChild(t *testing.T) {
	resolver := newResolver(newFakeDirectory(), &fakeRemembered{child: childID})
	scope := &models.FamilyScope{FamilyID: famID}

	child, err := resolver.ResolveChild(context.Background(), scope, identity.Hints{})
	require.NoError(t, err)
	assert.Equal(t, childID, child.CanonicalID)
}

func TestResolveChild_ListingDefault(t *testing.T) {
	resolver := newResolver(newFakeDirectory(), &fakeRemembered{})
	scope := &models.FamilyScope{FamilyID: famID}

	child, err := resolver.ResolveChild(context.Background(), scope, identity.Hints{})
	require.NoError(t, err)
	// First child by listing order, a selection default only.
	assert.Equal(t, childID, child.CanonicalID)
}

func TestResolveChild_EmptyFamily(t *testing.T) {
	dir := newFakeDirectory()
	dir.children = nil
	resolver := newResolver(dir, &fakeRemembered{})
	scope := &models.FamilyScope{FamilyID: famID}

	_, err := resolver.ResolveChild(context.Background(), scope, identity.Hints{})
	assert.ErrorIs(t, err, identity.ErrNotFound)
}
