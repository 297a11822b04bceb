package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupWalletRepo(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *WalletRepository) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewWalletRepository(db, zap.NewNop())
	return db, mock, repo
}

func TestPrecomputedWallet_Success(t *testing.T) {
	db, mock, repo := setupWalletRepo(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"child_uid", "earned_points", "available_points"}).
		AddRow(testLegacyUID, 70, 40)

	ids := []string{testLegacyUID, testChildID}
	mock.ExpectQuery(`FROM child_wallets`).
		WithArgs(pq.Array(ids)).
		WillReturnRows(rows)

	agg, err := repo.PrecomputedWallet(context.Background(), ids)

	require.NoError(t, err)
	require.NotNil(t, agg)
	assert.Equal(t, 70, agg.EarnedPoints)
	assert.Equal(t, 40, agg.AvailablePoints)
}

func TestPrecomputedWallet_NoRow(t *testing.T) {
	db, mock, repo := setupWalletRepo(t)
	defer db.Close()

	ids := []string{testLegacyUID}
	mock.ExpectQuery(`FROM child_wallets`).
		WithArgs(pq.Array(ids)).
		WillReturnError(sql.ErrNoRows)

	agg, err := repo.PrecomputedWallet(context.Background(), ids)

	require.NoError(t, err)
	assert.Nil(t, agg)
}

func TestCompletedPoints_SumsPositiveRows(t *testing.T) {
	db, mock, repo := setupWalletRepo(t)
	defer db.Close()

	ids := []string{testLegacyUID, testChildID}
	mock.ExpectQuery(`FROM completed_activities`).
		WithArgs(pq.Array(ids)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(70))

	total, err := repo.CompletedPoints(context.Background(), ids)

	require.NoError(t, err)
	assert.Equal(t, 70, total)
}

func TestAcceptedOfferCost_Success(t *testing.T) {
	db, mock, repo := setupWalletRepo(t)
	defer db.Close()

	ids := []string{testLegacyUID}
	mock.ExpectQuery(`status = 'Accepted'`).
		WithArgs(pq.Array(ids)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(30))

	total, err := repo.AcceptedOfferCost(context.Background(), ids)

	require.NoError(t, err)
	assert.Equal(t, 30, total)
}

func TestPendingRedemptionCost_JoinsCatalog(t *testing.T) {
	db, mock, repo := setupWalletRepo(t)
	defer db.Close()

	ids := []string{testLegacyUID, testChildID}
	mock.ExpectQuery(`LEFT JOIN rewards`).
		WithArgs(pq.Array(ids)).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(15))

	total, err := repo.PendingRedemptionCost(context.Background(), ids)

	require.NoError(t, err)
	assert.Equal(t, 15, total)
}

func TestPendingRedemptionCost_QueryError(t *testing.T) {
	db, mock, repo := setupWalletRepo(t)
	defer db.Close()

	ids := []string{testLegacyUID}
	mock.ExpectQuery(`LEFT JOIN rewards`).
		WithArgs(pq.Array(ids)).
		WillReturnError(errors.New("connection refused"))

	total, err := repo.PendingRedemptionCost(context.Background(), ids)

	assert.Error(t, err)
	assert.Zero(t, total)
}
