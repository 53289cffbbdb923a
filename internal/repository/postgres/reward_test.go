package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/egannguyen/salon-shop/backend/internal/entity"
)

func TestRewardAppend_MovesBalanceWithLedger(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(stmt(insertLedger)).
		WithArgs(sqlmock.AnyArg(), "u-1", int64(150), "EARNED", "o-1", "Earned on order", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(stmt(upsertBalance)).WithArgs("u-1", int64(150)).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(150))
	mock.ExpectCommit()

	entry := &entity.RewardEntry{UserID: "u-1", Points: 150, Type: entity.RewardEarned, OrderID: "o-1", Description: "Earned on order"}
	require.NoError(t, NewRewardRepository(db).Append(context.Background(), entry))
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestRewardAppend_OverdraftRollsBack(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(stmt(insertLedger)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(stmt(upsertBalance)).WithArgs("u-1", int64(-400)).
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(-100))
	mock.ExpectRollback()

	err := NewRewardRepository(db).Append(context.Background(), &entity.RewardEntry{UserID: "u-1", Points: -400, Type: entity.RewardRedeemed})
	assert.ErrorIs(t, err, entity.ErrInsufficientPoints)
}

func TestRewardAppend_LedgerWithoutOrderStoresNull(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(stmt(insertLedger)).
		WithArgs(sqlmock.AnyArg(), "u-1", int64(300), "ADJUSTED", nil, "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(stmt(upsertBalance)).WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(300))
	mock.ExpectCommit()

	err := NewRewardRepository(db).Append(context.Background(), &entity.RewardEntry{UserID: "u-1", Points: 300, Type: entity.RewardAdjusted})
	require.NoError(t, err)
}

func TestRewardBalance_MissingRowIsZero(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(stmt("SELECT balance FROM reward_balances")).WithArgs("u-new").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))

	balance, err := NewRewardRepository(db).Balance(context.Background(), "u-new")
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestRewardOrderPoints(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(stmt("SELECT COALESCE(SUM(points), 0) FROM reward_ledger WHERE order_id = $1")).
		WithArgs("o-1", "EARNED").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(220))

	points, err := NewRewardRepository(db).OrderPoints(context.Background(), "o-1", entity.RewardEarned)
	require.NoError(t, err)
	assert.Equal(t, int64(220), points)
}

func TestRewardRecompute_RewritesBalanceFromLedger(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectQuery(stmt("SELECT COALESCE(SUM(points), 0) FROM reward_ledger WHERE user_id = $1")).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(875))
	mock.ExpectExec(stmt(upsertBalance)).WithArgs("u-1", int64(875)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	balance, err := NewRewardRepository(db).Recompute(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, int64(875), balance)
}
