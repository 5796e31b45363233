package repository_test

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saveplate/marketplace/internal/model"
	"github.com/saveplate/marketplace/internal/repository"
)

var txCols = []string{"id", "product_id", "buyer_id", "seller_id", "status", "amount_cents",
	"service_fee_cents", "payment_ref", "paid_at", "created_at", "updated_at"}

func txRow(id uint64, status string, created time.Time) []driver.Value {
	return []driver.Value{id, uint64(10), uint64(2), uint64(1), status, uint32(500), uint32(25), nil, nil, created, created}
}

func TestTransactionRepoCreateTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewTransactionRepo(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO transactions")).
		WithArgs(uint64(10), uint64(2), uint64(1), model.TxReserved, uint32(500), uint32(25)).
		WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM transactions WHERE id = ?")).
		WithArgs(uint64(7)).
		WillReturnRows(sqlmock.NewRows(txCols).AddRow(txRow(7, model.TxReserved, now)...))

	tx, err := db.Begin()
	require.NoError(t, err)
	rec := model.Transaction{ProductID: 10, BuyerID: 2, SellerID: 1, AmountCents: 500, ServiceFeeCents: 25}
	require.NoError(t, repo.CreateTx(ctx, tx, &rec))

	assert.Equal(t, uint64(7), rec.ID)
	assert.Equal(t, model.TxReserved, rec.Status)
	assert.Equal(t, now, rec.CreatedAt)
	assert.Nil(t, rec.PaymentRef)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepoGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewTransactionRepo(db)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)
		mock.ExpectQuery(regexp.QuoteMeta("FROM transactions WHERE id = ?")).
			WithArgs(uint64(7)).
			WillReturnRows(sqlmock.NewRows(txCols).AddRow(txRow(7, model.TxConfirmed, now)...))

		rec, err := repo.GetByID(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, model.TxConfirmed, rec.Status)
		assert.Equal(t, uint64(10), rec.ProductID)
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM transactions WHERE id = ?")).
			WithArgs(uint64(99)).
			WillReturnRows(sqlmock.NewRows(txCols))

		_, err := repo.GetByID(ctx, 99)
		assert.ErrorIs(t, err, repository.ErrTransactionNotFound)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepoLatestByProduct(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewTransactionRepo(db)
	ctx := context.Background()

	t.Run("LatestWins", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE product_id = ? ORDER BY id DESC LIMIT 1")).
			WithArgs(uint64(10)).
			WillReturnRows(sqlmock.NewRows(txCols).AddRow(txRow(9, model.TxReserved, now)...))

		rec, err := repo.LatestByProduct(ctx, 10)
		require.NoError(t, err)
		assert.Equal(t, uint64(9), rec.ID)
	})

	t.Run("NoLineage", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE product_id = ? ORDER BY id DESC LIMIT 1")).
			WithArgs(uint64(11)).
			WillReturnRows(sqlmock.NewRows(txCols))

		_, err := repo.LatestByProduct(ctx, 11)
		assert.ErrorIs(t, err, repository.ErrTransactionNotFound)
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepoMarkPaidTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewTransactionRepo(db)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE transactions SET status=?, payment_ref=?, paid_at=NOW() WHERE id=?")).
		WithArgs(model.TxPending, "ref-abc", uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.MarkPaidTx(ctx, tx, 7, "ref-abc"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionRepoCountCompletedByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewTransactionRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM transactions WHERE status = 'COMPLETED'")).
		WithArgs(uint64(2), uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(10)))

	n, err := repo.CountCompletedByUser(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(10), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
