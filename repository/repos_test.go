package repository_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/omni/amb-bridge/db"
	"github.com/omni/amb-bridge/entity"
	"github.com/omni/amb-bridge/repository"
)

func TestMemoryStore_Atomic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := repository.NewMemoryStore()
	addr := common.HexToAddress("0x01")
	errAbort := errors.New("abort")

	err := store.Atomic(ctx, "test", func(repo *repository.Repo) error {
		return repo.Balances.Ensure(ctx, &entity.Balance{BridgeID: "test", Address: addr, Amount: "10"})
	})
	require.NoError(t, err)

	err = store.Atomic(ctx, "test", func(repo *repository.Repo) error {
		require.NoError(t, repo.Balances.Ensure(ctx, &entity.Balance{BridgeID: "test", Address: addr, Amount: "0"}))
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)

	err = store.Atomic(ctx, "test", func(repo *repository.Repo) error {
		balance, err := repo.Balances.GetByAddress(ctx, "test", addr)
		require.NoError(t, err)
		require.Equal(t, "10", balance.Amount)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStore_AtomicPanic(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := repository.NewMemoryStore()
	addr := common.HexToAddress("0x01")

	require.Panics(t, func() {
		_ = store.Atomic(ctx, "test", func(repo *repository.Repo) error {
			_ = repo.Balances.Ensure(ctx, &entity.Balance{BridgeID: "test", Address: addr, Amount: "10"})
			panic("boom")
		})
	})

	err := store.Atomic(ctx, "test", func(repo *repository.Repo) error {
		_, err := repo.Balances.GetByAddress(ctx, "test", addr)
		return err
	})
	require.ErrorIs(t, err, db.ErrNotFound)
}

func TestPostgresStore_Atomic(t *testing.T) {
	t.Parallel()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()
	store := repository.NewPostgresStore(db.WrapDB(sqlx.NewDb(conn, "sqlmock")))

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WithArgs("test").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO balances`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err = store.Atomic(context.Background(), "test", func(repo *repository.Repo) error {
		return repo.Balances.Ensure(context.Background(), &entity.Balance{BridgeID: "test", Amount: "1"})
	})
	require.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	errAbort := errors.New("abort")
	err = store.Atomic(context.Background(), "test", func(repo *repository.Repo) error {
		return errAbort
	})
	require.ErrorIs(t, err, errAbort)
	require.NoError(t, mock.ExpectationsWereMet())
}
