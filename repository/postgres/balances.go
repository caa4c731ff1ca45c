package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/amb-bridge/db"
	"github.com/omni/amb-bridge/entity"
)

type balancesRepo basePostgresRepo

func NewBalancesRepo(table string, db db.Querier) entity.BalancesRepo {
	return (*balancesRepo)(newBasePostgresRepo(table, db))
}

func (r *balancesRepo) Ensure(ctx context.Context, balance *entity.Balance) error {
	q, args, err := sq.Insert(r.table).
		Columns("bridge_id", "address", "amount").
		Values(balance.BridgeID, balance.Address, balance.Amount).
		Suffix("ON CONFLICT (bridge_id, address) DO UPDATE SET amount = EXCLUDED.amount, updated_at = NOW()").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't update balance: %w", err)
	}
	return nil
}

func (r *balancesRepo) GetByAddress(ctx context.Context, bridgeID string, address common.Address) (*entity.Balance, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"bridge_id": bridgeID, "address": address}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	balance := new(entity.Balance)
	err = r.db.GetContext(ctx, balance, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get balance: %w", err)
	}
	return balance, nil
}
