package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/omni/amb-bridge/db"
	"github.com/omni/amb-bridge/entity"
)

type bridgeStatesRepo basePostgresRepo

func NewBridgeStatesRepo(table string, db db.Querier) entity.BridgeStatesRepo {
	return (*bridgeStatesRepo)(newBasePostgresRepo(table, db))
}

func (r *bridgeStatesRepo) Ensure(ctx context.Context, state *entity.BridgeState) error {
	q, args, err := sq.Insert(r.table).
		Columns("bridge_id", "validator_contract", "max_per_tx", "min_per_tx", "gas_price", "required_block_confirmations",
			"deployed_at_block", "home_to_foreign_mode", "foreign_to_home_mode", "nonce").
		Values(state.BridgeID, state.ValidatorContract, state.MaxPerTx, state.MinPerTx, state.GasPrice, state.RequiredBlockConfirmations,
			state.DeployedAtBlock, state.HomeToForeignMode, state.ForeignToHomeMode, state.Nonce).
		Suffix("ON CONFLICT (bridge_id) DO UPDATE SET " +
			"max_per_tx = EXCLUDED.max_per_tx, " +
			"home_to_foreign_mode = EXCLUDED.home_to_foreign_mode, " +
			"foreign_to_home_mode = EXCLUDED.foreign_to_home_mode, " +
			"nonce = EXCLUDED.nonce, " +
			"updated_at = NOW()").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't update bridge state: %w", err)
	}
	return nil
}

func (r *bridgeStatesRepo) GetByBridgeID(ctx context.Context, bridgeID string) (*entity.BridgeState, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"bridge_id": bridgeID}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	state := new(entity.BridgeState)
	err = r.db.GetContext(ctx, state, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get bridge state: %w", err)
	}
	return state, nil
}
