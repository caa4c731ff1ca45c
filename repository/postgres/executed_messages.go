package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/amb-bridge/db"
	"github.com/omni/amb-bridge/entity"
)

type executedMessagesRepo basePostgresRepo

func NewExecutedMessagesRepo(table string, db db.Querier) entity.ExecutedMessagesRepo {
	return (*executedMessagesRepo)(newBasePostgresRepo(table, db))
}

func (r *executedMessagesRepo) Insert(ctx context.Context, msg *entity.ExecutedMessage) error {
	q, args, err := sq.Insert(r.table).
		Columns("bridge_id", "msg_hash", "message_id", "executor", "status", "gas_used", "tx_hash").
		Values(msg.BridgeID, msg.MsgHash, msg.MessageID, msg.Executor, msg.Status, msg.GasUsed, msg.TxHash).
		Suffix("ON CONFLICT (bridge_id, msg_hash) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert executed message: %w", err)
	}
	return requireInserted(res, "executed message")
}

func (r *executedMessagesRepo) GetByMsgHash(ctx context.Context, bridgeID string, msgHash common.Hash) (*entity.ExecutedMessage, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"bridge_id": bridgeID, "msg_hash": msgHash}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	msg := new(entity.ExecutedMessage)
	err = r.db.GetContext(ctx, msg, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get executed message: %w", err)
	}
	return msg, nil
}
