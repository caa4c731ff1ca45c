package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/amb-bridge/db"
	"github.com/omni/amb-bridge/entity"
)

type affirmationRecordsRepo basePostgresRepo

func NewAffirmationRecordsRepo(table string, db db.Querier) entity.AffirmationRecordsRepo {
	return (*affirmationRecordsRepo)(newBasePostgresRepo(table, db))
}

func (r *affirmationRecordsRepo) Ensure(ctx context.Context, rec *entity.AffirmationRecord) error {
	q, args, err := sq.Insert(r.table).
		Columns("bridge_id", "msg_hash", "num_signed", "executed").
		Values(rec.BridgeID, rec.MsgHash, rec.NumSigned, rec.Executed).
		Suffix("ON CONFLICT (bridge_id, msg_hash) DO UPDATE SET num_signed = EXCLUDED.num_signed, executed = EXCLUDED.executed, updated_at = NOW()").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	_, err = r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert affirmation record: %w", err)
	}
	return nil
}

func (r *affirmationRecordsRepo) GetByMsgHash(ctx context.Context, bridgeID string, msgHash common.Hash) (*entity.AffirmationRecord, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"bridge_id": bridgeID, "msg_hash": msgHash}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	rec := new(entity.AffirmationRecord)
	err = r.db.GetContext(ctx, rec, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get affirmation record: %w", err)
	}
	return rec, nil
}
