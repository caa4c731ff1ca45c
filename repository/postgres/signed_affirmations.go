package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/amb-bridge/db"
	"github.com/omni/amb-bridge/entity"
)

type signedAffirmationsRepo basePostgresRepo

func NewSignedAffirmationsRepo(table string, db db.Querier) entity.SignedAffirmationsRepo {
	return (*signedAffirmationsRepo)(newBasePostgresRepo(table, db))
}

func (r *signedAffirmationsRepo) Insert(ctx context.Context, aff *entity.SignedAffirmation) error {
	q, args, err := sq.Insert(r.table).
		Columns("bridge_id", "sender_hash", "msg_hash", "signer", "tx_hash").
		Values(aff.BridgeID, aff.SenderHash, aff.MsgHash, aff.Signer, aff.TxHash).
		Suffix("ON CONFLICT (bridge_id, sender_hash) DO NOTHING").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return fmt.Errorf("can't build query: %w", err)
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("can't insert signed affirmation: %w", err)
	}
	return requireInserted(res, "signed affirmation")
}

func (r *signedAffirmationsRepo) IsSigned(ctx context.Context, bridgeID string, senderHash common.Hash) (bool, error) {
	q, args, err := sq.Select("COUNT(*) > 0").
		From(r.table).
		Where(sq.Eq{"bridge_id": bridgeID, "sender_hash": senderHash}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("can't build query: %w", err)
	}
	var signed bool
	err = r.db.GetContext(ctx, &signed, q, args...)
	if err != nil {
		return false, fmt.Errorf("can't check signed affirmation: %w", err)
	}
	return signed, nil
}

func (r *signedAffirmationsRepo) FindByMsgHash(ctx context.Context, bridgeID string, msgHash common.Hash) ([]*entity.SignedAffirmation, error) {
	q, args, err := sq.Select("*").
		From(r.table).
		Where(sq.Eq{"bridge_id": bridgeID, "msg_hash": msgHash}).
		OrderBy("signer").
		PlaceholderFormat(sq.Dollar).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build query: %w", err)
	}
	affs := make([]*entity.SignedAffirmation, 0, 4)
	err = r.db.SelectContext(ctx, &affs, q, args...)
	if err != nil {
		return nil, fmt.Errorf("can't get signed affirmations: %w", err)
	}
	return affs, nil
}
