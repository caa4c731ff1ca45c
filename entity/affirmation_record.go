package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type AffirmationRecord struct {
	BridgeID  string      `db:"bridge_id"`
	MsgHash   common.Hash `db:"msg_hash"`
	NumSigned uint        `db:"num_signed"`
	Executed  bool        `db:"executed"`
	CreatedAt *time.Time  `db:"created_at"`
	UpdatedAt *time.Time  `db:"updated_at"`
}

type AffirmationRecordsRepo interface {
	Ensure(ctx context.Context, rec *AffirmationRecord) error
	GetByMsgHash(ctx context.Context, bridgeID string, msgHash common.Hash) (*AffirmationRecord, error)
}
