package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type ExecutedMessage struct {
	BridgeID  string         `db:"bridge_id"`
	MsgHash   common.Hash    `db:"msg_hash"`
	MessageID common.Hash    `db:"message_id"`
	Executor  common.Address `db:"executor"`
	Status    bool           `db:"status"`
	GasUsed   uint64         `db:"gas_used"`
	TxHash    common.Hash    `db:"tx_hash"`
	CreatedAt *time.Time     `db:"created_at"`
	UpdatedAt *time.Time     `db:"updated_at"`
}

type ExecutedMessagesRepo interface {
	Insert(ctx context.Context, msg *ExecutedMessage) error
	GetByMsgHash(ctx context.Context, bridgeID string, msgHash common.Hash) (*ExecutedMessage, error)
}
