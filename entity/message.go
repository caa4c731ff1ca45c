package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Direction string

const (
	DirectionForeignToHome Direction = "foreign_to_home"
	DirectionHomeToForeign Direction = "home_to_foreign"
)

type Message struct {
	BridgeID      string         `db:"bridge_id"`
	MsgHash       common.Hash    `db:"msg_hash"`
	TxHash        common.Hash    `db:"tx_hash"`
	Direction     Direction      `db:"direction"`
	SourceChainID uint64         `db:"source_chain_id"`
	Nonce         uint64         `db:"nonce"`
	Sender        common.Address `db:"sender"`
	Executor      common.Address `db:"executor"`
	GasLimit      uint64         `db:"gas_limit"`
	DataType      uint           `db:"data_type"`
	Data          []byte         `db:"data"`
	RawMessage    []byte         `db:"raw_message"`
	CreatedAt     *time.Time     `db:"created_at"`
	UpdatedAt     *time.Time     `db:"updated_at"`
}

type MessagesRepo interface {
	Ensure(ctx context.Context, msg *Message) error
	GetByMsgHash(ctx context.Context, bridgeID string, msgHash common.Hash) (*Message, error)
}
