package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// SignedAffirmation is a single validator vote, SenderHash = keccak256(signer, msgHash).
type SignedAffirmation struct {
	BridgeID   string         `db:"bridge_id"`
	SenderHash common.Hash    `db:"sender_hash"`
	MsgHash    common.Hash    `db:"msg_hash"`
	Signer     common.Address `db:"signer"`
	TxHash     common.Hash    `db:"tx_hash"`
	CreatedAt  *time.Time     `db:"created_at"`
	UpdatedAt  *time.Time     `db:"updated_at"`
}

type SignedAffirmationsRepo interface {
	Insert(ctx context.Context, aff *SignedAffirmation) error
	IsSigned(ctx context.Context, bridgeID string, senderHash common.Hash) (bool, error)
	FindByMsgHash(ctx context.Context, bridgeID string, msgHash common.Hash) ([]*SignedAffirmation, error)
}
