package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type BridgeState struct {
	BridgeID                   string         `db:"bridge_id"`
	ValidatorContract          common.Address `db:"validator_contract"`
	MaxPerTx                   uint64         `db:"max_per_tx"`
	MinPerTx                   uint64         `db:"min_per_tx"`
	GasPrice                   string         `db:"gas_price"`
	RequiredBlockConfirmations uint           `db:"required_block_confirmations"`
	DeployedAtBlock            uint           `db:"deployed_at_block"`
	HomeToForeignMode          FeeMode        `db:"home_to_foreign_mode"`
	ForeignToHomeMode          FeeMode        `db:"foreign_to_home_mode"`
	Nonce                      uint64         `db:"nonce"`
	CreatedAt                  *time.Time     `db:"created_at"`
	UpdatedAt                  *time.Time     `db:"updated_at"`
}

type BridgeStatesRepo interface {
	Ensure(ctx context.Context, state *BridgeState) error
	GetByBridgeID(ctx context.Context, bridgeID string) (*BridgeState, error)
}
