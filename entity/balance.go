package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Balance keeps Amount as a decimal string so it maps onto a NUMERIC column.
type Balance struct {
	BridgeID  string         `db:"bridge_id"`
	Address   common.Address `db:"address"`
	Amount    string         `db:"amount"`
	CreatedAt *time.Time     `db:"created_at"`
	UpdatedAt *time.Time     `db:"updated_at"`
}

type BalancesRepo interface {
	Ensure(ctx context.Context, balance *Balance) error
	GetByAddress(ctx context.Context, bridgeID string, address common.Address) (*Balance, error)
}
