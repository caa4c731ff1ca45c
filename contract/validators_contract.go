package contract

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/amb-bridge/contract/bridgeabi"
	"github.com/omni/amb-bridge/ethclient"
)

// ValidatorsContract reads validator membership from an on-chain BridgeValidators registry.
type ValidatorsContract struct {
	*Contract
}

func NewValidatorsContract(client ethclient.Client, addr common.Address) *ValidatorsContract {
	return &ValidatorsContract{NewContract(client, addr, bridgeabi.BridgeValidatorsABI)}
}

func (c *ValidatorsContract) IsValidator(ctx context.Context, addr common.Address) (bool, error) {
	res, err := c.Call(ctx, "isValidator", addr)
	if err != nil {
		return false, fmt.Errorf("can't check validator: %w", err)
	}
	isValidator, ok := res[0].(bool)
	if !ok {
		return false, fmt.Errorf("unexpected isValidator result type %T", res[0])
	}
	return isValidator, nil
}

func (c *ValidatorsContract) RequiredSignatures(ctx context.Context) (uint, error) {
	res, err := c.Call(ctx, "requiredSignatures")
	if err != nil {
		return 0, fmt.Errorf("can't obtain required signatures: %w", err)
	}
	n, ok := res[0].(*big.Int)
	if !ok || !n.IsUint64() {
		return 0, fmt.Errorf("unexpected requiredSignatures result %v", res[0])
	}
	return uint(n.Uint64()), nil
}

func (c *ValidatorsContract) Owner(ctx context.Context) (common.Address, error) {
	res, err := c.Call(ctx, "owner")
	if err != nil {
		return common.Address{}, fmt.Errorf("can't obtain validators owner: %w", err)
	}
	owner, ok := res[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected owner result type %T", res[0])
	}
	return owner, nil
}
