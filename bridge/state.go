package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/omni/amb-bridge/entity"
)

// MinGasPerByte is the gas floor charged for every byte of message payload.
const MinGasPerByte = 68

const (
	VersionMajor = 1
	VersionMinor = 0
	VersionPatch = 0
)

var bridgeMode = crypto.Keccak256([]byte("arbitrary-message-bridge-core"))[:4]

type InitializeParams struct {
	ValidatorContract          common.Address
	MaxPerTx                   uint64
	MinPerTx                   uint64
	GasPrice                   *big.Int
	RequiredBlockConfirmations uint
	HomeToForeignMode          entity.FeeMode
	ForeignToHomeMode          entity.FeeMode
}

func (p *InitializeParams) validate() error {
	switch {
	case p.MaxPerTx == 0:
		return fmt.Errorf("max per tx must be positive: %w", ErrInvalidConfig)
	case p.MinPerTx > p.MaxPerTx:
		return fmt.Errorf("min per tx %d exceeds max per tx %d: %w", p.MinPerTx, p.MaxPerTx, ErrInvalidConfig)
	case p.GasPrice == nil || p.GasPrice.Sign() <= 0:
		return fmt.Errorf("gas price must be positive: %w", ErrInvalidConfig)
	case p.RequiredBlockConfirmations == 0:
		return fmt.Errorf("required block confirmations must be positive: %w", ErrInvalidConfig)
	case !p.HomeToForeignMode.IsValid() || !p.ForeignToHomeMode.IsValid():
		return fmt.Errorf("unknown fee mode: %w", ErrInvalidConfig)
	}
	return nil
}

// Initialize sets the bridge configuration once. Empty fee modes default to defrayal.
func (b *Bridge) Initialize(ctx context.Context, call *Call, params InitializeParams) (*Receipt, error) {
	if params.HomeToForeignMode == "" {
		params.HomeToForeignMode = entity.FeeModeDefrayal
	}
	if params.ForeignToHomeMode == "" {
		params.ForeignToHomeMode = entity.FeeModeDefrayal
	}
	return b.transact(ctx, "initialize", call, func(tx *txContext) error {
		_, err := tx.state()
		if err == nil {
			return fmt.Errorf("bridge is already initialized: %w", ErrUnauthorized)
		}
		if !errors.Is(err, ErrNotInitialized) {
			return err
		}
		if tx.validators == nil {
			return fmt.Errorf("validator set is not configured: %w", ErrInvalidConfig)
		}
		if err = params.validate(); err != nil {
			return err
		}
		if params.ValidatorContract != tx.registry {
			return fmt.Errorf("validator contract %s is not the configured registry %s: %w",
				params.ValidatorContract, tx.registry, ErrInvalidConfig)
		}
		err = tx.saveState(&entity.BridgeState{
			BridgeID:                   tx.id,
			ValidatorContract:          params.ValidatorContract,
			MaxPerTx:                   params.MaxPerTx,
			MinPerTx:                   params.MinPerTx,
			GasPrice:                   params.GasPrice.String(),
			RequiredBlockConfirmations: params.RequiredBlockConfirmations,
			DeployedAtBlock:            call.BlockNumber,
			HomeToForeignMode:          params.HomeToForeignMode,
			ForeignToHomeMode:          params.ForeignToHomeMode,
		})
		if err != nil {
			return err
		}
		return tx.emit(eventBridgeInitialized, params.ValidatorContract, new(big.Int).SetUint64(params.MaxPerTx),
			new(big.Int).Set(params.GasPrice), big.NewInt(int64(params.RequiredBlockConfirmations)))
	})
}

func (b *Bridge) IsInitialized(ctx context.Context) (bool, error) {
	state, err := b.stateOrEmpty(ctx)
	if err != nil {
		return false, err
	}
	return state.CreatedAt != nil, nil
}

func (b *Bridge) DeployedAtBlock(ctx context.Context) (uint, error) {
	state, err := b.stateOrEmpty(ctx)
	if err != nil {
		return 0, err
	}
	return state.DeployedAtBlock, nil
}

func (b *Bridge) ValidatorContract(ctx context.Context) (common.Address, error) {
	state, err := b.stateOrEmpty(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return state.ValidatorContract, nil
}

func (b *Bridge) MaxPerTx(ctx context.Context) (uint64, error) {
	state, err := b.stateOrEmpty(ctx)
	if err != nil {
		return 0, err
	}
	return state.MaxPerTx, nil
}

func (b *Bridge) MinPerTx(ctx context.Context) (uint64, error) {
	state, err := b.stateOrEmpty(ctx)
	if err != nil {
		return 0, err
	}
	return state.MinPerTx, nil
}

func (b *Bridge) GasPrice(ctx context.Context) (*big.Int, error) {
	state, err := b.stateOrEmpty(ctx)
	if err != nil {
		return nil, err
	}
	return parseAmount(state.GasPrice)
}

func (b *Bridge) RequiredBlockConfirmations(ctx context.Context) (uint, error) {
	state, err := b.stateOrEmpty(ctx)
	if err != nil {
		return 0, err
	}
	return state.RequiredBlockConfirmations, nil
}

func (b *Bridge) HomeToForeignMode(ctx context.Context) (entity.FeeMode, error) {
	state, err := b.stateOrEmpty(ctx)
	if err != nil {
		return "", err
	}
	return state.HomeToForeignMode, nil
}

func (b *Bridge) ForeignToHomeMode(ctx context.Context) (entity.FeeMode, error) {
	state, err := b.stateOrEmpty(ctx)
	if err != nil {
		return "", err
	}
	return state.ForeignToHomeMode, nil
}

// MinimumGasUsage is the payload-dependent part of the gas floor.
func MinimumGasUsage(data []byte) uint64 {
	return uint64(len(data)) * MinGasPerByte
}

func GetBridgeMode() [4]byte {
	var mode [4]byte
	copy(mode[:], bridgeMode)
	return mode
}

func GetBridgeInterfacesVersion() (major, minor, patch uint64) {
	return VersionMajor, VersionMinor, VersionPatch
}

func (b *Bridge) SetSubsidizedModeForHomeToForeign(ctx context.Context, call *Call) (*Receipt, error) {
	return b.setMode(ctx, "setSubsidizedModeForHomeToForeign", call, entity.DirectionHomeToForeign, entity.FeeModeSubsidized)
}

func (b *Bridge) SetSubsidizedModeForForeignToHome(ctx context.Context, call *Call) (*Receipt, error) {
	return b.setMode(ctx, "setSubsidizedModeForForeignToHome", call, entity.DirectionForeignToHome, entity.FeeModeSubsidized)
}

func (b *Bridge) SetDefrayalModeForHomeToForeign(ctx context.Context, call *Call) (*Receipt, error) {
	return b.setMode(ctx, "setDefrayalModeForHomeToForeign", call, entity.DirectionHomeToForeign, entity.FeeModeDefrayal)
}

func (b *Bridge) SetDefrayalModeForForeignToHome(ctx context.Context, call *Call) (*Receipt, error) {
	return b.setMode(ctx, "setDefrayalModeForForeignToHome", call, entity.DirectionForeignToHome, entity.FeeModeDefrayal)
}

func (b *Bridge) setMode(ctx context.Context, op string, call *Call, direction entity.Direction, mode entity.FeeMode) (*Receipt, error) {
	return b.transact(ctx, op, call, func(tx *txContext) error {
		state, err := tx.state()
		if err != nil {
			return err
		}
		if err = tx.requireOwner(); err != nil {
			return err
		}
		if direction == entity.DirectionHomeToForeign {
			state.HomeToForeignMode = mode
		} else {
			state.ForeignToHomeMode = mode
		}
		if err = tx.saveState(state); err != nil {
			return err
		}
		return tx.emit(eventModeChanged, string(direction), string(mode))
	})
}

func (b *Bridge) SetMaxPerTx(ctx context.Context, call *Call, maxPerTx uint64) (*Receipt, error) {
	return b.transact(ctx, "setMaxPerTx", call, func(tx *txContext) error {
		state, err := tx.state()
		if err != nil {
			return err
		}
		if err = tx.requireOwner(); err != nil {
			return err
		}
		if maxPerTx == 0 || maxPerTx < state.MinPerTx {
			return fmt.Errorf("max per tx %d is below min per tx %d: %w", maxPerTx, state.MinPerTx, ErrInvalidValue)
		}
		state.MaxPerTx = maxPerTx
		if err = tx.saveState(state); err != nil {
			return err
		}
		return tx.emit(eventMaxPerTxChanged, new(big.Int).SetUint64(maxPerTx))
	})
}

func (tx *txContext) requireOwner() error {
	owner, err := tx.validators.Owner(tx.ctx)
	if err != nil {
		return fmt.Errorf("can't get bridge owner: %w", err)
	}
	if tx.call.From != owner {
		return fmt.Errorf("%s is not the bridge owner: %w", tx.call.From, ErrUnauthorized)
	}
	return nil
}
