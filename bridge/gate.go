package bridge

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/amb-bridge/entity"
	"github.com/omni/amb-bridge/message"
)

// RequireToPassMessage accepts a message for relay to the foreign chain. The fee, if any,
// is priced with the configured gas price.
func (b *Bridge) RequireToPassMessage(ctx context.Context, call *Call, executor common.Address, data []byte, gas uint64) (*Receipt, error) {
	return b.requireToPassMessage(ctx, call, &message.Message{
		Executor: executor,
		GasLimit: gas,
		DataType: message.DataTypeNone,
		Data:     data,
	})
}

// RequireToPassMessageWithGasPrice is like RequireToPassMessage, but the gas price is chosen
// by the caller and travels in the envelope.
func (b *Bridge) RequireToPassMessageWithGasPrice(ctx context.Context, call *Call, executor common.Address, data []byte, gas uint64, gasPrice *big.Int) (*Receipt, error) {
	if gasPrice == nil || gasPrice.Sign() < 0 {
		return nil, fmt.Errorf("gas price must be non-negative: %w", ErrInvalidValue)
	}
	return b.requireToPassMessage(ctx, call, &message.Message{
		Executor: executor,
		GasLimit: gas,
		DataType: message.DataTypeGasPrice,
		GasPrice: new(big.Int).Set(gasPrice),
		Data:     data,
	})
}

// RequireToPassMessageWithSpeed lets the foreign side pick the gas price from an oracle
// according to speed. Fees are priced with the configured gas price.
func (b *Bridge) RequireToPassMessageWithSpeed(ctx context.Context, call *Call, executor common.Address, data []byte, gas uint64, speed byte) (*Receipt, error) {
	return b.requireToPassMessage(ctx, call, &message.Message{
		Executor:      executor,
		GasLimit:      gas,
		DataType:      message.DataTypeGasPriceSpeed,
		GasPriceSpeed: speed,
		Data:          data,
	})
}

func (b *Bridge) requireToPassMessage(ctx context.Context, call *Call, msg *message.Message) (*Receipt, error) {
	return b.transact(ctx, "requireToPassMessage", call, func(tx *txContext) error {
		state, err := tx.state()
		if err != nil {
			return err
		}
		minGas := MinimumGasUsage(msg.Data)
		if minGas < state.MinPerTx {
			minGas = state.MinPerTx
		}
		if msg.GasLimit < minGas || msg.GasLimit > state.MaxPerTx {
			return fmt.Errorf("gas %d is not in [%d, %d]: %w", msg.GasLimit, minGas, state.MaxPerTx, ErrBoundsViolation)
		}

		if state.HomeToForeignMode == entity.FeeModeDefrayal {
			price, err := priceOf(msg, state)
			if err != nil {
				return err
			}
			if err = tx.chargeFeeFrom(call.From, fee(msg.GasLimit, price), entity.DirectionHomeToForeign); err != nil {
				return err
			}
		}

		msg.Sender = call.From
		msg.SourceChainID = tx.chainID
		msg.Nonce = state.Nonce
		state.Nonce++
		if err = tx.saveState(state); err != nil {
			return err
		}

		encoded := message.Encode(msg)
		err = tx.repo.Messages.Ensure(tx.ctx, newMessageRecord(tx.id, entity.DirectionHomeToForeign, msg, encoded, message.Hash(encoded)))
		if err != nil {
			return fmt.Errorf("can't save message: %w", err)
		}
		return tx.emit(eventUserRequestForSignature, encoded)
	})
}

// priceOf returns the gas price a message fee is computed with.
func priceOf(msg *message.Message, state *entity.BridgeState) (*big.Int, error) {
	if msg.DataType == message.DataTypeGasPrice && msg.GasPrice != nil {
		return msg.GasPrice, nil
	}
	return parseAmount(state.GasPrice)
}

func newMessageRecord(bridgeID string, direction entity.Direction, msg *message.Message, encoded []byte, msgHash common.Hash) *entity.Message {
	return &entity.Message{
		BridgeID:      bridgeID,
		MsgHash:       msgHash,
		TxHash:        msg.TxHash,
		Direction:     direction,
		SourceChainID: msg.SourceChainID,
		Nonce:         msg.Nonce,
		Sender:        msg.Sender,
		Executor:      msg.Executor,
		GasLimit:      msg.GasLimit,
		DataType:      uint(msg.DataType),
		Data:          msg.Data,
		RawMessage:    encoded,
	}
}
