package presenter

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/omni/amb-bridge/bridge"
	"github.com/omni/amb-bridge/contract/bridgeabi"
	"github.com/omni/amb-bridge/entity"
	"github.com/omni/amb-bridge/logging"
	mw "github.com/omni/amb-bridge/presenter/http/middleware"
	"github.com/omni/amb-bridge/presenter/http/render"
	"github.com/omni/amb-bridge/utils"
)

// SigningPayload returns the bytes a caller signs to submit a call to the bridge at
// bridgeAddr: the bridge address, the big endian nonce and the calldata.
func SigningPayload(bridgeAddr common.Address, nonce uint64, data []byte) []byte {
	payload := make([]byte, 0, common.AddressLength+8+len(data))
	payload = append(payload, bridgeAddr[:]...)
	payload = binary.BigEndian.AppendUint64(payload, nonce)
	return append(payload, data...)
}

// CallTxHash identifies a signed call by its bridge, caller and nonce. Anything the
// caller did not sign, the signature bytes included, does not change it.
func CallTxHash(bridgeAddr, signer common.Address, nonce uint64) common.Hash {
	var n [8]byte
	binary.BigEndian.PutUint64(n[:], nonce)
	return crypto.Keccak256Hash(bridgeAddr[:], signer[:], n[:])
}

// PostCall applies a signed bridge call. The caller is recovered from the signature and
// the call is identified by CallTxHash.
func (p *Presenter) PostCall(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := mw.Bridge(ctx)

	var req CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		render.Error(w, r, http.StatusBadRequest, fmt.Errorf("can't decode call request: %w", err))
		return
	}
	signer, err := utils.RestoreSignerAddress(SigningPayload(b.Address(), req.Nonce, req.Data), req.Signature)
	if err != nil {
		render.Error(w, r, http.StatusBadRequest, err)
		return
	}
	method, args, err := bridgeabi.ArbitraryMessageABI.DecodeCall(req.Data)
	if err != nil {
		render.Error(w, r, errorStatus(err), err)
		return
	}

	call := &bridge.Call{
		From:        signer,
		TxHash:      CallTxHash(b.Address(), signer, req.Nonce),
		BlockNumber: req.BlockNumber,
		Value:       (*big.Int)(req.Value),
	}
	logging.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"method":  method.Sig,
		"from":    call.From,
		"tx_hash": call.TxHash,
	}).Debug("applying signed bridge call")

	receipt, err := p.applyCall(r, b, call, method, args)
	if err != nil {
		render.Error(w, r, errorStatus(err), err)
		return
	}
	render.JSON(w, r, http.StatusOK, &CallResult{
		TxHash: receipt.TxHash,
		From:   call.From,
		Method: method.Sig,
		Logs:   logsToResults(logging.LoggerFromContext(ctx), receipt.Logs),
	})
}

func (p *Presenter) applyCall(r *http.Request, b *bridge.Bridge, call *bridge.Call, method *abi.Method, args []interface{}) (*bridge.Receipt, error) {
	ctx := r.Context()
	if call.Value != nil && call.Value.Sign() != 0 {
		if method.Sig != bridgeabi.MethodDepositFor {
			return nil, fmt.Errorf("%s is not payable: %w", method.Sig, bridge.ErrInvalidValue)
		}
		// the value of a call is not backed by a transfer, only the funder vouches for it
		if funder := b.Funder(); funder == (common.Address{}) || call.From != funder {
			return nil, fmt.Errorf("%s can't attach value to calls: %w", call.From, bridge.ErrUnauthorized)
		}
	}

	switch method.Sig {
	case bridgeabi.MethodInitialize:
		params, err := initializeParams(args)
		if err != nil {
			return nil, err
		}
		return b.Initialize(ctx, call, *params)
	case bridgeabi.MethodRequireToPassMessage:
		gas, err := uint64Arg(args[2], "gas", bridge.ErrBoundsViolation)
		if err != nil {
			return nil, err
		}
		return b.RequireToPassMessage(ctx, call, args[0].(common.Address), args[1].([]byte), gas)
	case bridgeabi.MethodRequireToPassMessageWithGasPrice:
		gas, err := uint64Arg(args[2], "gas", bridge.ErrBoundsViolation)
		if err != nil {
			return nil, err
		}
		return b.RequireToPassMessageWithGasPrice(ctx, call, args[0].(common.Address), args[1].([]byte), gas, args[3].(*big.Int))
	case bridgeabi.MethodRequireToPassMessageWithSpeed:
		gas, err := uint64Arg(args[2], "gas", bridge.ErrBoundsViolation)
		if err != nil {
			return nil, err
		}
		speed := args[3].([1]byte)
		return b.RequireToPassMessageWithSpeed(ctx, call, args[0].(common.Address), args[1].([]byte), gas, speed[0])
	case bridgeabi.MethodExecuteAffirmation:
		return b.ExecuteAffirmation(ctx, call, args[0].([]byte))
	case bridgeabi.MethodDepositFor:
		return b.DepositFor(ctx, call, args[0].(common.Address))
	case bridgeabi.MethodSetSubsidizedModeForHomeToForeign:
		return b.SetSubsidizedModeForHomeToForeign(ctx, call)
	case bridgeabi.MethodSetSubsidizedModeForForeignToHome:
		return b.SetSubsidizedModeForForeignToHome(ctx, call)
	case bridgeabi.MethodSetDefrayalModeForHomeToForeign:
		return b.SetDefrayalModeForHomeToForeign(ctx, call)
	case bridgeabi.MethodSetDefrayalModeForForeignToHome:
		return b.SetDefrayalModeForForeignToHome(ctx, call)
	case bridgeabi.MethodSetMaxPerTx:
		maxPerTx, err := uint64Arg(args[0], "maxPerTx", bridge.ErrInvalidValue)
		if err != nil {
			return nil, err
		}
		return b.SetMaxPerTx(ctx, call, maxPerTx)
	default:
		return nil, fmt.Errorf("%s is a read-only method: %w", method.Sig, bridge.ErrInvalidValue)
	}
}

func initializeParams(args []interface{}) (*bridge.InitializeParams, error) {
	maxPerTx, err := uint64Arg(args[1], "maxPerTx", bridge.ErrInvalidConfig)
	if err != nil {
		return nil, err
	}
	minPerTx, err := uint64Arg(args[2], "minPerTx", bridge.ErrInvalidConfig)
	if err != nil {
		return nil, err
	}
	confirmations, err := uint64Arg(args[4], "requiredBlockConfirmations", bridge.ErrInvalidConfig)
	if err != nil {
		return nil, err
	}
	return &bridge.InitializeParams{
		ValidatorContract:          args[0].(common.Address),
		MaxPerTx:                   maxPerTx,
		MinPerTx:                   minPerTx,
		GasPrice:                   args[3].(*big.Int),
		RequiredBlockConfirmations: uint(confirmations),
		HomeToForeignMode:          entity.FeeModeDefrayal,
		ForeignToHomeMode:          entity.FeeModeDefrayal,
	}, nil
}
