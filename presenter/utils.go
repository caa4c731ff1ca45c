package presenter

import (
	"errors"
	"fmt"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/omni/amb-bridge/bridge"
	"github.com/omni/amb-bridge/contract/abi"
	"github.com/omni/amb-bridge/contract/bridgeabi"
	"github.com/omni/amb-bridge/db"
	"github.com/omni/amb-bridge/entity"
	"github.com/omni/amb-bridge/logging"
)

var errorStatuses = []struct {
	err    error
	status int
}{
	{db.ErrNotFound, http.StatusNotFound},
	{bridge.ErrUnauthorized, http.StatusForbidden},
	{bridge.ErrInsufficientFunds, http.StatusPaymentRequired},
	{bridge.ErrNotInitialized, http.StatusPreconditionFailed},
	{bridge.ErrKnownTransaction, http.StatusConflict},
	{bridge.ErrAlreadyProcessed, http.StatusConflict},
	{bridge.ErrDuplicateVote, http.StatusConflict},
	{bridge.ErrInvalidTxHash, http.StatusBadRequest},
	{bridge.ErrMalformedMessage, http.StatusBadRequest},
	{bridge.ErrBoundsViolation, http.StatusBadRequest},
	{bridge.ErrInvalidValue, http.StatusBadRequest},
	{bridge.ErrInvalidRecipient, http.StatusBadRequest},
	{bridge.ErrInvalidConfig, http.StatusBadRequest},
	{abi.ErrUnknownMethod, http.StatusBadRequest},
}

func errorStatus(err error) int {
	for _, e := range errorStatuses {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

func logToResult(logger logging.Logger, log *entity.Log) *LogResult {
	res := &LogResult{
		LogID:       log.ID,
		Address:     log.Address,
		Topic0:      log.Topic0,
		Topic1:      log.Topic1,
		Topic2:      log.Topic2,
		Topic3:      log.Topic3,
		Data:        log.Data,
		TxHash:      log.TransactionHash,
		BlockNumber: log.BlockNumber,
		LogIndex:    log.LogIndex,
	}
	event, values, err := bridgeabi.ArbitraryMessageABI.ParseLog(log)
	if err != nil {
		logger.WithError(err).WithField("log_id", log.ID).Warn("can't parse bridge log")
		return res
	}
	res.Event = event
	res.Values = make(map[string]interface{}, len(values))
	for name, value := range values {
		res.Values[name] = normalizeValue(value)
	}
	return res
}

func logsToResults(logger logging.Logger, logs []*entity.Log) []*LogResult {
	res := make([]*LogResult, len(logs))
	for i, log := range logs {
		res[i] = logToResult(logger, log)
	}
	return res
}

// normalizeValue converts decoded event arguments into types with hex JSON encoding.
func normalizeValue(value interface{}) interface{} {
	switch v := value.(type) {
	case [32]byte:
		return common.Hash(v)
	case []byte:
		return hexutil.Bytes(v)
	case *big.Int:
		return v.String()
	default:
		return v
	}
}

func messageToInfo(msg *entity.Message) *MessageInfo {
	return &MessageInfo{
		BridgeID:      msg.BridgeID,
		MsgHash:       msg.MsgHash,
		TxHash:        msg.TxHash,
		Direction:     msg.Direction,
		SourceChainID: msg.SourceChainID,
		Nonce:         msg.Nonce,
		Sender:        msg.Sender,
		Executor:      msg.Executor,
		GasLimit:      msg.GasLimit,
		DataType:      msg.DataType,
		Data:          msg.Data,
		RawMessage:    msg.RawMessage,
	}
}

func uint64Arg(v interface{}, name string, errKind error) (uint64, error) {
	n, ok := v.(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected %s argument type %T", name, v)
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("%s %s does not fit into uint64: %w", name, n, errKind)
	}
	return n.Uint64(), nil
}
