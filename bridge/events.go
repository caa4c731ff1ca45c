package bridge

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/amb-bridge/contract/bridgeabi"
	"github.com/omni/amb-bridge/entity"
)

const (
	eventUserRequestForSignature = "UserRequestForSignature"
	eventSignedForAffirmation    = "SignedForAffirmation"
	eventAffirmationCompleted    = "AffirmationCompleted"
	eventAffirmationFailed       = "AffirmationFailed"
	eventDepositedFor            = "DepositedFor"
	eventModeChanged             = "ModeChanged"
	eventMaxPerTxChanged         = "MaxPerTxChanged"
	eventBridgeInitialized       = "BridgeInitialized"
)

// emit appends an event log to the current call receipt.
func (tx *txContext) emit(event string, args ...interface{}) error {
	topics, data, err := bridgeabi.ArbitraryMessageABI.EncodeLog(event, args...)
	if err != nil {
		return fmt.Errorf("can't encode %s event: %w", event, err)
	}
	tx.logs = append(tx.logs, &entity.Log{
		BridgeID:        tx.id,
		Address:         tx.address,
		Topic0:          topicAt(topics, 0),
		Topic1:          topicAt(topics, 1),
		Topic2:          topicAt(topics, 2),
		Topic3:          topicAt(topics, 3),
		Data:            data,
		BlockNumber:     tx.call.BlockNumber,
		LogIndex:        uint(len(tx.logs)),
		TransactionHash: tx.call.TxHash,
	})
	return nil
}

func topicAt(topics []common.Hash, i int) *common.Hash {
	if i >= len(topics) {
		return nil
	}
	topic := topics[i]
	return &topic
}
