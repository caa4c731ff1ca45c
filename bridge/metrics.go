package bridge

import (
	"errors"
	"math/big"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/omni/amb-bridge/entity"
)

var (
	OperationResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "amb",
		Subsystem: "bridge",
		Name:      "operation_results_total",
		Help:      "Counts bridge calls by operation and result.",
	}, []string{"bridge_id", "operation", "result"})
	CollectedFees = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "amb",
		Subsystem: "bridge",
		Name:      "collected_fees_total",
		Help:      "Sum of fees charged from sender balances in defrayal mode, in wei.",
	}, []string{"bridge_id", "direction"})
	ExecutedMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "amb",
		Subsystem: "bridge",
		Name:      "executed_messages_total",
		Help:      "Counts messages that reached quorum, labeled by dispatch status.",
	}, []string{"bridge_id", "status"})
)

// ObserveFee counts a fee charged by a committed call.
func ObserveFee(bridgeID string, direction entity.Direction, amount *big.Int) {
	f, _ := new(big.Float).SetInt(amount).Float64()
	CollectedFees.WithLabelValues(bridgeID, string(direction)).Add(f)
}

func ObserveOperation(bridgeID, op string, err error) {
	OperationResults.WithLabelValues(bridgeID, op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	for _, known := range []error{
		ErrBoundsViolation, ErrUnauthorized, ErrDuplicateVote, ErrAlreadyProcessed,
		ErrInsufficientFunds, ErrInvalidRecipient, ErrInvalidValue, ErrNotInitialized,
		ErrMalformedMessage, ErrInvalidConfig, ErrKnownTransaction, ErrReentrantCall,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	if err != nil {
		return "error"
	}
	return "ok"
}
