package bridge

import (
	"errors"

	"github.com/omni/amb-bridge/config"
	"github.com/omni/amb-bridge/message"
)

var (
	ErrBoundsViolation   = errors.New("gas limit is out of bounds")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrDuplicateVote     = errors.New("validator already affirmed this message")
	ErrAlreadyProcessed  = errors.New("message is already processed")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidRecipient  = errors.New("invalid recipient")
	ErrInvalidValue      = errors.New("invalid value")
	ErrNotInitialized    = errors.New("bridge is not initialized")
	ErrInvalidTxHash     = errors.New("call must carry a transaction hash")
	ErrKnownTransaction  = errors.New("transaction is already applied")
	ErrReentrantCall     = errors.New("bridge can't be called from a message recipient")

	ErrMalformedMessage = message.ErrMalformedMessage
	ErrInvalidConfig    = config.ErrInvalidConfig
)
