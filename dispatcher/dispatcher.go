package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/amb-bridge/logging"
)

// PassMessageGas is the bookkeeping overhead granted on top of the message gas limit.
const PassMessageGas uint64 = 100000

const (
	// GasPerSecond converts a gas allowance into handler running time.
	GasPerSecond      = 10000000
	MinHandlerTimeout = time.Second
	MaxHandlerTimeout = 30 * time.Second
)

var (
	ErrUnknownExecutor = errors.New("no handler registered for executor")
	ErrOutOfGas        = errors.New("handler used more gas than allowed")
	ErrHandlerPanic    = errors.New("handler panicked")
	ErrHandlerTimeout  = errors.New("handler did not finish in time")
)

// Call is a single invocation of a recipient on behalf of the bridge.
type Call struct {
	Caller   common.Address
	Sender   common.Address
	Executor common.Address
	TxHash   common.Hash
	MsgHash  common.Hash
	Data     []byte
	Gas      uint64
}

type Result struct {
	GasUsed    uint64
	ReturnData []byte
}

type Handler interface {
	Handle(ctx context.Context, call *Call) (*Result, error)
}

type HandlerFunc func(ctx context.Context, call *Call) (*Result, error)

func (f HandlerFunc) Handle(ctx context.Context, call *Call) (*Result, error) {
	return f(ctx, call)
}

// Outcome is the terminal result of a dispatch. A failed outcome is final.
type Outcome struct {
	Status     bool
	GasUsed    uint64
	ReturnData []byte
	Err        error
}

type Registry struct {
	mu       sync.RWMutex
	handlers map[common.Address]Handler
	timeout  func(gas uint64) time.Duration
}

func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[common.Address]Handler),
		timeout:  HandlerTimeout,
	}
}

// SetTimeout replaces the function that bounds handler running time.
func (r *Registry) SetTimeout(timeout func(gas uint64) time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timeout = timeout
}

func (r *Registry) Register(executor common.Address, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[executor] = handler
}

func (r *Registry) Unregister(executor common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, executor)
}

func (r *Registry) handler(executor common.Address) (Handler, func(gas uint64) time.Duration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[executor]
	return h, r.timeout, ok
}

// GasAllowance returns the gas granted to a recipient for a message with the given gas limit.
func GasAllowance(gasLimit uint64) uint64 {
	if gasLimit > ^uint64(0)-PassMessageGas {
		return ^uint64(0)
	}
	return gasLimit + PassMessageGas
}

// HandlerTimeout grants MinHandlerTimeout plus one second per GasPerSecond of allowance,
// up to MaxHandlerTimeout.
func HandlerTimeout(gas uint64) time.Duration {
	extra := gas / GasPerSecond
	if extra >= uint64(MaxHandlerTimeout/time.Second) {
		return MaxHandlerTimeout
	}
	return MinHandlerTimeout + time.Duration(extra)*time.Second
}

// Dispatch invokes the executor handler exactly once. It never returns an error,
// every failure is reported through the Outcome.
func (r *Registry) Dispatch(ctx context.Context, call *Call) *Outcome {
	logger := logging.LoggerFromContext(ctx).WithFields(logrus.Fields{
		"executor": call.Executor,
		"sender":   call.Sender,
		"msg_hash": call.MsgHash,
		"gas":      call.Gas,
	})

	outcome := r.dispatch(WithMessage(ctx, call.Sender, call.TxHash), call)
	status := "ok"
	if !outcome.Status {
		status = "failed"
		logger.WithError(outcome.Err).Warn("message execution failed")
	} else {
		logger.WithField("gas_used", outcome.GasUsed).Debug("message executed")
	}
	DispatchResults.WithLabelValues(status).Inc()
	return outcome
}

func (r *Registry) dispatch(ctx context.Context, call *Call) *Outcome {
	h, timeout, ok := r.handler(call.Executor)
	if !ok {
		return &Outcome{Err: fmt.Errorf("executor %s: %w", call.Executor, ErrUnknownExecutor)}
	}

	// the handler outcome must not depend on the caller going away, only on its own deadline
	ctx, cancel := context.WithTimeout(detach(ctx), timeout(call.Gas))
	defer cancel()

	done := make(chan *Outcome, 1)
	go func() {
		done <- invoke(ctx, h, call)
	}()
	select {
	case outcome := <-done:
		return outcome
	case <-ctx.Done():
		return &Outcome{GasUsed: call.Gas, Err: fmt.Errorf("%w: %v", ErrHandlerTimeout, ctx.Err())}
	}
}

func invoke(ctx context.Context, h Handler, call *Call) (outcome *Outcome) {
	defer func() {
		if p := recover(); p != nil {
			outcome = &Outcome{GasUsed: call.Gas, Err: fmt.Errorf("%w: %v", ErrHandlerPanic, p)}
		}
	}()

	res, err := h.Handle(ctx, call)
	if res == nil {
		res = &Result{}
	}
	if err != nil {
		return &Outcome{GasUsed: res.GasUsed, Err: err}
	}
	if res.GasUsed > call.Gas {
		return &Outcome{GasUsed: call.Gas, Err: fmt.Errorf("used %d of %d: %w", res.GasUsed, call.Gas, ErrOutOfGas)}
	}
	return &Outcome{Status: true, GasUsed: res.GasUsed, ReturnData: res.ReturnData}
}
