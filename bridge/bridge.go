package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/amb-bridge/config"
	"github.com/omni/amb-bridge/db"
	"github.com/omni/amb-bridge/dispatcher"
	"github.com/omni/amb-bridge/entity"
	"github.com/omni/amb-bridge/logging"
	"github.com/omni/amb-bridge/repository"
	"github.com/omni/amb-bridge/validators"
)

// Call describes the host transaction a mutating bridge operation runs in.
type Call struct {
	From        common.Address
	TxHash      common.Hash
	BlockNumber uint
	Value       *big.Int
}

type Receipt struct {
	TxHash common.Hash
	Logs   []*entity.Log
}

type Dispatcher interface {
	Dispatch(ctx context.Context, call *dispatcher.Call) *dispatcher.Outcome
}

type Bridge struct {
	id         string
	address    common.Address
	chainID    uint64
	registry   common.Address
	funder     common.Address
	store      repository.Store
	validators validators.Set
	dispatcher Dispatcher
	logger     logging.Logger

	// serializes every operation on the bridge, the store only guarantees atomicity
	mu sync.Mutex
}

func NewBridge(cfg *config.BridgeConfig, store repository.Store, validatorSet validators.Set, d Dispatcher, logger logging.Logger) *Bridge {
	return &Bridge{
		id:         cfg.ID,
		address:    cfg.Address,
		chainID:    cfg.ChainID,
		registry:   cfg.ValidatorContractAddress,
		funder:     cfg.Funder,
		store:      store,
		validators: validatorSet,
		dispatcher: d,
		logger:     logger.WithField("bridge_id", cfg.ID),
	}
}

func (b *Bridge) ID() string {
	return b.id
}

func (b *Bridge) Address() common.Address {
	return b.address
}

func (b *Bridge) ChainID() uint64 {
	return b.chainID
}

// Funder is the account allowed to attach value to calls made through the node api.
func (b *Bridge) Funder() common.Address {
	return b.funder
}

type dispatchCtxKey struct{}

// withinDispatch marks ctx as belonging to a recipient invoked by a bridge. The bridge
// lock and the store unit of work are held for the whole dispatch.
func withinDispatch(ctx context.Context) context.Context {
	return context.WithValue(ctx, dispatchCtxKey{}, true)
}

func checkReentrancy(ctx context.Context) error {
	if ctx.Value(dispatchCtxKey{}) != nil {
		return ErrReentrantCall
	}
	return nil
}

type feeCharge struct {
	direction entity.Direction
	amount    *big.Int
}

type txContext struct {
	*Bridge
	ctx  context.Context
	repo *repository.Repo
	call *Call
	logs []*entity.Log
	fees []feeCharge
}

func (b *Bridge) transact(ctx context.Context, op string, call *Call, fn func(tx *txContext) error) (*Receipt, error) {
	if err := checkReentrancy(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if call == nil || call.TxHash == (common.Hash{}) {
		return nil, ErrInvalidTxHash
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	logger := b.logger.WithFields(logrus.Fields{
		"operation": op,
		"tx_hash":   call.TxHash,
		"from":      call.From,
	})
	var (
		logs []*entity.Log
		fees []feeCharge
	)
	err := b.store.Atomic(ctx, b.id, func(repo *repository.Repo) error {
		known, err := repo.Logs.FindByTxHash(ctx, call.TxHash)
		if err != nil {
			return fmt.Errorf("can't check transaction: %w", err)
		}
		if len(known) > 0 {
			return ErrKnownTransaction
		}
		tx := &txContext{
			Bridge: b,
			ctx:    logging.WithLogger(ctx, logger),
			repo:   repo,
			call:   call,
		}
		if err = fn(tx); err != nil {
			return err
		}
		if err = repo.Logs.Ensure(ctx, tx.logs...); err != nil {
			return fmt.Errorf("can't save logs: %w", err)
		}
		logs, fees = tx.logs, tx.fees
		return nil
	})
	ObserveOperation(b.id, op, err)
	if err != nil {
		logger.WithError(err).Debug("call rejected")
		return nil, err
	}
	for _, charge := range fees {
		ObserveFee(b.id, charge.direction, charge.amount)
	}
	logger.WithField("logs", len(logs)).Info("call applied")
	return &Receipt{TxHash: call.TxHash, Logs: logs}, nil
}

// view runs a read-only unit of work against the bridge state.
func (b *Bridge) view(ctx context.Context, fn func(repo *repository.Repo) error) error {
	if err := checkReentrancy(ctx); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.Atomic(ctx, b.id, fn)
}

func (b *Bridge) getState(ctx context.Context, repo *repository.Repo) (*entity.BridgeState, error) {
	state, err := repo.BridgeStates.GetByBridgeID(ctx, b.id)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, fmt.Errorf("can't load bridge state: %w", err)
	}
	return state, nil
}

func (tx *txContext) state() (*entity.BridgeState, error) {
	return tx.getState(tx.ctx, tx.repo)
}

func (tx *txContext) saveState(state *entity.BridgeState) error {
	if err := tx.repo.BridgeStates.Ensure(tx.ctx, state); err != nil {
		return fmt.Errorf("can't save bridge state: %w", err)
	}
	return nil
}

// stateOrEmpty is used by accessors, which report zero values before initialization.
func (b *Bridge) stateOrEmpty(ctx context.Context) (*entity.BridgeState, error) {
	var state *entity.BridgeState
	err := b.view(ctx, func(repo *repository.Repo) error {
		var err error
		state, err = b.getState(ctx, repo)
		if errors.Is(err, ErrNotInitialized) {
			state, err = &entity.BridgeState{BridgeID: b.id}, nil
		}
		return err
	})
	return state, err
}
