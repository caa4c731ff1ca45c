package bridge

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/amb-bridge/entity"
	"github.com/omni/amb-bridge/repository"
)

func (b *Bridge) Message(ctx context.Context, msgHash common.Hash) (*entity.Message, error) {
	var msg *entity.Message
	err := b.view(ctx, func(repo *repository.Repo) error {
		var err error
		msg, err = repo.Messages.GetByMsgHash(ctx, b.id, msgHash)
		return err
	})
	return msg, err
}

func (b *Bridge) ExecutedMessage(ctx context.Context, msgHash common.Hash) (*entity.ExecutedMessage, error) {
	var msg *entity.ExecutedMessage
	err := b.view(ctx, func(repo *repository.Repo) error {
		var err error
		msg, err = repo.ExecutedMessages.GetByMsgHash(ctx, b.id, msgHash)
		return err
	})
	return msg, err
}

func (b *Bridge) SignedAffirmations(ctx context.Context, msgHash common.Hash) ([]*entity.SignedAffirmation, error) {
	var res []*entity.SignedAffirmation
	err := b.view(ctx, func(repo *repository.Repo) error {
		var err error
		res, err = repo.SignedAffirmations.FindByMsgHash(ctx, b.id, msgHash)
		return err
	})
	return res, err
}

// Logs returns the events emitted by the bridge in the given transaction.
func (b *Bridge) Logs(ctx context.Context, txHash common.Hash) ([]*entity.Log, error) {
	var res []*entity.Log
	err := b.view(ctx, func(repo *repository.Repo) error {
		logs, err := repo.Logs.FindByTxHash(ctx, txHash)
		for _, log := range logs {
			if log.BridgeID == b.id {
				res = append(res, log)
			}
		}
		return err
	})
	return res, err
}

// LogsInRange returns the bridge events emitted in blocks [fromBlock, toBlock].
func (b *Bridge) LogsInRange(ctx context.Context, fromBlock, toBlock uint) ([]*entity.Log, error) {
	var res []*entity.Log
	err := b.view(ctx, func(repo *repository.Repo) error {
		var err error
		res, err = repo.Logs.FindByBlockRange(ctx, b.id, fromBlock, toBlock)
		return err
	})
	return res, err
}
