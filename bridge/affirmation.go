package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/amb-bridge/db"
	"github.com/omni/amb-bridge/dispatcher"
	"github.com/omni/amb-bridge/entity"
	"github.com/omni/amb-bridge/logging"
	"github.com/omni/amb-bridge/message"
	"github.com/omni/amb-bridge/repository"
)

// ExecuteAffirmation records a validator vote for a message relayed from the foreign chain.
// The vote that reaches the required signatures executes the message. A failed execution
// is final and does not fail the call.
func (b *Bridge) ExecuteAffirmation(ctx context.Context, call *Call, encoded []byte) (*Receipt, error) {
	return b.transact(ctx, "executeAffirmation", call, func(tx *txContext) error {
		state, err := tx.state()
		if err != nil {
			return err
		}
		isValidator, err := tx.validators.IsValidator(tx.ctx, call.From)
		if err != nil {
			return fmt.Errorf("can't check validator: %w", err)
		}
		if !isValidator {
			return fmt.Errorf("%s is not a validator: %w", call.From, ErrUnauthorized)
		}
		msg, err := message.Decode(encoded)
		if err != nil {
			return err
		}
		if msg.TxHash == (common.Hash{}) {
			return fmt.Errorf("message %s was never relayed: %w", msg.MsgHash, ErrMalformedMessage)
		}
		rec, err := tx.affirmationRecord(msg.MsgHash)
		if err != nil {
			return err
		}
		if rec.Executed {
			return fmt.Errorf("message %s: %w", msg.MsgHash, ErrAlreadyProcessed)
		}
		senderHash := message.SenderHash(call.From, msg.MsgHash)
		signed, err := tx.repo.SignedAffirmations.IsSigned(tx.ctx, tx.id, senderHash)
		if err != nil {
			return fmt.Errorf("can't check signed affirmation: %w", err)
		}
		if signed {
			return fmt.Errorf("message %s: %w", msg.MsgHash, ErrDuplicateVote)
		}
		required, err := tx.validators.RequiredSignatures(tx.ctx)
		if err != nil {
			return fmt.Errorf("can't get required signatures: %w", err)
		}
		if required == 0 {
			return fmt.Errorf("required signatures is zero: %w", ErrInvalidConfig)
		}
		quorum := rec.NumSigned+1 >= required

		var execFee *big.Int
		if quorum && state.ForeignToHomeMode == entity.FeeModeDefrayal {
			price, err := priceOf(msg, state)
			if err != nil {
				return err
			}
			execFee = fee(msg.GasLimit, price)
			if _, err = tx.requireFunds(msg.Sender, execFee); err != nil {
				return err
			}
		}

		err = tx.repo.SignedAffirmations.Insert(tx.ctx, &entity.SignedAffirmation{
			BridgeID:   tx.id,
			SenderHash: senderHash,
			MsgHash:    msg.MsgHash,
			Signer:     call.From,
			TxHash:     call.TxHash,
		})
		if err != nil {
			return fmt.Errorf("can't save signed affirmation: %w", err)
		}
		err = tx.repo.Messages.Ensure(tx.ctx, newMessageRecord(tx.id, entity.DirectionForeignToHome, msg, encoded, msg.MsgHash))
		if err != nil {
			return fmt.Errorf("can't save message: %w", err)
		}
		rec.NumSigned++
		if err = tx.emit(eventSignedForAffirmation, call.From, msg.MsgHash); err != nil {
			return err
		}

		if !quorum {
			return tx.saveAffirmationRecord(rec)
		}
		rec.Executed = true
		if err = tx.saveAffirmationRecord(rec); err != nil {
			return err
		}
		if execFee != nil {
			if err = tx.chargeFeeFrom(msg.Sender, execFee, entity.DirectionForeignToHome); err != nil {
				return err
			}
			if err = tx.credit(call.From, execFee); err != nil {
				return err
			}
		}
		return tx.execute(msg)
	})
}

func (tx *txContext) execute(msg *message.Message) error {
	outcome := tx.dispatcher.Dispatch(withinDispatch(tx.ctx), &dispatcher.Call{
		Caller:   tx.address,
		Sender:   msg.Sender,
		Executor: msg.Executor,
		TxHash:   msg.TxHash,
		MsgHash:  msg.MsgHash,
		Data:     msg.Data,
		Gas:      dispatcher.GasAllowance(msg.GasLimit),
	})
	err := tx.repo.ExecutedMessages.Insert(tx.ctx, &entity.ExecutedMessage{
		BridgeID:  tx.id,
		MsgHash:   msg.MsgHash,
		MessageID: msg.TxHash,
		Executor:  msg.Executor,
		Status:    outcome.Status,
		GasUsed:   outcome.GasUsed,
		TxHash:    tx.call.TxHash,
	})
	if err != nil {
		return fmt.Errorf("can't save executed message: %w", err)
	}

	event, status := eventAffirmationCompleted, "completed"
	if !outcome.Status {
		event, status = eventAffirmationFailed, "failed"
		logging.LoggerFromContext(tx.ctx).WithError(outcome.Err).WithFields(logrus.Fields{
			"msg_hash": msg.MsgHash,
			"executor": msg.Executor,
		}).Warn("affirmed message execution failed")
	}
	ExecutedMessages.WithLabelValues(tx.id, status).Inc()
	return tx.emit(event, msg.Sender, msg.Executor, msg.TxHash)
}

func (tx *txContext) affirmationRecord(msgHash common.Hash) (*entity.AffirmationRecord, error) {
	rec, err := tx.repo.AffirmationRecords.GetByMsgHash(tx.ctx, tx.id, msgHash)
	if errors.Is(err, db.ErrNotFound) {
		return &entity.AffirmationRecord{BridgeID: tx.id, MsgHash: msgHash}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("can't get affirmation record: %w", err)
	}
	return rec, nil
}

func (tx *txContext) saveAffirmationRecord(rec *entity.AffirmationRecord) error {
	if err := tx.repo.AffirmationRecords.Ensure(tx.ctx, rec); err != nil {
		return fmt.Errorf("can't save affirmation record: %w", err)
	}
	return nil
}

func (b *Bridge) NumAffirmationsSigned(ctx context.Context, msgHash common.Hash) (uint, error) {
	rec, err := b.getAffirmationRecord(ctx, msgHash)
	if err != nil {
		return 0, err
	}
	return rec.NumSigned, nil
}

func (b *Bridge) IsAffirmationProcessed(ctx context.Context, msgHash common.Hash) (bool, error) {
	rec, err := b.getAffirmationRecord(ctx, msgHash)
	if err != nil {
		return false, err
	}
	return rec.Executed, nil
}

// AffirmationsSigned reports whether the vote keyed by message.SenderHash was recorded.
func (b *Bridge) AffirmationsSigned(ctx context.Context, senderHash common.Hash) (bool, error) {
	var signed bool
	err := b.view(ctx, func(repo *repository.Repo) error {
		var err error
		signed, err = repo.SignedAffirmations.IsSigned(ctx, b.id, senderHash)
		return err
	})
	return signed, err
}

func (b *Bridge) getAffirmationRecord(ctx context.Context, msgHash common.Hash) (*entity.AffirmationRecord, error) {
	rec := &entity.AffirmationRecord{BridgeID: b.id, MsgHash: msgHash}
	err := b.view(ctx, func(repo *repository.Repo) error {
		res, err := repo.AffirmationRecords.GetByMsgHash(ctx, b.id, msgHash)
		if err != nil {
			return db.IgnoreErrNotFound(err)
		}
		rec = res
		return nil
	})
	return rec, err
}
