package bridge

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/amb-bridge/db"
	"github.com/omni/amb-bridge/entity"
	"github.com/omni/amb-bridge/repository"
)

// DepositFor credits the attached call value to the recipient balance.
func (b *Bridge) DepositFor(ctx context.Context, call *Call, recipient common.Address) (*Receipt, error) {
	return b.transact(ctx, "depositFor", call, func(tx *txContext) error {
		if _, err := tx.state(); err != nil {
			return err
		}
		if recipient == (common.Address{}) {
			return ErrInvalidRecipient
		}
		if call.Value == nil || call.Value.Sign() <= 0 {
			return fmt.Errorf("deposit value must be positive: %w", ErrInvalidValue)
		}
		if err := tx.credit(recipient, call.Value); err != nil {
			return err
		}
		return tx.emit(eventDepositedFor, recipient, new(big.Int).Set(call.Value))
	})
}

func (b *Bridge) BalanceOf(ctx context.Context, addr common.Address) (*big.Int, error) {
	var res *big.Int
	err := b.view(ctx, func(repo *repository.Repo) error {
		var err error
		res, err = b.balanceOf(ctx, repo, addr)
		return err
	})
	return res, err
}

func (b *Bridge) balanceOf(ctx context.Context, repo *repository.Repo, addr common.Address) (*big.Int, error) {
	balance, err := repo.Balances.GetByAddress(ctx, b.id, addr)
	if errors.Is(err, db.ErrNotFound) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, fmt.Errorf("can't get balance: %w", err)
	}
	return parseAmount(balance.Amount)
}

func (tx *txContext) setBalance(addr common.Address, amount *big.Int) error {
	err := tx.repo.Balances.Ensure(tx.ctx, &entity.Balance{
		BridgeID: tx.id,
		Address:  addr,
		Amount:   amount.String(),
	})
	if err != nil {
		return fmt.Errorf("can't update balance: %w", err)
	}
	return nil
}

func (tx *txContext) credit(addr common.Address, amount *big.Int) error {
	balance, err := tx.balanceOf(tx.ctx, tx.repo, addr)
	if err != nil {
		return err
	}
	return tx.setBalance(addr, balance.Add(balance, amount))
}

// requireFunds fails with ErrInsufficientFunds if the sender balance is below amount.
func (tx *txContext) requireFunds(sender common.Address, amount *big.Int) (*big.Int, error) {
	balance, err := tx.balanceOf(tx.ctx, tx.repo, sender)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(amount) < 0 {
		return nil, fmt.Errorf("balance of %s is %s, fee is %s: %w", sender, balance, amount, ErrInsufficientFunds)
	}
	return balance, nil
}

func (tx *txContext) chargeFeeFrom(sender common.Address, fee *big.Int, direction entity.Direction) error {
	balance, err := tx.requireFunds(sender, fee)
	if err != nil {
		return err
	}
	if err = tx.setBalance(sender, balance.Sub(balance, fee)); err != nil {
		return err
	}
	tx.fees = append(tx.fees, feeCharge{direction: direction, amount: new(big.Int).Set(fee)})
	return nil
}

func fee(gas uint64, price *big.Int) *big.Int {
	return new(big.Int).Mul(new(big.Int).SetUint64(gas), price)
}

func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	amount, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("can't parse amount %q", s)
	}
	return amount, nil
}
