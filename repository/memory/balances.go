package memory

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/amb-bridge/db"
	"github.com/omni/amb-bridge/entity"
)

type balancesRepo struct {
	s *State
	j *Journal
}

func NewBalancesRepo(s *State, j *Journal) entity.BalancesRepo {
	return &balancesRepo{s: s, j: j}
}

func (r *balancesRepo) Ensure(_ context.Context, balance *entity.Balance) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := addressKey{balance.BridgeID, balance.Address}
	val := *balance
	if prev, ok := r.s.balances[key]; ok {
		val.CreatedAt = prev.CreatedAt
	}
	val.CreatedAt, val.UpdatedAt = timestamps(val.CreatedAt, r.s.now())
	put(r.s, r.j, r.s.balances, key, val)
	return nil
}

func (r *balancesRepo) GetByAddress(_ context.Context, bridgeID string, address common.Address) (*entity.Balance, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	balance, ok := r.s.balances[addressKey{bridgeID, address}]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &balance, nil
}
