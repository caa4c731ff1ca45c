package memory

import (
	"context"

	"github.com/omni/amb-bridge/db"
	"github.com/omni/amb-bridge/entity"
)

type bridgeStatesRepo struct {
	s *State
	j *Journal
}

func NewBridgeStatesRepo(s *State, j *Journal) entity.BridgeStatesRepo {
	return &bridgeStatesRepo{s: s, j: j}
}

func (r *bridgeStatesRepo) Ensure(_ context.Context, state *entity.BridgeState) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	val := *state
	if prev, ok := r.s.bridgeStates[state.BridgeID]; ok {
		val.CreatedAt = prev.CreatedAt
	}
	val.CreatedAt, val.UpdatedAt = timestamps(val.CreatedAt, r.s.now())
	put(r.s, r.j, r.s.bridgeStates, state.BridgeID, val)
	return nil
}

func (r *bridgeStatesRepo) GetByBridgeID(_ context.Context, bridgeID string) (*entity.BridgeState, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	state, ok := r.s.bridgeStates[bridgeID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &state, nil
}
