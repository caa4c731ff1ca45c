package memory

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/amb-bridge/db"
	"github.com/omni/amb-bridge/entity"
)

type executedMessagesRepo struct {
	s *State
	j *Journal
}

func NewExecutedMessagesRepo(s *State, j *Journal) entity.ExecutedMessagesRepo {
	return &executedMessagesRepo{s: s, j: j}
}

func (r *executedMessagesRepo) Insert(_ context.Context, msg *entity.ExecutedMessage) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := hashKey{msg.BridgeID, msg.MsgHash}
	if _, ok := r.s.executedMessages[key]; ok {
		return fmt.Errorf("executed message %s: %w", msg.MsgHash, db.ErrConflict)
	}
	val := *msg
	val.CreatedAt, val.UpdatedAt = timestamps(nil, r.s.now())
	put(r.s, r.j, r.s.executedMessages, key, val)
	return nil
}

func (r *executedMessagesRepo) GetByMsgHash(_ context.Context, bridgeID string, msgHash common.Hash) (*entity.ExecutedMessage, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	msg, ok := r.s.executedMessages[hashKey{bridgeID, msgHash}]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &msg, nil
}
