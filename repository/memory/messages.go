package memory

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/amb-bridge/db"
	"github.com/omni/amb-bridge/entity"
)

type messagesRepo struct {
	s *State
	j *Journal
}

func NewMessagesRepo(s *State, j *Journal) entity.MessagesRepo {
	return &messagesRepo{s: s, j: j}
}

func (r *messagesRepo) Ensure(_ context.Context, msg *entity.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := hashKey{msg.BridgeID, msg.MsgHash}
	val := *msg
	val.Data = common.CopyBytes(msg.Data)
	val.RawMessage = common.CopyBytes(msg.RawMessage)
	if prev, ok := r.s.messages[key]; ok {
		val = prev
	}
	val.CreatedAt, val.UpdatedAt = timestamps(val.CreatedAt, r.s.now())
	put(r.s, r.j, r.s.messages, key, val)
	return nil
}

func (r *messagesRepo) GetByMsgHash(_ context.Context, bridgeID string, msgHash common.Hash) (*entity.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	msg, ok := r.s.messages[hashKey{bridgeID, msgHash}]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &msg, nil
}
