package memory

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/amb-bridge/db"
	"github.com/omni/amb-bridge/entity"
)

type affirmationRecordsRepo struct {
	s *State
	j *Journal
}

func NewAffirmationRecordsRepo(s *State, j *Journal) entity.AffirmationRecordsRepo {
	return &affirmationRecordsRepo{s: s, j: j}
}

func (r *affirmationRecordsRepo) Ensure(_ context.Context, rec *entity.AffirmationRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := hashKey{rec.BridgeID, rec.MsgHash}
	val := *rec
	if prev, ok := r.s.affirmationRecords[key]; ok {
		val.CreatedAt = prev.CreatedAt
	}
	val.CreatedAt, val.UpdatedAt = timestamps(val.CreatedAt, r.s.now())
	put(r.s, r.j, r.s.affirmationRecords, key, val)
	return nil
}

func (r *affirmationRecordsRepo) GetByMsgHash(_ context.Context, bridgeID string, msgHash common.Hash) (*entity.AffirmationRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	rec, ok := r.s.affirmationRecords[hashKey{bridgeID, msgHash}]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &rec, nil
}
