package memory

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/amb-bridge/db"
	"github.com/omni/amb-bridge/entity"
)

type signedAffirmationsRepo struct {
	s *State
	j *Journal
}

func NewSignedAffirmationsRepo(s *State, j *Journal) entity.SignedAffirmationsRepo {
	return &signedAffirmationsRepo{s: s, j: j}
}

func (r *signedAffirmationsRepo) Insert(_ context.Context, aff *entity.SignedAffirmation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	key := hashKey{aff.BridgeID, aff.SenderHash}
	if _, ok := r.s.signedAffirmations[key]; ok {
		return fmt.Errorf("signed affirmation %s: %w", aff.SenderHash, db.ErrConflict)
	}
	val := *aff
	val.CreatedAt, val.UpdatedAt = timestamps(nil, r.s.now())
	put(r.s, r.j, r.s.signedAffirmations, key, val)
	return nil
}

func (r *signedAffirmationsRepo) IsSigned(_ context.Context, bridgeID string, senderHash common.Hash) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.signedAffirmations[hashKey{bridgeID, senderHash}]
	return ok, nil
}

func (r *signedAffirmationsRepo) FindByMsgHash(_ context.Context, bridgeID string, msgHash common.Hash) ([]*entity.SignedAffirmation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res := make([]*entity.SignedAffirmation, 0, 4)
	for key, aff := range r.s.signedAffirmations {
		if key.bridgeID == bridgeID && aff.MsgHash == msgHash {
			aff := aff
			res = append(res, &aff)
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return bytes.Compare(res[i].Signer[:], res[j].Signer[:]) < 0
	})
	return res, nil
}
