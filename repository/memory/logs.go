package memory

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/amb-bridge/entity"
)

type logsRepo struct {
	s *State
	j *Journal
}

func NewLogsRepo(s *State, j *Journal) entity.LogsRepo {
	return &logsRepo{s: s, j: j}
}

func (r *logsRepo) Ensure(_ context.Context, logs ...*entity.Log) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	prevLen := len(r.s.logs)
	for _, log := range logs {
		if idx := r.find(log); idx >= 0 {
			log.ID = r.s.logs[idx].ID
			continue
		}
		val := *log
		val.ID = uint(len(r.s.logs) + 1)
		val.Data = common.CopyBytes(log.Data)
		val.CreatedAt, val.UpdatedAt = timestamps(nil, r.s.now())
		r.s.logs = append(r.s.logs, val)
		log.ID = val.ID
	}
	if len(r.s.logs) > prevLen {
		r.j.record(func() {
			r.s.mu.Lock()
			defer r.s.mu.Unlock()
			r.s.logs = r.s.logs[:prevLen]
		})
	}
	return nil
}

func (r *logsRepo) find(log *entity.Log) int {
	for i := range r.s.logs {
		l := &r.s.logs[i]
		if l.BridgeID == log.BridgeID && l.TransactionHash == log.TransactionHash && l.LogIndex == log.LogIndex {
			return i
		}
	}
	return -1
}

func (r *logsRepo) FindByTxHash(_ context.Context, txHash common.Hash) ([]*entity.Log, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res := make([]*entity.Log, 0, 4)
	for _, log := range r.s.logs {
		if log.TransactionHash == txHash {
			log := log
			res = append(res, &log)
		}
	}
	return res, nil
}

func (r *logsRepo) FindByBlockRange(_ context.Context, bridgeID string, fromBlock, toBlock uint) ([]*entity.Log, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	res := make([]*entity.Log, 0, 16)
	for _, log := range r.s.logs {
		if log.BridgeID == bridgeID && log.BlockNumber >= fromBlock && log.BlockNumber <= toBlock {
			log := log
			res = append(res, &log)
		}
	}
	return res, nil
}
