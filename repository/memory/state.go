package memory

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/omni/amb-bridge/entity"
)

type hashKey struct {
	bridgeID string
	hash     common.Hash
}

type addressKey struct {
	bridgeID string
	address  common.Address
}

// State holds the whole in-memory dataset shared by all repositories.
type State struct {
	mu sync.RWMutex

	bridgeStates       map[string]entity.BridgeState
	messages           map[hashKey]entity.Message
	signedAffirmations map[hashKey]entity.SignedAffirmation
	affirmationRecords map[hashKey]entity.AffirmationRecord
	executedMessages   map[hashKey]entity.ExecutedMessage
	balances           map[addressKey]entity.Balance
	logs               []entity.Log

	now func() time.Time
}

func NewState() *State {
	return &State{
		bridgeStates:       make(map[string]entity.BridgeState),
		messages:           make(map[hashKey]entity.Message),
		signedAffirmations: make(map[hashKey]entity.SignedAffirmation),
		affirmationRecords: make(map[hashKey]entity.AffirmationRecord),
		executedMessages:   make(map[hashKey]entity.ExecutedMessage),
		balances:           make(map[addressKey]entity.Balance),
		now:                time.Now,
	}
}

// Journal collects undo actions of a single atomic unit of work.
// A nil Journal disables undo tracking.
type Journal struct {
	undo []func()
}

func NewJournal() *Journal {
	return &Journal{}
}

func (j *Journal) record(f func()) {
	if j == nil {
		return
	}
	j.undo = append(j.undo, f)
}

// Rollback reverts recorded changes in reverse order.
func (j *Journal) Rollback() {
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

func (j *Journal) Len() int {
	return len(j.undo)
}

// put stores v under k and journals the previous value (or its absence).
func put[K comparable, V any](s *State, j *Journal, m map[K]V, k K, v V) {
	prev, existed := m[k]
	m[k] = v
	j.record(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
}

func timestamps(createdAt *time.Time, now time.Time) (*time.Time, *time.Time) {
	if createdAt == nil {
		createdAt = &now
	}
	return createdAt, &now
}
