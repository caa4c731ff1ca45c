package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/omni/amb-bridge/db"
	"github.com/omni/amb-bridge/entity"
	"github.com/omni/amb-bridge/repository/memory"
	"github.com/omni/amb-bridge/repository/postgres"
)

type Repo struct {
	BridgeStates       entity.BridgeStatesRepo
	Messages           entity.MessagesRepo
	SignedAffirmations entity.SignedAffirmationsRepo
	AffirmationRecords entity.AffirmationRecordsRepo
	ExecutedMessages   entity.ExecutedMessagesRepo
	Balances           entity.BalancesRepo
	Logs               entity.LogsRepo
}

// Store runs units of work against bridge state. Changes made by fn are
// either all applied or, when fn returns an error, all discarded.
type Store interface {
	Atomic(ctx context.Context, bridgeID string, fn func(repo *Repo) error) error
}

func NewRepo(q db.Querier) *Repo {
	return &Repo{
		BridgeStates:       postgres.NewBridgeStatesRepo("bridge_states", q),
		Messages:           postgres.NewMessagesRepo("messages", q),
		SignedAffirmations: postgres.NewSignedAffirmationsRepo("signed_affirmations", q),
		AffirmationRecords: postgres.NewAffirmationRecordsRepo("affirmation_records", q),
		ExecutedMessages:   postgres.NewExecutedMessagesRepo("executed_messages", q),
		Balances:           postgres.NewBalancesRepo("balances", q),
		Logs:               postgres.NewLogsRepo("logs", q),
	}
}

type postgresStore struct {
	db *db.DB
}

func NewPostgresStore(conn *db.DB) Store {
	return &postgresStore{db: conn}
}

func (s *postgresStore) Atomic(ctx context.Context, bridgeID string, fn func(repo *Repo) error) error {
	return s.db.WithTx(ctx, func(tx *db.Tx) error {
		if _, err := tx.ExecContext(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", bridgeID); err != nil {
			return fmt.Errorf("can't acquire bridge lock: %w", err)
		}
		return fn(NewRepo(tx))
	})
}

type memoryStore struct {
	mu    sync.Mutex
	state *memory.State
}

func NewMemoryStore() Store {
	return &memoryStore{state: memory.NewState()}
}

func (s *memoryStore) Atomic(_ context.Context, _ string, fn func(repo *Repo) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	journal := memory.NewJournal()
	defer func() {
		if p := recover(); p != nil {
			journal.Rollback()
			panic(p)
		}
		if err != nil {
			journal.Rollback()
		}
	}()
	return fn(&Repo{
		BridgeStates:       memory.NewBridgeStatesRepo(s.state, journal),
		Messages:           memory.NewMessagesRepo(s.state, journal),
		SignedAffirmations: memory.NewSignedAffirmationsRepo(s.state, journal),
		AffirmationRecords: memory.NewAffirmationRecordsRepo(s.state, journal),
		ExecutedMessages:   memory.NewExecutedMessagesRepo(s.state, journal),
		Balances:           memory.NewBalancesRepo(s.state, journal),
		Logs:               memory.NewLogsRepo(s.state, journal),
	})
}
