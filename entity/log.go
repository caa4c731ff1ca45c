package entity

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Log struct {
	ID              uint           `db:"id"`
	BridgeID        string         `db:"bridge_id"`
	Address         common.Address `db:"address"`
	Topic0          *common.Hash   `db:"topic0"`
	Topic1          *common.Hash   `db:"topic1"`
	Topic2          *common.Hash   `db:"topic2"`
	Topic3          *common.Hash   `db:"topic3"`
	Data            []byte         `db:"data"`
	BlockNumber     uint           `db:"block_number"`
	LogIndex        uint           `db:"log_index"`
	TransactionHash common.Hash    `db:"transaction_hash"`
	CreatedAt       *time.Time     `db:"created_at"`
	UpdatedAt       *time.Time     `db:"updated_at"`
}

func (l *Log) Topics() []common.Hash {
	topics := make([]common.Hash, 0, 4)
	for _, topic := range [4]*common.Hash{l.Topic0, l.Topic1, l.Topic2, l.Topic3} {
		if topic == nil {
			break
		}
		topics = append(topics, *topic)
	}
	return topics
}

type LogsRepo interface {
	Ensure(ctx context.Context, logs ...*Log) error
	FindByTxHash(ctx context.Context, txHash common.Hash) ([]*Log, error)
	FindByBlockRange(ctx context.Context, bridgeID string, fromBlock, toBlock uint) ([]*Log, error)
}
