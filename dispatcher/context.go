package dispatcher

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type ctxKey int

const (
	messageSenderCtxKey ctxKey = iota
	messageIDCtxKey
)

// WithMessage exposes the relayed message origin to recipient handlers.
func WithMessage(ctx context.Context, sender common.Address, id common.Hash) context.Context {
	ctx = context.WithValue(ctx, messageSenderCtxKey, sender)
	return context.WithValue(ctx, messageIDCtxKey, id)
}

func MessageSender(ctx context.Context) (common.Address, bool) {
	sender, ok := ctx.Value(messageSenderCtxKey).(common.Address)
	return sender, ok
}

func MessageID(ctx context.Context) (common.Hash, bool) {
	id, ok := ctx.Value(messageIDCtxKey).(common.Hash)
	return id, ok
}

// detached keeps the values of its parent but never expires.
type detached struct {
	context.Context
}

func detach(ctx context.Context) context.Context {
	return detached{ctx}
}

func (detached) Deadline() (time.Time, bool) {
	return time.Time{}, false
}

func (detached) Done() <-chan struct{} {
	return nil
}

func (detached) Err() error {
	return nil
}
