package dispatcher_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/amb-bridge/dispatcher"
)

var (
	bridgeAddr   = common.HexToAddress("0xb0")
	senderAddr   = common.HexToAddress("0x51")
	executorAddr = common.HexToAddress("0xe1")
	txHash       = common.HexToHash("0x7a")
)

func newCall(gas uint64) *dispatcher.Call {
	return &dispatcher.Call{
		Caller:   bridgeAddr,
		Sender:   senderAddr,
		Executor: executorAddr,
		TxHash:   txHash,
		MsgHash:  common.HexToHash("0x01"),
		Data:     []byte{0x01, 0x02},
		Gas:      gas,
	}
}

func TestRegistry_Dispatch(t *testing.T) {
	t.Parallel()

	errHandler := errors.New("reverted")
	for _, test := range []struct {
		Name        string
		Handler     dispatcher.Handler
		Status      bool
		GasUsed     uint64
		ExpectedErr error
	}{
		{
			Name:    "success",
			Handler: dispatcher.HandlerFunc(func(context.Context, *dispatcher.Call) (*dispatcher.Result, error) { return &dispatcher.Result{GasUsed: 500}, nil }),
			Status:  true,
			GasUsed: 500,
		},
		{
			Name:        "unknown executor",
			ExpectedErr: dispatcher.ErrUnknownExecutor,
		},
		{
			Name:        "handler error",
			Handler:     dispatcher.HandlerFunc(func(context.Context, *dispatcher.Call) (*dispatcher.Result, error) { return &dispatcher.Result{GasUsed: 10}, errHandler }),
			GasUsed:     10,
			ExpectedErr: errHandler,
		},
		{
			Name:        "out of gas",
			Handler:     dispatcher.HandlerFunc(func(context.Context, *dispatcher.Call) (*dispatcher.Result, error) { return &dispatcher.Result{GasUsed: 1001}, nil }),
			GasUsed:     1000,
			ExpectedErr: dispatcher.ErrOutOfGas,
		},
		{
			Name:        "panic",
			Handler:     dispatcher.HandlerFunc(func(context.Context, *dispatcher.Call) (*dispatcher.Result, error) { panic("boom") }),
			GasUsed:     1000,
			ExpectedErr: dispatcher.ErrHandlerPanic,
		},
	} {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			t.Parallel()

			registry := dispatcher.NewRegistry()
			if test.Handler != nil {
				registry.Register(executorAddr, test.Handler)
			}
			outcome := registry.Dispatch(context.Background(), newCall(1000))
			require.Equal(t, test.Status, outcome.Status)
			require.Equal(t, test.GasUsed, outcome.GasUsed)
			if test.ExpectedErr != nil {
				require.ErrorIs(t, outcome.Err, test.ExpectedErr)
			} else {
				require.NoError(t, outcome.Err)
			}
		})
	}
}

func TestRegistry_DispatchContext(t *testing.T) {
	t.Parallel()

	var got *dispatcher.Call
	var sender common.Address
	var id common.Hash
	registry := dispatcher.NewRegistry()
	registry.Register(executorAddr, dispatcher.HandlerFunc(func(ctx context.Context, call *dispatcher.Call) (*dispatcher.Result, error) {
		got = call
		sender, _ = dispatcher.MessageSender(ctx)
		id, _ = dispatcher.MessageID(ctx)
		return nil, nil
	}))

	call := newCall(dispatcher.GasAllowance(200000))
	outcome := registry.Dispatch(context.Background(), call)
	require.True(t, outcome.Status)
	require.Equal(t, call, got)
	require.Equal(t, bridgeAddr, got.Caller)
	require.Equal(t, 200000+dispatcher.PassMessageGas, got.Gas)
	require.Equal(t, senderAddr, sender)
	require.Equal(t, txHash, id)

	registry.Unregister(executorAddr)
	outcome = registry.Dispatch(context.Background(), call)
	require.ErrorIs(t, outcome.Err, dispatcher.ErrUnknownExecutor)
}

func TestRegistry_DispatchTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	deadlines := make(chan time.Time, 1)
	registry := dispatcher.NewRegistry()
	registry.SetTimeout(func(gas uint64) time.Duration {
		require.EqualValues(t, 1000, gas)
		return 20 * time.Millisecond
	})
	registry.Register(executorAddr, dispatcher.HandlerFunc(func(ctx context.Context, _ *dispatcher.Call) (*dispatcher.Result, error) {
		deadline, _ := ctx.Deadline()
		deadlines <- deadline
		<-release
		return &dispatcher.Result{GasUsed: 1}, nil
	}))

	start := time.Now()
	outcome := registry.Dispatch(context.Background(), newCall(1000))
	require.False(t, outcome.Status)
	require.ErrorIs(t, outcome.Err, dispatcher.ErrHandlerTimeout)
	require.EqualValues(t, 1000, outcome.GasUsed)
	require.Less(t, time.Since(start), 5*time.Second)
	require.False(t, (<-deadlines).IsZero())
}

func TestRegistry_DispatchDetachedFromCaller(t *testing.T) {
	t.Parallel()

	registry := dispatcher.NewRegistry()
	registry.Register(executorAddr, dispatcher.HandlerFunc(func(ctx context.Context, call *dispatcher.Call) (*dispatcher.Result, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if sender, ok := dispatcher.MessageSender(ctx); !ok || sender != call.Sender {
			return nil, errors.New("message sender is lost")
		}
		return &dispatcher.Result{GasUsed: 7}, nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcome := registry.Dispatch(ctx, newCall(1000))
	require.True(t, outcome.Status)
	require.EqualValues(t, 7, outcome.GasUsed)
}

func TestHandlerTimeout(t *testing.T) {
	t.Parallel()

	require.Equal(t, dispatcher.MinHandlerTimeout, dispatcher.HandlerTimeout(0))
	require.Equal(t, dispatcher.MinHandlerTimeout, dispatcher.HandlerTimeout(dispatcher.GasAllowance(200000)))
	require.Equal(t, dispatcher.MinHandlerTimeout+2*time.Second, dispatcher.HandlerTimeout(2*dispatcher.GasPerSecond))
	require.Equal(t, dispatcher.MaxHandlerTimeout, dispatcher.HandlerTimeout(^uint64(0)))
}

func TestGasAllowance(t *testing.T) {
	t.Parallel()

	require.Equal(t, dispatcher.PassMessageGas, dispatcher.GasAllowance(0))
	require.Equal(t, ^uint64(0), dispatcher.GasAllowance(^uint64(0)-1))
}

func TestMessageContext_Missing(t *testing.T) {
	t.Parallel()

	_, ok := dispatcher.MessageSender(context.Background())
	require.False(t, ok)
	_, ok = dispatcher.MessageID(context.Background())
	require.False(t, ok)
}
