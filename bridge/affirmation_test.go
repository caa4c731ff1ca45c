package bridge_test

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/omni/amb-bridge/bridge"
	"github.com/omni/amb-bridge/contract/bridgeabi"
	"github.com/omni/amb-bridge/dispatcher"
	"github.com/omni/amb-bridge/entity"
	"github.com/omni/amb-bridge/message"
)

func TestBridge_ExecuteAffirmationSingleValidator(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 1, 1)
	env.initialize(subsidized)

	encoded := encodeMessage(userAddr, boxAddr, 1, 200000, setValueData)
	msg, err := message.Decode(encoded)
	require.NoError(t, err)

	receipt, err := env.bridge.ExecuteAffirmation(env.ctx, env.call(env.validators[0]), encoded)
	require.NoError(t, err)
	logs := parseLogs(t, receipt)
	require.Equal(t, []string{bridgeabi.SignedForAffirmation, bridgeabi.AffirmationCompleted}, eventNames(logs))
	require.Equal(t, env.validators[0], logs[0].Values["signer"])
	require.Equal(t, [32]byte(msg.MsgHash), logs[0].Values["messageHash"])
	require.Equal(t, map[string]interface{}{
		"sender":          userAddr,
		"executor":        boxAddr,
		"transactionHash": [32]byte(msg.TxHash),
	}, logs[1].Values)

	calls := env.box.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, bridgeAddr, calls[0].Caller)
	require.Equal(t, userAddr, calls[0].Sender)
	require.Equal(t, boxAddr, calls[0].Executor)
	require.Equal(t, msg.TxHash, calls[0].TxHash)
	require.Equal(t, setValueData, calls[0].Data)
	require.Equal(t, dispatcher.GasAllowance(200000), calls[0].Gas)

	processed, err := env.bridge.IsAffirmationProcessed(env.ctx, msg.MsgHash)
	require.NoError(t, err)
	require.True(t, processed)
	numSigned, err := env.bridge.NumAffirmationsSigned(env.ctx, msg.MsgHash)
	require.NoError(t, err)
	require.EqualValues(t, 1, numSigned)

	executed, err := env.bridge.ExecutedMessage(env.ctx, msg.MsgHash)
	require.NoError(t, err)
	require.True(t, executed.Status)
	require.EqualValues(t, 50000, executed.GasUsed)
	require.Equal(t, msg.TxHash, executed.MessageID)

	stored, err := env.bridge.Message(env.ctx, msg.MsgHash)
	require.NoError(t, err)
	require.Equal(t, entity.DirectionForeignToHome, stored.Direction)

	_, err = env.bridge.ExecuteAffirmation(env.ctx, env.call(env.validators[0]), encoded)
	require.ErrorIs(t, err, bridge.ErrAlreadyProcessed)
	require.Len(t, env.box.Calls(), 1)
}

func TestBridge_ExecuteAffirmationQuorum(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 3, 5)
	env.initialize(subsidized)
	v := env.validators

	encoded := encodeMessage(userAddr, boxAddr, 7, 200000, setValueData)
	msgHash := message.Hash(encoded)

	for i := 0; i < 2; i++ {
		receipt, err := env.bridge.ExecuteAffirmation(env.ctx, env.call(v[i]), encoded)
		require.NoError(t, err)
		require.Equal(t, []string{bridgeabi.SignedForAffirmation}, eventNames(parseLogs(t, receipt)))

		numSigned, err := env.bridge.NumAffirmationsSigned(env.ctx, msgHash)
		require.NoError(t, err)
		require.EqualValues(t, i+1, numSigned)
		processed, err := env.bridge.IsAffirmationProcessed(env.ctx, msgHash)
		require.NoError(t, err)
		require.False(t, processed)
	}
	require.Empty(t, env.box.Calls())

	_, err := env.bridge.ExecuteAffirmation(env.ctx, env.call(v[0]), encoded)
	require.ErrorIs(t, err, bridge.ErrDuplicateVote)
	numSigned, err := env.bridge.NumAffirmationsSigned(env.ctx, msgHash)
	require.NoError(t, err)
	require.EqualValues(t, 2, numSigned)

	receipt, err := env.bridge.ExecuteAffirmation(env.ctx, env.call(v[2]), encoded)
	require.NoError(t, err)
	require.Equal(t, []string{bridgeabi.SignedForAffirmation, bridgeabi.AffirmationCompleted}, eventNames(parseLogs(t, receipt)))
	require.Len(t, env.box.Calls(), 1)

	for _, validator := range v[3:] {
		_, err = env.bridge.ExecuteAffirmation(env.ctx, env.call(validator), encoded)
		require.ErrorIs(t, err, bridge.ErrAlreadyProcessed)
	}
	numSigned, err = env.bridge.NumAffirmationsSigned(env.ctx, msgHash)
	require.NoError(t, err)
	require.EqualValues(t, 3, numSigned)
	require.Len(t, env.box.Calls(), 1)

	for i, validator := range v {
		signed, err := env.bridge.AffirmationsSigned(env.ctx, message.SenderHash(validator, msgHash))
		require.NoError(t, err)
		require.Equal(t, i < 3, signed, validator.String())
	}
	signatures, err := env.bridge.SignedAffirmations(env.ctx, msgHash)
	require.NoError(t, err)
	require.Len(t, signatures, 3)
}

func TestBridge_ExecuteAffirmationRejected(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 2, 2)
	env.initialize(subsidized)
	encoded := encodeMessage(userAddr, boxAddr, 1, 200000, setValueData)
	unrelayed := message.Encode(&message.Message{
		Sender:        userAddr,
		Executor:      boxAddr,
		SourceChainID: foreignChainID,
		Nonce:         2,
		GasLimit:      200000,
		Data:          setValueData,
	})

	for _, test := range []struct {
		Name    string
		From    common.Address
		Encoded []byte
		Err     error
	}{
		{"non validator", strangerAddr, encoded, bridge.ErrUnauthorized},
		{"non validator with malformed message", strangerAddr, encoded[:10], bridge.ErrUnauthorized},
		{"owner is not a validator", ownerAddr, encoded, bridge.ErrUnauthorized},
		{"short message", env.validators[0], encoded[:message.HeaderLength-1], bridge.ErrMalformedMessage},
		{"unknown data type", env.validators[0], append(common.CopyBytes(encoded[:message.HeaderLength-1]), 0x05), bridge.ErrMalformedMessage},
		{"never relayed", env.validators[0], unrelayed, bridge.ErrMalformedMessage},
	} {
		_, err := env.bridge.ExecuteAffirmation(env.ctx, env.call(test.From), test.Encoded)
		require.ErrorIs(t, err, test.Err, test.Name)
	}

	for _, msg := range [][]byte{encoded, unrelayed} {
		numSigned, err := env.bridge.NumAffirmationsSigned(env.ctx, message.Hash(msg))
		require.NoError(t, err)
		require.Zero(t, numSigned)
	}
	require.Empty(t, env.box.Calls())
}

func TestBridge_ExecuteAffirmationFailedExecution(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		Name     string
		Executor common.Address
		Setup    func(env *testEnv)
	}{
		{"handler error", boxAddr, func(env *testEnv) { env.box.err = errors.New("execution reverted") }},
		{"out of gas", boxAddr, func(env *testEnv) { env.box.gasUsed = dispatcher.GasAllowance(200000) + 1 }},
		{"unknown executor", strangerAddr, func(*testEnv) {}},
	} {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, 1, 1)
			env.initialize(subsidized)
			test.Setup(env)

			encoded := encodeMessage(userAddr, test.Executor, 1, 200000, setValueData)
			msgHash := message.Hash(encoded)
			receipt, err := env.bridge.ExecuteAffirmation(env.ctx, env.call(env.validators[0]), encoded)
			require.NoError(t, err)
			require.Equal(t, []string{bridgeabi.SignedForAffirmation, bridgeabi.AffirmationFailed}, eventNames(parseLogs(t, receipt)))

			processed, err := env.bridge.IsAffirmationProcessed(env.ctx, msgHash)
			require.NoError(t, err)
			require.True(t, processed)
			executed, err := env.bridge.ExecutedMessage(env.ctx, msgHash)
			require.NoError(t, err)
			require.False(t, executed.Status)
		})
	}
}

func TestBridge_ExecuteAffirmationDefrayal(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t, 2, 2)
	env.initialize(func(p *bridge.InitializeParams) {
		p.HomeToForeignMode = entity.FeeModeSubsidized
	})
	v := env.validators

	encoded := encodeMessage(userAddr, boxAddr, 1, 100000, setValueData)
	msgHash := message.Hash(encoded)

	_, err := env.bridge.ExecuteAffirmation(env.ctx, env.call(v[0]), encoded)
	require.NoError(t, err)

	_, err = env.bridge.ExecuteAffirmation(env.ctx, env.call(v[1]), encoded)
	require.ErrorIs(t, err, bridge.ErrInsufficientFunds)
	numSigned, err := env.bridge.NumAffirmationsSigned(env.ctx, msgHash)
	require.NoError(t, err)
	require.EqualValues(t, 1, numSigned)
	signed, err := env.bridge.AffirmationsSigned(env.ctx, message.SenderHash(v[1], msgHash))
	require.NoError(t, err)
	require.False(t, signed)
	require.Empty(t, env.box.Calls())

	env.deposit(userAddr, 300000000000000)
	receipt, err := env.bridge.ExecuteAffirmation(env.ctx, env.call(v[1]), encoded)
	require.NoError(t, err)
	require.Equal(t, []string{bridgeabi.SignedForAffirmation, bridgeabi.AffirmationCompleted}, eventNames(parseLogs(t, receipt)))

	require.Zero(t, big.NewInt(200000000000000).Cmp(env.balance(userAddr)))
	require.Zero(t, big.NewInt(100000000000000).Cmp(env.balance(v[1])))
	require.Zero(t, env.balance(v[0]).Sign())
}

func TestBridge_RelayRoundTrip(t *testing.T) {
	t.Parallel()

	home := newTestEnv(t, 1, 1)
	home.initialize(subsidized)
	foreign := newTestEnv(t, 1, 1)
	foreign.initialize(subsidized)

	requestCall := home.call(userAddr)
	receipt, err := home.bridge.RequireToPassMessage(home.ctx, requestCall, boxAddr, setValueData, 200000)
	require.NoError(t, err)
	encoded, _ := requestedMessage(t, receipt)

	relayed, err := message.SetTxHash(encoded, requestCall.TxHash)
	require.NoError(t, err)
	receipt, err = foreign.bridge.ExecuteAffirmation(foreign.ctx, foreign.call(foreign.validators[0]), relayed)
	require.NoError(t, err)
	logs := parseLogs(t, receipt)
	require.Equal(t, []string{bridgeabi.SignedForAffirmation, bridgeabi.AffirmationCompleted}, eventNames(logs))
	require.Equal(t, [32]byte(requestCall.TxHash), logs[1].Values["transactionHash"])

	calls := foreign.box.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, userAddr, calls[0].Sender)
	require.Equal(t, requestCall.TxHash, calls[0].TxHash)
	require.Equal(t, setValueData, calls[0].Data)
}

func TestBridge_ExecuteAffirmationReentrantRecipient(t *testing.T) {
	t.Parallel()

	recipient := common.HexToAddress("0x00000000000000000000000000000000000ec40e")
	for _, test := range []struct {
		Name    string
		Swallow bool
		Event   string
	}{
		{"error propagated", false, bridgeabi.AffirmationFailed},
		{"error swallowed", true, bridgeabi.AffirmationCompleted},
	} {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, 1, 1)
			env.initialize(subsidized)

			var passErr, viewErr error
			env.registry.Register(recipient, dispatcher.HandlerFunc(func(ctx context.Context, call *dispatcher.Call) (*dispatcher.Result, error) {
				_, passErr = env.bridge.RequireToPassMessage(ctx, env.call(call.Executor), boxAddr, testPayload32, 100000)
				_, viewErr = env.bridge.BalanceOf(ctx, call.Sender)
				if test.Swallow {
					return &dispatcher.Result{GasUsed: 30000}, nil
				}
				return nil, passErr
			}))

			encoded := encodeMessage(userAddr, recipient, 1, 200000, setValueData)
			done := make(chan struct{})
			var (
				receipt *bridge.Receipt
				err     error
			)
			go func() {
				defer close(done)
				receipt, err = env.bridge.ExecuteAffirmation(env.ctx, env.call(env.validators[0]), encoded)
			}()
			select {
			case <-done:
			case <-time.After(5 * time.Second):
				require.FailNow(t, "affirmation did not return")
			}
			require.NoError(t, err)
			require.Equal(t, []string{bridgeabi.SignedForAffirmation, test.Event}, eventNames(parseLogs(t, receipt)))
			require.ErrorIs(t, passErr, bridge.ErrReentrantCall)
			require.ErrorIs(t, viewErr, bridge.ErrReentrantCall)

			receipt, err = env.bridge.RequireToPassMessage(env.ctx, env.call(userAddr), boxAddr, testPayload32, 100000)
			require.NoError(t, err)
			_, msg := requestedMessage(t, receipt)
			require.Zero(t, msg.Nonce)
		})
	}
}

func TestBridge_ExecuteAffirmationHangingRecipient(t *testing.T) {
	t.Parallel()

	recipient := common.HexToAddress("0x0000000000000000000000000000000000084e6e")
	for _, test := range []struct {
		Name    string
		Handler func(release <-chan struct{}) dispatcher.Handler
	}{
		{"ignores context", func(release <-chan struct{}) dispatcher.Handler {
			return dispatcher.HandlerFunc(func(context.Context, *dispatcher.Call) (*dispatcher.Result, error) {
				<-release
				return nil, nil
			})
		}},
		{"waits for context", func(<-chan struct{}) dispatcher.Handler {
			return dispatcher.HandlerFunc(func(ctx context.Context, _ *dispatcher.Call) (*dispatcher.Result, error) {
				<-ctx.Done()
				return nil, ctx.Err()
			})
		}},
	} {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			t.Parallel()

			env := newTestEnv(t, 1, 1)
			env.initialize(subsidized)
			release := make(chan struct{})
			t.Cleanup(func() { close(release) })
			env.registry.SetTimeout(func(uint64) time.Duration { return 50 * time.Millisecond })
			env.registry.Register(recipient, test.Handler(release))

			encoded := encodeMessage(userAddr, recipient, 1, 200000, setValueData)
			receipt, err := env.bridge.ExecuteAffirmation(env.ctx, env.call(env.validators[0]), encoded)
			require.NoError(t, err)
			require.Equal(t, []string{bridgeabi.SignedForAffirmation, bridgeabi.AffirmationFailed}, eventNames(parseLogs(t, receipt)))

			executed, err := env.bridge.ExecutedMessage(env.ctx, message.Hash(encoded))
			require.NoError(t, err)
			require.False(t, executed.Status)
			require.Equal(t, dispatcher.GasAllowance(200000), executed.GasUsed)

			_, err = env.bridge.ExecuteAffirmation(env.ctx, env.call(env.validators[0]), encoded)
			require.ErrorIs(t, err, bridge.ErrAlreadyProcessed)
		})
	}
}
