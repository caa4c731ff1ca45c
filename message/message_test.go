package message_test

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/omni/amb-bridge/message"
)

var (
	testSender   = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testExecutor = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testTxHash   = common.HexToHash("0xabababababababababababababababababababababababababababababababab")
)

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	for _, test := range []struct {
		Name string
		Msg  *message.Message
	}{
		{
			Name: "no extra data",
			Msg: &message.Message{
				Sender:        testSender,
				Executor:      testExecutor,
				SourceChainID: 100,
				Nonce:         7,
				GasLimit:      200000,
				DataType:      message.DataTypeNone,
				Data:          []byte{0xde, 0xad, 0xbe, 0xef},
			},
		},
		{
			Name: "gas price",
			Msg: &message.Message{
				Sender:        testSender,
				Executor:      testExecutor,
				TxHash:        testTxHash,
				SourceChainID: 1,
				Nonce:         1 << 40,
				GasLimit:      1 << 62,
				DataType:      message.DataTypeGasPrice,
				GasPrice:      big.NewInt(1000000000),
				Data:          []byte{0x01},
			},
		},
		{
			Name: "gas price speed",
			Msg: &message.Message{
				Sender:        testSender,
				Executor:      testExecutor,
				SourceChainID: 77,
				GasLimit:      21000,
				DataType:      message.DataTypeGasPriceSpeed,
				GasPriceSpeed: 0x03,
				Data:          []byte{},
			},
		},
	} {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			t.Parallel()

			encoded := message.Encode(test.Msg)
			decoded, err := message.Decode(encoded)
			require.NoError(t, err)

			require.Equal(t, crypto.Keccak256Hash(encoded), decoded.MsgHash)
			require.Equal(t, test.Msg.Sender, decoded.Sender)
			require.Equal(t, test.Msg.Executor, decoded.Executor)
			require.Equal(t, test.Msg.TxHash, decoded.TxHash)
			require.Equal(t, test.Msg.SourceChainID, decoded.SourceChainID)
			require.Equal(t, test.Msg.Nonce, decoded.Nonce)
			require.Equal(t, test.Msg.GasLimit, decoded.GasLimit)
			require.Equal(t, test.Msg.DataType, decoded.DataType)
			require.Equal(t, test.Msg.GasPriceSpeed, decoded.GasPriceSpeed)
			require.Equal(t, test.Msg.Data, decoded.Data)
			if test.Msg.GasPrice != nil {
				require.Zero(t, test.Msg.GasPrice.Cmp(decoded.GasPrice))
			} else {
				require.Nil(t, decoded.GasPrice)
			}

			require.Equal(t, encoded, message.Encode(decoded))
		})
	}
}

func TestEncode_Layout(t *testing.T) {
	t.Parallel()

	encoded := message.Encode(&message.Message{
		Sender:        testSender,
		Executor:      testExecutor,
		SourceChainID: 0x64,
		Nonce:         0x05,
		GasLimit:      0x0186a0,
		Data:          []byte{0xff},
	})

	expected := "0x" +
		"1111111111111111111111111111111111111111" +
		"2222222222222222222222222222222222222222" +
		"0000000000000000000000000000000000000000000000000000000000000000" +
		"0000000000000064" +
		"0000000000000005" +
		"00000000000000000000000000000000000000000000000000000000000186a0" +
		"00" +
		"ff"
	require.Equal(t, expected, hexutil.Encode(encoded))
	require.Len(t, encoded, message.HeaderLength+1)
}

func TestDecode_Malformed(t *testing.T) {
	t.Parallel()

	valid := message.Encode(&message.Message{Sender: testSender, Executor: testExecutor, GasLimit: 100})

	overflow := common.CopyBytes(valid)
	overflow[100] = 0x01

	unknownType := common.CopyBytes(valid)
	unknownType[message.HeaderLength-1] = 0x07

	truncatedPrice := common.CopyBytes(valid)
	truncatedPrice[message.HeaderLength-1] = byte(message.DataTypeGasPrice)

	for _, test := range []struct {
		Name string
		Data []byte
	}{
		{"empty", nil},
		{"truncated header", valid[:message.HeaderLength-1]},
		{"gas limit overflow", overflow},
		{"unknown data type", unknownType},
		{"truncated gas price", truncatedPrice},
	} {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			t.Parallel()

			_, err := message.Decode(test.Data)
			require.ErrorIs(t, err, message.ErrMalformedMessage)
		})
	}
}

func TestSetTxHash(t *testing.T) {
	t.Parallel()

	msg := &message.Message{
		Sender:   testSender,
		Executor: testExecutor,
		Nonce:    3,
		GasLimit: 100000,
		Data:     []byte("payload"),
	}
	encoded := message.Encode(msg)

	txHash, err := message.TxHashOf(encoded)
	require.NoError(t, err)
	require.Equal(t, common.Hash{}, txHash)

	relayed, err := message.SetTxHash(encoded, testTxHash)
	require.NoError(t, err)
	require.Len(t, relayed, len(encoded))
	require.Equal(t, common.Hash{}, common.BytesToHash(encoded[40:72]), "input must stay untouched")

	txHash, err = message.TxHashOf(relayed)
	require.NoError(t, err)
	require.Equal(t, testTxHash, txHash)

	decoded, err := message.Decode(relayed)
	require.NoError(t, err)
	require.Equal(t, testTxHash, decoded.TxHash)
	require.Equal(t, msg.Data, decoded.Data)
	require.NotEqual(t, message.Hash(encoded), decoded.MsgHash)

	_, err = message.SetTxHash(encoded[:10], testTxHash)
	require.ErrorIs(t, err, message.ErrMalformedMessage)
	_, err = message.TxHashOf(encoded[:10])
	require.ErrorIs(t, err, message.ErrMalformedMessage)
}

func TestSenderHash(t *testing.T) {
	t.Parallel()

	msgHash := common.HexToHash("0x01")
	expected := crypto.Keccak256Hash(append(testSender.Bytes(), msgHash.Bytes()...))

	require.Equal(t, expected, message.SenderHash(testSender, msgHash))
	require.NotEqual(t, expected, message.SenderHash(testExecutor, msgHash))
}
