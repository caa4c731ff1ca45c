package message

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrMalformedMessage = errors.New("malformed message")

type DataType byte

const (
	DataTypeNone          DataType = 0x00
	DataTypeGasPrice      DataType = 0x01
	DataTypeGasPriceSpeed DataType = 0x02
)

// Envelope layout, all integers are big endian.
const (
	senderOffset   = 0
	executorOffset = senderOffset + common.AddressLength
	txHashOffset   = executorOffset + common.AddressLength
	chainIDOffset  = txHashOffset + common.HashLength
	nonceOffset    = chainIDOffset + 8
	gasLimitOffset = nonceOffset + 8
	dataTypeOffset = gasLimitOffset + 32
	HeaderLength   = dataTypeOffset + 1
)

// Message is a decoded cross-chain envelope.
type Message struct {
	MsgHash       common.Hash
	Sender        common.Address
	Executor      common.Address
	TxHash        common.Hash
	SourceChainID uint64
	Nonce         uint64
	GasLimit      uint64
	DataType      DataType
	GasPrice      *big.Int
	GasPriceSpeed byte
	Data          []byte
}

func (t DataType) extraLength() (int, bool) {
	switch t {
	case DataTypeNone:
		return 0, true
	case DataTypeGasPrice:
		return 32, true
	case DataTypeGasPriceSpeed:
		return 1, true
	default:
		return 0, false
	}
}

// Encode builds the canonical envelope bytes. Unknown data types are encoded as DataTypeNone.
func Encode(msg *Message) []byte {
	dataType := msg.DataType
	extra, ok := dataType.extraLength()
	if !ok {
		dataType, extra = DataTypeNone, 0
	}
	res := make([]byte, HeaderLength+extra, HeaderLength+extra+len(msg.Data))
	copy(res[senderOffset:], msg.Sender[:])
	copy(res[executorOffset:], msg.Executor[:])
	copy(res[txHashOffset:], msg.TxHash[:])
	binary.BigEndian.PutUint64(res[chainIDOffset:], msg.SourceChainID)
	binary.BigEndian.PutUint64(res[nonceOffset:], msg.Nonce)
	binary.BigEndian.PutUint64(res[dataTypeOffset-8:], msg.GasLimit)
	res[dataTypeOffset] = byte(dataType)
	switch dataType {
	case DataTypeGasPrice:
		price := new(big.Int)
		if msg.GasPrice != nil {
			price.Set(msg.GasPrice)
		}
		copy(res[HeaderLength:], math.U256Bytes(price))
	case DataTypeGasPriceSpeed:
		res[HeaderLength] = msg.GasPriceSpeed
	}
	return append(res, msg.Data...)
}

// Decode parses envelope bytes and computes the message hash over them.
func Decode(encoded []byte) (*Message, error) {
	if len(encoded) < HeaderLength {
		return nil, fmt.Errorf("%w: expected at least %d bytes, got %d", ErrMalformedMessage, HeaderLength, len(encoded))
	}
	gasLimit := new(big.Int).SetBytes(encoded[gasLimitOffset:dataTypeOffset])
	if !gasLimit.IsUint64() {
		return nil, fmt.Errorf("%w: gas limit %s overflows uint64", ErrMalformedMessage, gasLimit)
	}
	dataType := DataType(encoded[dataTypeOffset])
	extra, ok := dataType.extraLength()
	if !ok {
		return nil, fmt.Errorf("%w: unknown data type 0x%02x", ErrMalformedMessage, byte(dataType))
	}
	if len(encoded) < HeaderLength+extra {
		return nil, fmt.Errorf("%w: truncated data type 0x%02x header", ErrMalformedMessage, byte(dataType))
	}

	msg := &Message{
		MsgHash:       Hash(encoded),
		Sender:        common.BytesToAddress(encoded[senderOffset:executorOffset]),
		Executor:      common.BytesToAddress(encoded[executorOffset:txHashOffset]),
		TxHash:        common.BytesToHash(encoded[txHashOffset:chainIDOffset]),
		SourceChainID: binary.BigEndian.Uint64(encoded[chainIDOffset:]),
		Nonce:         binary.BigEndian.Uint64(encoded[nonceOffset:]),
		GasLimit:      gasLimit.Uint64(),
		DataType:      dataType,
		Data:          common.CopyBytes(encoded[HeaderLength+extra:]),
	}
	switch dataType {
	case DataTypeGasPrice:
		msg.GasPrice = new(big.Int).SetBytes(encoded[HeaderLength : HeaderLength+32])
	case DataTypeGasPriceSpeed:
		msg.GasPriceSpeed = encoded[HeaderLength]
	}
	return msg, nil
}

// SetTxHash returns a copy of encoded with the correlation slot replaced by txHash.
func SetTxHash(encoded []byte, txHash common.Hash) ([]byte, error) {
	if len(encoded) < HeaderLength {
		return nil, fmt.Errorf("%w: expected at least %d bytes, got %d", ErrMalformedMessage, HeaderLength, len(encoded))
	}
	res := make([]byte, 0, len(encoded))
	res = append(res, encoded[:txHashOffset]...)
	res = append(res, txHash[:]...)
	res = append(res, encoded[chainIDOffset:]...)
	return res, nil
}

func TxHashOf(encoded []byte) (common.Hash, error) {
	if len(encoded) < chainIDOffset {
		return common.Hash{}, fmt.Errorf("%w: expected at least %d bytes, got %d", ErrMalformedMessage, chainIDOffset, len(encoded))
	}
	return common.BytesToHash(encoded[txHashOffset:chainIDOffset]), nil
}

func Hash(encoded []byte) common.Hash {
	return crypto.Keccak256Hash(encoded)
}

// SenderHash is the key of a single validator vote for a message.
func SenderHash(signer common.Address, msgHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(signer[:], msgHash[:])
}
