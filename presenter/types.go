package presenter

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/omni/amb-bridge/entity"
)

type BridgeInfo struct {
	BridgeID                   string
	Address                    common.Address
	ChainID                    uint64
	Funder                     common.Address `json:",omitempty"`
	BridgeMode                 hexutil.Bytes
	Version                    string
	Initialized                bool
	DeployedAtBlock            uint           `json:",omitempty"`
	ValidatorContract          common.Address `json:",omitempty"`
	MaxPerTx                   uint64         `json:",omitempty"`
	MinPerTx                   uint64         `json:",omitempty"`
	GasPrice                   string         `json:",omitempty"`
	RequiredBlockConfirmations uint           `json:",omitempty"`
	HomeToForeignMode          entity.FeeMode `json:",omitempty"`
	ForeignToHomeMode          entity.FeeMode `json:",omitempty"`
}

type MessageInfo struct {
	BridgeID      string
	MsgHash       common.Hash
	TxHash        common.Hash
	Direction     entity.Direction
	SourceChainID uint64
	Nonce         uint64
	Sender        common.Address
	Executor      common.Address
	GasLimit      uint64
	DataType      uint
	Data          hexutil.Bytes
	RawMessage    hexutil.Bytes
	NumSigned     uint
	Processed     bool
	Affirmations  []*AffirmationInfo `json:",omitempty"`
	Execution     *ExecutionInfo     `json:",omitempty"`
}

type AffirmationInfo struct {
	Signer common.Address
	TxHash common.Hash
}

type ExecutionInfo struct {
	Status  bool
	GasUsed uint64
	TxHash  common.Hash
}

type BalanceInfo struct {
	Address common.Address
	Balance string
}

type SignedInfo struct {
	SenderHash common.Hash
	Signed     bool
}

type LogResult struct {
	LogID       uint
	Event       string                 `json:",omitempty"`
	Values      map[string]interface{} `json:",omitempty"`
	Address     common.Address
	Topic0      *common.Hash `json:",omitempty"`
	Topic1      *common.Hash `json:",omitempty"`
	Topic2      *common.Hash `json:",omitempty"`
	Topic3      *common.Hash `json:",omitempty"`
	Data        hexutil.Bytes
	TxHash      common.Hash
	BlockNumber uint
	LogIndex    uint
}

// CallRequest is a signed bridge call. Data is ABI encoded calldata, Signature is the
// personal_sign signature of SigningPayload(bridge address, Nonce, Data) by the caller.
// Nonce is picked by the caller, each (caller, nonce) pair is accepted once.
type CallRequest struct {
	Data        hexutil.Bytes `json:"data"`
	Nonce       uint64        `json:"nonce"`
	Signature   hexutil.Bytes `json:"signature"`
	Value       *hexutil.Big  `json:"value,omitempty"`
	BlockNumber uint          `json:"blockNumber,omitempty"`
}

type CallResult struct {
	TxHash common.Hash
	From   common.Address
	Method string
	Logs   []*LogResult
}
