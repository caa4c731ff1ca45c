package bridgeabi

import (
	_ "embed"

	"github.com/omni/amb-bridge/contract/abi"
)

//go:embed amb.json
var arbitraryMessageJSONABI string

//go:embed bridge_validators.json
var bridgeValidatorsJSONABI string

const (
	UserRequestForSignature = "event UserRequestForSignature(bytes encodedData)"
	SignedForAffirmation    = "event SignedForAffirmation(address indexed signer, bytes32 messageHash)"
	AffirmationCompleted    = "event AffirmationCompleted(address sender, address executor, bytes32 transactionHash)"
	AffirmationFailed       = "event AffirmationFailed(address sender, address executor, bytes32 transactionHash)"
	DepositedFor            = "event DepositedFor(address indexed recipient, uint256 value)"
	ModeChanged             = "event ModeChanged(string direction, string mode)"
	MaxPerTxChanged         = "event MaxPerTxChanged(uint256 maxPerTx)"
	BridgeInitialized       = "event BridgeInitialized(address validatorContract, uint256 maxPerTx, uint256 gasPrice, uint256 requiredBlockConfirmations)"

	ValidatorAdded   = "event ValidatorAdded(address indexed validator)"
	ValidatorRemoved = "event ValidatorRemoved(address indexed validator)"
)

// Method signatures accepted as signed bridge calls.
const (
	MethodInitialize                        = "initialize(address,uint256,uint256,uint256,uint256)"
	MethodRequireToPassMessage              = "requireToPassMessage(address,bytes,uint256)"
	MethodRequireToPassMessageWithGasPrice  = "requireToPassMessage(address,bytes,uint256,uint256)"
	MethodRequireToPassMessageWithSpeed     = "requireToPassMessage(address,bytes,uint256,bytes1)"
	MethodExecuteAffirmation                = "executeAffirmation(bytes)"
	MethodDepositFor                        = "depositFor(address)"
	MethodSetSubsidizedModeForHomeToForeign = "setSubsidizedModeForHomeToForeign()"
	MethodSetSubsidizedModeForForeignToHome = "setSubsidizedModeForForeignToHome()"
	MethodSetDefrayalModeForHomeToForeign   = "setDefrayalModeForHomeToForeign()"
	MethodSetDefrayalModeForForeignToHome   = "setDefrayalModeForForeignToHome()"
	MethodSetMaxPerTx                       = "setMaxPerTx(uint256)"
)

var (
	ArbitraryMessageABI = abi.MustReadABI(arbitraryMessageJSONABI)
	BridgeValidatorsABI = abi.MustReadABI(bridgeValidatorsJSONABI)
)
