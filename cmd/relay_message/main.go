package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/amb-bridge/contract/bridgeabi"
	"github.com/omni/amb-bridge/logging"
	"github.com/omni/amb-bridge/message"
	"github.com/omni/amb-bridge/presenter"
	"github.com/omni/amb-bridge/utils"
)

var (
	encodedData = flag.String("message", "", "hex encoded message from a UserRequestForSignature event")
	txHash      = flag.String("txHash", "", "hash of the transaction that emitted the message")
	nodeURL     = flag.String("node", "", "bridge node url to submit the affirmation to, e.g. http://localhost:3333")
	bridgeID    = flag.String("bridgeId", "", "bridgeId on the node")
	keyHex      = flag.String("key", "", "hex encoded validator private key")
	blockNumber = flag.Uint("blockNumber", 0, "host block number of the affirmation call")
	callNonce   = flag.Uint64("nonce", 0, "call nonce, unique per validator, defaults to the current unix time in nanoseconds")
)

func main() {
	flag.Parse()

	logger := logging.New()

	if *encodedData == "" || *txHash == "" {
		logger.Fatal("both --message and --txHash should be specified")
	}
	relayed, err := message.SetTxHash(common.FromHex(*encodedData), common.HexToHash(*txHash))
	if err != nil {
		logger.WithError(err).Fatal("can't set message tx hash")
	}
	msg, err := message.Decode(relayed)
	if err != nil {
		logger.WithError(err).Fatal("can't decode relayed message")
	}
	logger.WithFields(logrus.Fields{
		"msg_hash":  msg.MsgHash,
		"sender":    msg.Sender,
		"executor":  msg.Executor,
		"nonce":     msg.Nonce,
		"gas_limit": msg.GasLimit,
	}).Info("prepared relayed message")
	fmt.Println(common.Bytes2Hex(relayed))

	if *nodeURL == "" {
		return
	}
	if *bridgeID == "" || *keyHex == "" {
		logger.Fatal("--bridgeId and --key are required to submit the affirmation")
	}
	data, err := bridgeabi.ArbitraryMessageABI.Pack("executeAffirmation", relayed)
	if err != nil {
		logger.WithError(err).Fatal("can't pack executeAffirmation call")
	}
	info, err := bridgeInfo(*nodeURL, *bridgeID)
	if err != nil {
		logger.WithError(err).Fatal("can't get bridge info")
	}
	nonce := *callNonce
	if nonce == 0 {
		nonce = uint64(time.Now().UnixNano())
	}
	sig, err := utils.SignData(presenter.SigningPayload(info.Address, nonce, data), common.FromHex(*keyHex))
	if err != nil {
		logger.WithError(err).Fatal("can't sign affirmation")
	}
	res, err := submit(*nodeURL, *bridgeID, &presenter.CallRequest{
		Data:        data,
		Nonce:       nonce,
		Signature:   sig,
		BlockNumber: *blockNumber,
	})
	if err != nil {
		logger.WithError(err).Fatal("can't submit affirmation")
	}
	logger.WithField("tx_hash", res.TxHash).Info("affirmation submitted")
	for _, log := range res.Logs {
		logger.WithField("event", log.Event).Info("bridge emitted event")
	}
}

var client = &http.Client{Timeout: 30 * time.Second}

func bridgeInfo(url, bridgeID string) (*presenter.BridgeInfo, error) {
	resp, err := client.Get(fmt.Sprintf("%s/bridge/%s/", url, bridgeID))
	if err != nil {
		return nil, fmt.Errorf("can't send bridge info request: %w", err)
	}
	defer resp.Body.Close()

	res := new(presenter.BridgeInfo)
	if err = decodeResponse(resp, res); err != nil {
		return nil, err
	}
	return res, nil
}

func submit(url, bridgeID string, req *presenter.CallRequest) (*presenter.CallResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("can't marshal call request: %w", err)
	}
	resp, err := client.Post(fmt.Sprintf("%s/bridge/%s/calls", url, bridgeID), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("can't send call request: %w", err)
	}
	defer resp.Body.Close()

	res := new(presenter.CallResult)
	if err = decodeResponse(resp, res); err != nil {
		return nil, err
	}
	return res, nil
}

func decodeResponse(resp *http.Response, res interface{}) error {
	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("can't read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("node responded with %d: %s", resp.StatusCode, blob)
	}
	if err = json.Unmarshal(blob, res); err != nil {
		return fmt.Errorf("can't decode response: %w", err)
	}
	return nil
}
