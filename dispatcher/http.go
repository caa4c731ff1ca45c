package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

var ErrExecutionReverted = errors.New("execution reverted")

type forwardRequest struct {
	Caller   common.Address `json:"caller"`
	Sender   common.Address `json:"sender"`
	Executor common.Address `json:"executor"`
	TxHash   common.Hash    `json:"txHash"`
	MsgHash  common.Hash    `json:"msgHash"`
	Data     hexutil.Bytes  `json:"data"`
	Gas      hexutil.Uint64 `json:"gas"`
}

type forwardResponse struct {
	GasUsed    hexutil.Uint64 `json:"gasUsed"`
	ReturnData hexutil.Bytes  `json:"returnData"`
	Error      string         `json:"error,omitempty"`
}

// HTTPHandler forwards messages to a recipient service. The service answers 200 with
// the gas it used, a non-empty error field marks the execution as reverted.
type HTTPHandler struct {
	url    string
	client *http.Client
}

func NewHTTPHandler(url string, client *http.Client) *HTTPHandler {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPHandler{url: url, client: client}
}

func (h *HTTPHandler) Handle(ctx context.Context, call *Call) (*Result, error) {
	body, err := json.Marshal(&forwardRequest{
		Caller:   call.Caller,
		Sender:   call.Sender,
		Executor: call.Executor,
		TxHash:   call.TxHash,
		MsgHash:  call.MsgHash,
		Data:     call.Data,
		Gas:      hexutil.Uint64(call.Gas),
	})
	if err != nil {
		return nil, fmt.Errorf("can't marshal forwarded call: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("can't create forward request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("can't forward call to %s: %w", h.url, err)
	}
	defer resp.Body.Close()

	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("can't read recipient response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("recipient responded with %d: %s", resp.StatusCode, blob)
	}
	var res forwardResponse
	if err = json.Unmarshal(blob, &res); err != nil {
		return nil, fmt.Errorf("can't decode recipient response: %w", err)
	}
	result := &Result{GasUsed: uint64(res.GasUsed), ReturnData: res.ReturnData}
	if res.Error != "" {
		return result, fmt.Errorf("%w: %s", ErrExecutionReverted, res.Error)
	}
	return result, nil
}
