package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"github.com/omni/amb-bridge/bridge"
	"github.com/omni/amb-bridge/presenter/http/render"
)

type ctxKey int

const (
	bridgeCtxKey ctxKey = iota
	fromBlockNumberCtxKey
	toBlockNumberCtxKey
	txHashCtxKey
	filterCtxKey
)

const maxBlockRangeSize = 10000

var ErrInvalidBlockNumber = errors.New("invalid block number parameter")

type FilterContext struct {
	FromBlock *uint
	ToBlock   *uint
	TxHash    *common.Hash
}

func GetBridgeMiddleware(bridges map[string]*bridge.Bridge) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bridgeID := chi.URLParam(r, "bridgeID")

			b, ok := bridges[bridgeID]
			if !ok || b == nil {
				render.Error(w, r, http.StatusNotFound, fmt.Errorf("bridge with id %s not found", bridgeID))
				return
			}

			ctx := context.WithValue(r.Context(), bridgeCtxKey, b)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func Bridge(ctx context.Context) *bridge.Bridge {
	if b, ok := ctx.Value(bridgeCtxKey).(*bridge.Bridge); ok {
		return b
	}
	return nil
}

func GetBlockNumberMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		blockNumberStr := query.Get("blockNumber")

		var fromBlockStr, toBlockStr string
		if blockNumberStr == "" {
			fromBlockStr = query.Get("fromBlock")
			toBlockStr = query.Get("toBlock")
			if fromBlockStr == "" || toBlockStr == "" {
				next.ServeHTTP(w, r)
				return
			}
		} else {
			fromBlockStr = blockNumberStr
			toBlockStr = blockNumberStr
		}

		fromBlock, err := strconv.ParseUint(fromBlockStr, 10, 32)
		if err != nil {
			render.Error(w, r, http.StatusBadRequest, fmt.Errorf("failed to parse blockNumber: %w", err))
			return
		}
		toBlock, err := strconv.ParseUint(toBlockStr, 10, 32)
		if err != nil {
			render.Error(w, r, http.StatusBadRequest, fmt.Errorf("failed to parse blockNumber: %w", err))
			return
		}

		if fromBlock > toBlock {
			render.Error(w, r, http.StatusBadRequest, fmt.Errorf("fromBlock should be less than toBlock: %w", ErrInvalidBlockNumber))
			return
		}
		if toBlock-fromBlock > maxBlockRangeSize {
			render.Error(w, r, http.StatusBadRequest, fmt.Errorf("cannot request more than %d blocks in range: %w", maxBlockRangeSize, ErrInvalidBlockNumber))
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, fromBlockNumberCtxKey, uint(fromBlock))
		ctx = context.WithValue(ctx, toBlockNumberCtxKey, uint(toBlock))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetTxHashMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		txHash := chi.URLParam(r, "txHash")

		if txHash == "" {
			txHash = r.URL.Query().Get("txHash")
			if txHash == "" {
				next.ServeHTTP(w, r)
				return
			}
		}

		ctx := context.WithValue(r.Context(), txHashCtxKey, common.HexToHash(txHash))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetFilterMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		filter := &FilterContext{}

		if blockNumber, ok := ctx.Value(fromBlockNumberCtxKey).(uint); ok {
			filter.FromBlock = &blockNumber
		}
		if blockNumber, ok := ctx.Value(toBlockNumberCtxKey).(uint); ok {
			filter.ToBlock = &blockNumber
		}
		if txHash, ok := ctx.Value(txHashCtxKey).(common.Hash); ok {
			filter.TxHash = &txHash
		}

		ctx = context.WithValue(ctx, filterCtxKey, filter)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func GetFilterContext(ctx context.Context) *FilterContext {
	if cfg, ok := ctx.Value(filterCtxKey).(*FilterContext); ok {
		return cfg
	}
	return new(FilterContext)
}
