package presenter

import (
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/omni/amb-bridge/bridge"
	"github.com/omni/amb-bridge/db"
	"github.com/omni/amb-bridge/entity"
	"github.com/omni/amb-bridge/logging"
	mw "github.com/omni/amb-bridge/presenter/http/middleware"
	"github.com/omni/amb-bridge/presenter/http/render"
)

const (
	hashPattern    = "{%s:0x[0-9a-fA-F]{64}}"
	addressPattern = "{%s:0x[0-9a-fA-F]{40}}"
)

var ErrMissingFilter = errors.New("block range or tx hash filter is required")

type Presenter struct {
	logger  logging.Logger
	bridges map[string]*bridge.Bridge
	root    chi.Router
}

func NewPresenter(logger logging.Logger, bridges map[string]*bridge.Bridge) *Presenter {
	p := &Presenter{
		logger:  logger,
		bridges: bridges,
		root:    chi.NewMux(),
	}
	p.root.Use(middleware.Throttle(50))
	p.root.Use(middleware.RequestID)
	p.root.Use(mw.NewLoggerMiddleware(logger))
	p.root.Use(mw.Recoverer)
	p.root.With(mw.GetTxHashMiddleware, mw.GetFilterMiddleware).
		Get(fmt.Sprintf("/tx/"+hashPattern, "txHash"), p.SearchTx)
	p.root.Route("/bridge/{bridgeID:[0-9a-zA-Z_\\-]+}", func(r chi.Router) {
		r.Use(mw.GetBridgeMiddleware(bridges))
		r.Get("/", p.GetBridgeInfo)
		r.Post("/calls", p.PostCall)
		r.Get(fmt.Sprintf("/messages/"+hashPattern, "msgHash"), p.GetMessage)
		r.Get(fmt.Sprintf("/affirmations/"+hashPattern, "senderHash"), p.GetAffirmationSigned)
		r.Get(fmt.Sprintf("/balances/"+addressPattern, "address"), p.GetBalance)
		r.With(mw.GetTxHashMiddleware, mw.GetFilterMiddleware).
			Get(fmt.Sprintf("/tx/"+hashPattern, "txHash"), p.GetLogs)
		r.With(mw.GetBlockNumberMiddleware, mw.GetTxHashMiddleware, mw.GetFilterMiddleware).
			Get("/logs", p.GetLogs)
	})
	return p
}

func (p *Presenter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.root.ServeHTTP(w, r)
}

func (p *Presenter) Serve(addr string) error {
	p.logger.WithField("addr", addr).Info("starting presenter service")
	return http.ListenAndServe(addr, p.root)
}

func (p *Presenter) GetBridgeInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := mw.Bridge(ctx)

	mode := bridge.GetBridgeMode()
	major, minor, patch := bridge.GetBridgeInterfacesVersion()
	res := &BridgeInfo{
		BridgeID:   b.ID(),
		Address:    b.Address(),
		ChainID:    b.ChainID(),
		Funder:     b.Funder(),
		BridgeMode: mode[:],
		Version:    fmt.Sprintf("%d.%d.%d", major, minor, patch),
	}
	var err error
	if res.Initialized, err = b.IsInitialized(ctx); err != nil {
		render.Error(w, r, errorStatus(err), err)
		return
	}
	if res.Initialized {
		if err = p.fillBridgeState(r, b, res); err != nil {
			render.Error(w, r, errorStatus(err), err)
			return
		}
	}
	render.JSON(w, r, http.StatusOK, res)
}

func (p *Presenter) fillBridgeState(r *http.Request, b *bridge.Bridge, res *BridgeInfo) error {
	ctx := r.Context()
	var err error
	if res.DeployedAtBlock, err = b.DeployedAtBlock(ctx); err != nil {
		return err
	}
	if res.ValidatorContract, err = b.ValidatorContract(ctx); err != nil {
		return err
	}
	if res.MaxPerTx, err = b.MaxPerTx(ctx); err != nil {
		return err
	}
	if res.MinPerTx, err = b.MinPerTx(ctx); err != nil {
		return err
	}
	gasPrice, err := b.GasPrice(ctx)
	if err != nil {
		return err
	}
	res.GasPrice = gasPrice.String()
	if res.RequiredBlockConfirmations, err = b.RequiredBlockConfirmations(ctx); err != nil {
		return err
	}
	if res.HomeToForeignMode, err = b.HomeToForeignMode(ctx); err != nil {
		return err
	}
	res.ForeignToHomeMode, err = b.ForeignToHomeMode(ctx)
	return err
}

func (p *Presenter) GetMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := mw.Bridge(ctx)
	msgHash := common.HexToHash(chi.URLParam(r, "msgHash"))

	msg, err := b.Message(ctx, msgHash)
	if err != nil {
		render.Error(w, r, errorStatus(err), fmt.Errorf("can't find message %s: %w", msgHash, err))
		return
	}
	res := messageToInfo(msg)
	if res.NumSigned, err = b.NumAffirmationsSigned(ctx, msgHash); err != nil {
		render.Error(w, r, errorStatus(err), err)
		return
	}
	if res.Processed, err = b.IsAffirmationProcessed(ctx, msgHash); err != nil {
		render.Error(w, r, errorStatus(err), err)
		return
	}
	signatures, err := b.SignedAffirmations(ctx, msgHash)
	if err != nil {
		render.Error(w, r, errorStatus(err), err)
		return
	}
	for _, sig := range signatures {
		res.Affirmations = append(res.Affirmations, &AffirmationInfo{Signer: sig.Signer, TxHash: sig.TxHash})
	}
	executed, err := b.ExecutedMessage(ctx, msgHash)
	if err = db.IgnoreErrNotFound(err); err != nil {
		render.Error(w, r, errorStatus(err), err)
		return
	}
	if executed != nil {
		res.Execution = &ExecutionInfo{Status: executed.Status, GasUsed: executed.GasUsed, TxHash: executed.TxHash}
	}
	render.JSON(w, r, http.StatusOK, res)
}

func (p *Presenter) GetAffirmationSigned(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	senderHash := common.HexToHash(chi.URLParam(r, "senderHash"))

	signed, err := mw.Bridge(ctx).AffirmationsSigned(ctx, senderHash)
	if err != nil {
		render.Error(w, r, errorStatus(err), err)
		return
	}
	render.JSON(w, r, http.StatusOK, &SignedInfo{SenderHash: senderHash, Signed: signed})
}

func (p *Presenter) GetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	addr := common.HexToAddress(chi.URLParam(r, "address"))

	balance, err := mw.Bridge(ctx).BalanceOf(ctx, addr)
	if err != nil {
		render.Error(w, r, errorStatus(err), err)
		return
	}
	render.JSON(w, r, http.StatusOK, &BalanceInfo{Address: addr, Balance: balance.String()})
}

// SearchTx returns the logs emitted by the transaction in every served bridge.
func (p *Presenter) SearchTx(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	txHash := mw.GetFilterContext(ctx).TxHash

	ids := make([]string, 0, len(p.bridges))
	for id := range p.bridges {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	res := make([]*LogResult, 0)
	for _, id := range ids {
		logs, err := p.bridges[id].Logs(ctx, *txHash)
		if err != nil {
			render.Error(w, r, errorStatus(err), err)
			return
		}
		res = append(res, logsToResults(logging.LoggerFromContext(ctx), logs)...)
	}
	render.JSON(w, r, http.StatusOK, res)
}

func (p *Presenter) GetLogs(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	b := mw.Bridge(ctx)
	filter := mw.GetFilterContext(ctx)

	var logs []*entity.Log
	var err error
	switch {
	case filter.TxHash != nil:
		logs, err = b.Logs(ctx, *filter.TxHash)
	case filter.FromBlock != nil && filter.ToBlock != nil:
		logs, err = b.LogsInRange(ctx, *filter.FromBlock, *filter.ToBlock)
	default:
		render.Error(w, r, http.StatusBadRequest, ErrMissingFilter)
		return
	}
	if err != nil {
		render.Error(w, r, errorStatus(err), err)
		return
	}
	render.JSON(w, r, http.StatusOK, logsToResults(logging.LoggerFromContext(ctx), logs))
}
