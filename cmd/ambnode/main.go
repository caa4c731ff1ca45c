package main

import (
	"context"
	"flag"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/omni/amb-bridge/bridge"
	"github.com/omni/amb-bridge/config"
	"github.com/omni/amb-bridge/contract"
	"github.com/omni/amb-bridge/db"
	"github.com/omni/amb-bridge/dispatcher"
	"github.com/omni/amb-bridge/ethclient"
	"github.com/omni/amb-bridge/logging"
	"github.com/omni/amb-bridge/presenter"
	"github.com/omni/amb-bridge/repository"
	"github.com/omni/amb-bridge/utils"
	"github.com/omni/amb-bridge/validators"
)

const (
	dbConnectAttempts = 10
	dbConnectDelay    = 3 * time.Second
)

var configPath = flag.String("config", "config.yml", "path to the config file")

func main() {
	flag.Parse()

	logger := logging.New()

	cfg, err := config.ReadConfigFromFile(*configPath)
	if err != nil {
		logger.WithError(err).Fatal("can't read config")
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := repository.NewMemoryStore()
	if cfg.DBConfig != nil {
		dbConn, err2 := connectToDB(ctx, logger, cfg.DBConfig)
		if err2 != nil {
			logger.WithError(err2).Fatal("can't connect to database and apply migrations")
		}
		defer dbConn.Close()
		store = repository.NewPostgresStore(dbConn)
	} else {
		logger.Warn("postgres is not configured, bridge state is kept in memory")
	}

	if cfg.Metrics != nil {
		http.Handle("/metrics", promhttp.Handler())
		go func() {
			err := http.ListenAndServe(cfg.Metrics.Host, nil)
			if err != nil {
				logger.WithError(err).Fatal("can't start listener for prometheus metrics")
			}
		}()
	}

	bridges := make(map[string]*bridge.Bridge, len(cfg.Bridges))
	for _, bridgeCfg := range cfg.Bridges {
		bridgeLogger := logger.WithField("bridge_id", bridgeCfg.ID)
		b, err2 := newBridge(ctx, bridgeLogger, bridgeCfg, store)
		if err2 != nil {
			bridgeLogger.WithError(err2).Fatal("can't start bridge")
		}
		bridges[bridgeCfg.ID] = b
	}

	if cfg.Presenter != nil {
		pr := presenter.NewPresenter(logger.WithField("service", "presenter"), bridges)
		go func() {
			err := pr.Serve(cfg.Presenter.Host)
			if err != nil {
				logger.WithError(err).Fatal("can't serve presenter")
			}
		}()
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	for range c {
		cancel()
		logger.Warn("caught CTRL-C, gracefully terminating")
		return
	}
}

func connectToDB(ctx context.Context, logger logging.Logger, cfg *config.DBConfig) (*db.DB, error) {
	var err error
	for i := 1; i <= dbConnectAttempts; i++ {
		var conn *db.DB
		conn, err = db.ConnectToDBAndMigrate(cfg)
		if err == nil {
			return conn, nil
		}
		logger.WithError(err).WithField("attempt", i).Warn("can't connect to database, retrying")
		if utils.ContextSleep(ctx, dbConnectDelay) == nil {
			return nil, ctx.Err()
		}
	}
	return nil, err
}

func newBridge(ctx context.Context, logger logging.Logger, cfg *config.BridgeConfig, store repository.Store) (*bridge.Bridge, error) {
	var client ethclient.Client
	if cfg.RPC != nil && cfg.RPC.Host != "" {
		var err error
		client, err = ethclient.NewClient(cfg.RPC.Host, cfg.RPC.Timeout, cfg.ChainID)
		if err != nil {
			return nil, err
		}
	}

	var set validators.Set
	if cfg.Validators != nil {
		static, err := validators.NewStaticFromConfig(cfg.Validators)
		if err != nil {
			return nil, err
		}
		set = static
	} else {
		set = contract.NewValidatorsContract(client, cfg.ValidatorContractAddress)
	}

	registry := dispatcher.NewRegistry()
	for _, executor := range cfg.Executors {
		registry.Register(executor.Address, dispatcher.NewHTTPHandler(executor.URL, http.DefaultClient))
		logger.WithFields(logrus.Fields{
			"executor": executor.Address,
			"url":      executor.URL,
		}).Info("registered message recipient")
	}
	if len(cfg.Executors) == 0 {
		logger.Warn("no executors configured, every affirmed message will fail to execute")
	}

	b := bridge.NewBridge(cfg, store, set, registry, logger)
	if cfg.Initialize != nil {
		if err := initializeBridge(ctx, logger, b, cfg, client); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// initializeBridge applies the initialize section of the config once. The deployment
// block is the current chain head when an rpc endpoint is configured.
func initializeBridge(ctx context.Context, logger logging.Logger, b *bridge.Bridge, cfg *config.BridgeConfig, client ethclient.Client) error {
	initialized, err := b.IsInitialized(ctx)
	if err != nil || initialized {
		return err
	}

	call := &bridge.Call{
		From:   cfg.Address,
		TxHash: crypto.Keccak256Hash([]byte("initialize"), []byte(cfg.ID), cfg.Address[:]),
	}
	if client != nil {
		head, err2 := client.BlockNumber(ctx)
		if err2 != nil {
			return err2
		}
		call.BlockNumber = head
	}
	initCfg := cfg.Initialize
	_, err = b.Initialize(ctx, call, bridge.InitializeParams{
		ValidatorContract:          cfg.ValidatorContractAddress,
		MaxPerTx:                   initCfg.MaxPerTx,
		MinPerTx:                   initCfg.MinPerTx,
		GasPrice:                   new(big.Int).SetUint64(initCfg.GasPrice),
		RequiredBlockConfirmations: initCfg.RequiredBlockConfirmations,
		HomeToForeignMode:          initCfg.HomeToForeignMode,
		ForeignToHomeMode:          initCfg.ForeignToHomeMode,
	})
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"deployed_at_block": call.BlockNumber,
		"max_per_tx":        initCfg.MaxPerTx,
		"gas_price":         initCfg.GasPrice,
	}).Info("bridge initialized from config")
	return nil
}
