package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"

	"github.com/omni/amb-bridge/entity"
)

var ErrInvalidConfig = errors.New("invalid config")

type RPCConfig struct {
	Host    string        `yaml:"host"`
	Timeout time.Duration `yaml:"timeout"`
}

type ValidatorsConfig struct {
	Owner              common.Address   `yaml:"owner"`
	RequiredSignatures uint             `yaml:"required_signatures"`
	Addresses          []common.Address `yaml:"addresses"`
}

type InitializeConfig struct {
	MaxPerTx                   uint64         `yaml:"max_per_tx"`
	MinPerTx                   uint64         `yaml:"min_per_tx"`
	GasPrice                   uint64         `yaml:"gas_price"`
	RequiredBlockConfirmations uint           `yaml:"required_block_confirmations"`
	HomeToForeignMode          entity.FeeMode `yaml:"home_to_foreign_mode"`
	ForeignToHomeMode          entity.FeeMode `yaml:"foreign_to_home_mode"`
}

// ExecutorConfig forwards messages addressed to Address to a recipient service at URL.
type ExecutorConfig struct {
	Address common.Address `yaml:"address"`
	URL     string         `yaml:"url"`
}

type BridgeConfig struct {
	ID                       string            `yaml:"-"`
	Address                  common.Address    `yaml:"address"`
	ChainID                  uint64            `yaml:"chain_id"`
	ValidatorContractAddress common.Address    `yaml:"validator_contract_address"`
	Funder                   common.Address    `yaml:"funder"`
	Validators               *ValidatorsConfig `yaml:"validators"`
	RPC                      *RPCConfig        `yaml:"rpc"`
	Initialize               *InitializeConfig `yaml:"initialize"`
	Executors                []*ExecutorConfig `yaml:"executors"`
}

type DBConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       string `yaml:"database"`
}

type PresenterConfig struct {
	Host string `yaml:"host"`
}

type MetricsConfig struct {
	Host string `yaml:"host"`
}

type Config struct {
	Bridges   map[string]*BridgeConfig `yaml:"bridges"`
	DBConfig  *DBConfig                `yaml:"postgres"`
	Presenter *PresenterConfig         `yaml:"presenter"`
	Metrics   *MetricsConfig           `yaml:"metrics"`
	LogLevel  logrus.Level             `yaml:"log_level"`
}

const defaultRPCTimeout = 30 * time.Second

func readYamlConfig(blob []byte) (*Config, error) {
	cfg := new(Config)
	if err := parseYaml(cfg, blob); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) init() error {
	if len(cfg.Bridges) == 0 {
		return fmt.Errorf("no bridges configured: %w", ErrInvalidConfig)
	}
	for id, bridge := range cfg.Bridges {
		if bridge == nil {
			return fmt.Errorf("bridge %s has empty config: %w", id, ErrInvalidConfig)
		}
		bridge.ID = id
		if err := bridge.init(); err != nil {
			return fmt.Errorf("bridge %s: %w", id, err)
		}
	}
	if cfg.LogLevel == 0 {
		cfg.LogLevel = logrus.InfoLevel
	}
	return nil
}

func (cfg *BridgeConfig) init() error {
	if cfg.Address == (common.Address{}) {
		return fmt.Errorf("bridge address is not set: %w", ErrInvalidConfig)
	}
	if cfg.Validators == nil && cfg.ValidatorContractAddress == (common.Address{}) {
		return fmt.Errorf("neither static validators nor validator contract are set: %w", ErrInvalidConfig)
	}
	if cfg.Validators != nil {
		if cfg.Validators.RequiredSignatures == 0 {
			return fmt.Errorf("required_signatures must be positive: %w", ErrInvalidConfig)
		}
		if int(cfg.Validators.RequiredSignatures) > len(cfg.Validators.Addresses) {
			return fmt.Errorf("required_signatures %d exceeds number of validators %d: %w",
				cfg.Validators.RequiredSignatures, len(cfg.Validators.Addresses), ErrInvalidConfig)
		}
	} else if cfg.RPC == nil || cfg.RPC.Host == "" {
		return fmt.Errorf("rpc is required to query validator contract: %w", ErrInvalidConfig)
	}
	if cfg.RPC != nil && cfg.RPC.Timeout == 0 {
		cfg.RPC.Timeout = defaultRPCTimeout
	}
	seen := make(map[common.Address]bool, len(cfg.Executors))
	for _, executor := range cfg.Executors {
		if executor == nil || executor.Address == (common.Address{}) || executor.URL == "" {
			return fmt.Errorf("executor must have address and url: %w", ErrInvalidConfig)
		}
		if seen[executor.Address] {
			return fmt.Errorf("executor %s is configured twice: %w", executor.Address, ErrInvalidConfig)
		}
		seen[executor.Address] = true
	}
	if init := cfg.Initialize; init != nil {
		for _, mode := range [2]*entity.FeeMode{&init.HomeToForeignMode, &init.ForeignToHomeMode} {
			if *mode == "" {
				*mode = entity.FeeModeDefrayal
			}
			if !mode.IsValid() {
				return fmt.Errorf("unknown fee mode %q: %w", *mode, ErrInvalidConfig)
			}
		}
	}
	return nil
}

func ReadConfig(blob []byte) (*Config, error) {
	cfg, err := readYamlConfig(blob)
	if err != nil {
		return nil, err
	}
	if err = cfg.init(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ReadConfigWithEnv(blob []byte) (*Config, error) {
	return ReadConfig([]byte(os.ExpandEnv(string(blob))))
}

func ReadConfigFromFile(path string) (*Config, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't read config file: %w", err)
	}
	return ReadConfigWithEnv(blob)
}
