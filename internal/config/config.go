// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendEVM     = "evm"
	BackendArweave = "arweave"
	BackendNone    = "none"
)

type Config struct {
	Port     int    `env:"PORT" envDefault:"4000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// LedgerBackend selects the settlement adapter: evm, arweave or none.
	LedgerBackend string `env:"LEDGER_BACKEND" envDefault:"none"`

	RPCURL          string `env:"RPC_URL"`
	ContractAddress string `env:"CONTRACT_ADDRESS"`
	GameManagerKey  string `env:"GAME_MANAGER_PRIVATE_KEY"`
	ChainID         int64  `env:"CHAIN_ID"`

	ArweaveGatewayURL string `env:"ARWEAVE_GATEWAY_URL" envDefault:"https://arweave.net"`
	ArweaveContractID string `env:"ARWEAVE_CONTRACT_ID"`
	ArweaveWallet     string `env:"ARWEAVE_WALLET_ADDRESS"`

	// DatabaseURL enables the postgres game archive when set.
	DatabaseURL string `env:"DATABASE_URL"`
}

// Load reads .env if present, then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.LedgerBackend {
	case BackendEVM:
		if c.RPCURL == "" || c.ContractAddress == "" || c.GameManagerKey == "" {
			return fmt.Errorf("evm backend requires RPC_URL, CONTRACT_ADDRESS and GAME_MANAGER_PRIVATE_KEY")
		}
	case BackendArweave:
		if c.ArweaveContractID == "" || c.ArweaveWallet == "" {
			return fmt.Errorf("arweave backend requires ARWEAVE_CONTRACT_ID and ARWEAVE_WALLET_ADDRESS")
		}
	case BackendNone:
	default:
		return fmt.Errorf("unknown ledger backend %q", c.LedgerBackend)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
