package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4000, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, BackendNone, cfg.LedgerBackend)
	assert.Equal(t, "https://arweave.net", cfg.ArweaveGatewayURL)
	assert.Equal(t, ":4000", cfg.Addr())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LEDGER_BACKEND", "evm")
	t.Setenv("RPC_URL", "http://localhost:8545")
	t.Setenv("CONTRACT_ADDRESS", "0xdead")
	t.Setenv("GAME_MANAGER_PRIVATE_KEY", "abc123")
	t.Setenv("CHAIN_ID", "31337")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, BackendEVM, cfg.LedgerBackend)
	assert.Equal(t, "http://localhost:8545", cfg.RPCURL)
	assert.Equal(t, int64(31337), cfg.ChainID)
}

func TestValidateEVMRequiresCredentials(t *testing.T) {
	cfg := Config{Port: 4000, LedgerBackend: BackendEVM}
	assert.Error(t, cfg.Validate())

	cfg.RPCURL = "http://localhost:8545"
	cfg.ContractAddress = "0xdead"
	cfg.GameManagerKey = "abc123"
	assert.NoError(t, cfg.Validate())
}

func TestValidateArweaveRequiresContract(t *testing.T) {
	cfg := Config{Port: 4000, LedgerBackend: BackendArweave}
	assert.Error(t, cfg.Validate())

	cfg.ArweaveContractID = "contract-1"
	cfg.ArweaveWallet = "wallet-1"
	assert.NoError(t, cfg.Validate())
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := Config{Port: 4000, LedgerBackend: "solana"}
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := Config{Port: 0, LedgerBackend: BackendNone}
	assert.Error(t, cfg.Validate())
	cfg.Port = 70000
	assert.Error(t, cfg.Validate())
}
