// Package evm settles games against the Scribble contract on an
// EVM-compatible chain, acting as the contract's game manager wallet.
package evm

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"

	"github.com/sketchchain/backend/internal/settlement"
)

// scribbleABI covers the five contract entry points the server uses.
const scribbleABI = `[
  {"inputs":[{"internalType":"string","name":"roomCode","type":"string"},{"internalType":"address","name":"winner","type":"address"}],"name":"endGame","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[],"name":"gameManager","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
  {"inputs":[],"name":"owner","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"string","name":"roomCode","type":"string"}],"name":"getRoomDetails","outputs":[{"internalType":"address","name":"roomCreator","type":"address"},{"internalType":"uint256","name":"wagerAmount","type":"uint256"},{"internalType":"uint256","name":"maxPlayers","type":"uint256"},{"internalType":"uint256","name":"currentPlayerCount","type":"uint256"},{"internalType":"bool","name":"isActive","type":"bool"},{"internalType":"address","name":"winner","type":"address"},{"internalType":"uint256","name":"totalPot","type":"uint256"},{"internalType":"bool","name":"gameEnded","type":"bool"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"string","name":"roomCode","type":"string"}],"name":"getRoomPlayers","outputs":[{"internalType":"address[]","name":"","type":"address[]"}],"stateMutability":"view","type":"function"}
]`

const settleGasLimit = 500_000

type Config struct {
	RPCURL          string
	ContractAddress string
	// PrivateKey is the game manager wallet key, hex with or without 0x.
	PrivateKey string
	// ChainID may be zero, in which case it is fetched from the node.
	ChainID int64
}

// Client implements settlement.Ledger against the Scribble contract.
type Client struct {
	eth      *ethclient.Client
	contract *bind.BoundContract
	key      *ecdsa.PrivateKey
	wallet   common.Address
	chainID  *big.Int
	logger   *zap.Logger
}

func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse game manager key: %w", err)
	}
	chainID := big.NewInt(cfg.ChainID)
	if cfg.ChainID == 0 {
		chainID, err = eth.ChainID(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch chain id: %w", err)
		}
	}
	parsed, err := abi.JSON(strings.NewReader(scribbleABI))
	if err != nil {
		return nil, fmt.Errorf("parse abi: %w", err)
	}
	addr := common.HexToAddress(cfg.ContractAddress)
	c := &Client{
		eth:      eth,
		contract: bind.NewBoundContract(addr, parsed, eth, eth, eth),
		key:      key,
		wallet:   crypto.PubkeyToAddress(key.PublicKey),
		chainID:  chainID,
		logger:   logger,
	}
	logger.Info("evm ledger initialized",
		zap.String("contract", addr.Hex()),
		zap.String("wallet", c.wallet.Hex()),
		zap.String("chain_id", chainID.String()))
	return c, nil
}

// Wallet returns the game manager address this process signs with.
func (c *Client) Wallet() string {
	return c.wallet.Hex()
}

// IsAuthorized reports whether the wallet is the contract's gameManager or
// owner; only those may call endGame.
func (c *Client) IsAuthorized(ctx context.Context) (bool, error) {
	opts := &bind.CallOpts{Context: ctx}

	var out []interface{}
	if err := c.contract.Call(opts, &out, "gameManager"); err != nil {
		return false, fmt.Errorf("call gameManager: %w", err)
	}
	manager := out[0].(common.Address)

	out = out[:0]
	if err := c.contract.Call(opts, &out, "owner"); err != nil {
		return false, fmt.Errorf("call owner: %w", err)
	}
	owner := out[0].(common.Address)

	return manager == c.wallet || owner == c.wallet, nil
}

func (c *Client) RoomRecord(ctx context.Context, roomCode string) (settlement.RoomRecord, error) {
	opts := &bind.CallOpts{Context: ctx}

	var details []interface{}
	if err := c.contract.Call(opts, &details, "getRoomDetails", roomCode); err != nil {
		return settlement.RoomRecord{}, fmt.Errorf("call getRoomDetails: %w", err)
	}
	creator := details[0].(common.Address)
	wager := details[1].(*big.Int)
	isActive := details[4].(bool)
	gameEnded := details[7].(bool)

	var playersOut []interface{}
	if err := c.contract.Call(opts, &playersOut, "getRoomPlayers", roomCode); err != nil {
		return settlement.RoomRecord{}, fmt.Errorf("call getRoomPlayers: %w", err)
	}
	addrs := playersOut[0].([]common.Address)
	participants := make([]string, len(addrs))
	for i, a := range addrs {
		participants[i] = a.Hex()
	}

	return settlement.RoomRecord{
		Creator:      creator.Hex(),
		WagerAmount:  wager.String(),
		Participants: participants,
		IsActive:     isActive,
		GameEnded:    gameEnded,
	}, nil
}

// Settle sends endGame(roomCode, winner). PriorityHigh resubmits with a 20%
// gas price bump so a retry is not stuck behind the underpriced original.
func (c *Client) Settle(ctx context.Context, roomCode, winner string, prio settlement.Priority) (string, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return "", fmt.Errorf("build transactor: %w", err)
	}
	auth.Context = ctx
	auth.GasLimit = settleGasLimit
	if prio == settlement.PriorityHigh {
		gasPrice, err := c.eth.SuggestGasPrice(ctx)
		if err == nil {
			auth.GasPrice = new(big.Int).Div(new(big.Int).Mul(gasPrice, big.NewInt(12)), big.NewInt(10))
		} else {
			c.logger.Warn("gas price suggestion failed, using node default", zap.Error(err))
		}
	}

	tx, err := c.contract.Transact(auth, "endGame", roomCode, common.HexToAddress(winner))
	if err != nil {
		return "", fmt.Errorf("send endGame: %w", err)
	}
	c.logger.Info("endGame transaction sent",
		zap.String("room", roomCode),
		zap.String("tx", tx.Hash().Hex()))
	return tx.Hash().Hex(), nil
}

// AwaitFinality polls for the transaction receipt until ctx expires.
func (c *Client) AwaitFinality(ctx context.Context, handle string) (bool, error) {
	hash := common.HexToHash(handle)

	var status uint64
	operation := func() error {
		receipt, err := c.eth.TransactionReceipt(ctx, hash)
		if err != nil {
			return err // not mined yet, or node hiccup
		}
		status = receipt.Status
		return nil
	}
	policy := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(2*time.Second),
		backoff.WithMaxInterval(15*time.Second),
		backoff.WithMaxElapsedTime(0),
	), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return false, fmt.Errorf("await receipt: %w", err)
	}
	return status == 1, nil
}
