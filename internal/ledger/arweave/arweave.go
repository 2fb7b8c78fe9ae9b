// Package arweave settles games through a Warp-style contract gateway in
// front of Arweave. Reads come from the gateway's cached contract state;
// writes are interactions posted to the gateway, which sequences and signs
// them on behalf of the registered game manager wallet. Finality is the
// plain Arweave /tx/{id}/status endpoint.
package arweave

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/sketchchain/backend/internal/settlement"
)

type Config struct {
	GatewayURL string
	ContractID string
	// WalletAddress is the game manager identity registered with the
	// contract; the gateway signs on its behalf.
	WalletAddress string
}

type Client struct {
	http   *http.Client
	cfg    Config
	logger *zap.Logger

	// pollInterval is shortened in tests.
	pollInterval time.Duration
}

func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:         &http.Client{Timeout: 30 * time.Second},
		cfg:          Config{GatewayURL: strings.TrimRight(cfg.GatewayURL, "/"), ContractID: cfg.ContractID, WalletAddress: cfg.WalletAddress},
		logger:       logger,
		pollInterval: 5 * time.Second,
	}
}

// contractState mirrors the slice of the Scribble contract state the
// server reads.
type contractState struct {
	State struct {
		Owner       string               `json:"owner"`
		GameManager string               `json:"gameManager"`
		Rooms       map[string]roomState `json:"rooms"`
	} `json:"state"`
}

type roomState struct {
	Creator     string   `json:"creator"`
	WagerAmount string   `json:"wagerAmount"`
	Players     []string `json:"players"`
	IsActive    bool     `json:"isActive"`
	GameEnded   bool     `json:"gameEnded"`
}

func (c *Client) fetchState(ctx context.Context) (contractState, error) {
	url := fmt.Sprintf("%s/contract?id=%s", c.cfg.GatewayURL, c.cfg.ContractID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return contractState{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return contractState{}, fmt.Errorf("fetch contract state: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return contractState{}, fmt.Errorf("fetch contract state: %s", resp.Status)
	}
	var state contractState
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		return contractState{}, fmt.Errorf("decode contract state: %w", err)
	}
	return state, nil
}

func (c *Client) IsAuthorized(ctx context.Context) (bool, error) {
	state, err := c.fetchState(ctx)
	if err != nil {
		return false, err
	}
	return state.State.Owner == c.cfg.WalletAddress ||
		state.State.GameManager == c.cfg.WalletAddress, nil
}

func (c *Client) RoomRecord(ctx context.Context, roomCode string) (settlement.RoomRecord, error) {
	state, err := c.fetchState(ctx)
	if err != nil {
		return settlement.RoomRecord{}, err
	}
	room, ok := state.State.Rooms[roomCode]
	if !ok {
		return settlement.RoomRecord{}, fmt.Errorf("room %s not present in contract state", roomCode)
	}
	return settlement.RoomRecord{
		Creator:      room.Creator,
		WagerAmount:  room.WagerAmount,
		Participants: room.Players,
		IsActive:     room.IsActive,
		GameEnded:    room.GameEnded,
	}, nil
}

type interactionRequest struct {
	ContractID string           `json:"contractId"`
	Caller     string           `json:"caller"`
	Priority   bool             `json:"priority"`
	Input      interactionInput `json:"input"`
}

type interactionInput struct {
	Function string `json:"function"`
	RoomCode string `json:"roomCode"`
	Winner   string `json:"winner"`
}

type interactionResponse struct {
	OriginalTxID string `json:"originalTxId"`
}

// Settle posts an endGame interaction. PriorityHigh asks the gateway for a
// boosted reward so the interaction is not starved during fee spikes.
func (c *Client) Settle(ctx context.Context, roomCode, winner string, prio settlement.Priority) (string, error) {
	body, err := json.Marshal(interactionRequest{
		ContractID: c.cfg.ContractID,
		Caller:     c.cfg.WalletAddress,
		Priority:   prio == settlement.PriorityHigh,
		Input: interactionInput{
			Function: "endGame",
			RoomCode: roomCode,
			Winner:   winner,
		},
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.GatewayURL+"/contract/interact", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("post interaction: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("gateway rejected interaction: %s: %s", resp.Status, msg)
	}
	var out interactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode interaction response: %w", err)
	}
	c.logger.Info("endGame interaction posted",
		zap.String("room", roomCode),
		zap.String("tx", out.OriginalTxID))
	return out.OriginalTxID, nil
}

// AwaitFinality polls /tx/{id}/status: 200 means mined, 202 means still
// pending, anything else is terminal failure.
func (c *Client) AwaitFinality(ctx context.Context, handle string) (bool, error) {
	url := fmt.Sprintf("%s/tx/%s/status", c.cfg.GatewayURL, handle)

	confirmed := false
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		switch resp.StatusCode {
		case http.StatusOK:
			confirmed = true
			return nil
		case http.StatusAccepted:
			return fmt.Errorf("transaction %s still pending", handle)
		default:
			confirmed = false
			return backoff.Permanent(fmt.Errorf("transaction status %s", resp.Status))
		}
	}
	policy := backoff.WithContext(backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(c.pollInterval),
		backoff.WithMaxInterval(30*time.Second),
		backoff.WithMaxElapsedTime(0),
	), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		var perm *backoff.PermanentError
		if errors.As(err, &perm) {
			// Terminal rejection is a failed settlement, not a fault.
			c.logger.Warn("transaction rejected", zap.Error(perm))
			return false, nil
		}
		return false, err
	}
	return confirmed, nil
}
