package arweave

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchchain/backend/internal/settlement"
)

const testState = `{
	"state": {
		"owner": "owner-wallet",
		"gameManager": "manager-wallet",
		"rooms": {
			"ROOM1": {
				"creator": "creator-wallet",
				"wagerAmount": "10",
				"players": ["alice-wallet", "bob-wallet"],
				"isActive": true,
				"gameEnded": false
			}
		}
	}
}`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(Config{
		GatewayURL:    srv.URL + "/", // trailing slash must be tolerated
		ContractID:    "contract-1",
		WalletAddress: "manager-wallet",
	}, nil)
	c.pollInterval = 5 * time.Millisecond
	return c
}

func stateHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/contract", r.URL.Path)
		require.Equal(t, "contract-1", r.URL.Query().Get("id"))
		w.Write([]byte(testState))
	})
}

func TestIsAuthorized(t *testing.T) {
	c := newTestClient(t, stateHandler(t))

	ok, err := c.IsAuthorized(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	c.cfg.WalletAddress = "owner-wallet"
	ok, err = c.IsAuthorized(context.Background())
	require.NoError(t, err)
	assert.True(t, ok, "contract owner is authorized too")

	c.cfg.WalletAddress = "stranger-wallet"
	ok, err = c.IsAuthorized(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRoomRecord(t *testing.T) {
	c := newTestClient(t, stateHandler(t))

	rec, err := c.RoomRecord(context.Background(), "ROOM1")
	require.NoError(t, err)
	assert.Equal(t, settlement.RoomRecord{
		Creator:      "creator-wallet",
		WagerAmount:  "10",
		Participants: []string{"alice-wallet", "bob-wallet"},
		IsActive:     true,
		GameEnded:    false,
	}, rec)

	_, err = c.RoomRecord(context.Background(), "UNKNOWN")
	assert.Error(t, err)
}

func TestRoomRecordGatewayDown(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	_, err := c.RoomRecord(context.Background(), "ROOM1")
	assert.Error(t, err)
}

func TestSettlePostsInteraction(t *testing.T) {
	var got interactionRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/contract/interact", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(interactionResponse{OriginalTxID: "tx-123"})
	}))

	handle, err := c.Settle(context.Background(), "ROOM1", "alice-wallet", settlement.PriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, "tx-123", handle)
	assert.Equal(t, "contract-1", got.ContractID)
	assert.Equal(t, "manager-wallet", got.Caller)
	assert.True(t, got.Priority)
	assert.Equal(t, "endGame", got.Input.Function)
	assert.Equal(t, "ROOM1", got.Input.RoomCode)
	assert.Equal(t, "alice-wallet", got.Input.Winner)
}

func TestSettleGatewayRejection(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid interaction", http.StatusBadRequest)
	}))
	_, err := c.Settle(context.Background(), "ROOM1", "alice-wallet", settlement.PriorityNormal)
	assert.Error(t, err)
}

func TestAwaitFinalityPendingThenConfirmed(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tx/tx-123/status", r.URL.Path)
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	ok, err := c.AwaitFinality(context.Background(), "tx-123")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestAwaitFinalityRejected(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	ok, err := c.AwaitFinality(context.Background(), "tx-gone")
	require.NoError(t, err, "a dropped transaction is a failed settlement, not a fault")
	assert.False(t, ok)
}

func TestAwaitFinalityContextCancelled(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.AwaitFinality(ctx, "tx-slow")
	assert.Error(t, err)
}
