package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sketchchain/backend/internal/archive"
	"github.com/sketchchain/backend/internal/game"
	"github.com/sketchchain/backend/internal/settlement"
	"github.com/sketchchain/backend/internal/transport"
)

type fakeLedger struct {
	authorized bool
	record     settlement.RoomRecord
	err        error
}

func (f *fakeLedger) IsAuthorized(context.Context) (bool, error) {
	return f.authorized, f.err
}

func (f *fakeLedger) RoomRecord(context.Context, string) (settlement.RoomRecord, error) {
	return f.record, f.err
}

func (f *fakeLedger) Settle(context.Context, string, string, settlement.Priority) (string, error) {
	return "", errors.New("not used in http tests")
}

func (f *fakeLedger) AwaitFinality(context.Context, string) (bool, error) {
	return false, errors.New("not used in http tests")
}

type fakeStore struct {
	games []archive.Record
	err   error
}

func (f *fakeStore) SaveGame(_ context.Context, rec archive.Record) error {
	f.games = append(f.games, rec)
	return nil
}

func (f *fakeStore) RecentGames(context.Context, int) ([]archive.Record, error) {
	return f.games, f.err
}

type nopWords struct{}

func (nopWords) RandomWord() string { return "apple" }

func newTestServer(t *testing.T, ledger settlement.Ledger, store archive.Store) *httptest.Server {
	t.Helper()
	hub := transport.NewHub(nil)
	registry := game.NewRegistry(game.SessionDeps{
		Words: nopWords{},
		Sched: game.TickerScheduler{},
		Sink:  hub,
	})
	ws := transport.NewHandler(hub, registry, nil)
	srv := New(":0", registry, ws, ledger, store, "0xMANAGER", nil)
	ts := httptest.NewServer(srv.RegisterRoutes())
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeLedger{}, &fakeStore{})

	var body map[string]string
	resp := getJSON(t, ts.URL+"/", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRoomEndpoint(t *testing.T) {
	ledger := &fakeLedger{record: settlement.RoomRecord{
		Creator:      "0xAAA1",
		WagerAmount:  "10",
		Participants: []string{"0xAAA1", "0xBBB2"},
		IsActive:     true,
	}}
	ts := newTestServer(t, ledger, &fakeStore{})

	var body map[string]any
	resp := getJSON(t, ts.URL+"/api/room/ROOM1", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ROOM1", body["room_code"])
	assert.Equal(t, "0xAAA1", body["creator"])
	assert.Equal(t, true, body["is_active"])
}

func TestRoomEndpointNoLedger(t *testing.T) {
	ts := newTestServer(t, settlement.Disabled{}, &fakeStore{})
	resp := getJSON(t, ts.URL+"/api/room/ROOM1", nil)
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
}

func TestRoomEndpointLedgerError(t *testing.T) {
	ts := newTestServer(t, &fakeLedger{err: errors.New("rpc down")}, &fakeStore{})
	resp := getJSON(t, ts.URL+"/api/room/ROOM1", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}

func TestGameManagerEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeLedger{authorized: true}, &fakeStore{})

	var body map[string]any
	resp := getJSON(t, ts.URL+"/api/game-manager", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0xMANAGER", body["address"])
	assert.Equal(t, true, body["authorized"])
}

func TestStatsEndpoint(t *testing.T) {
	ts := newTestServer(t, &fakeLedger{}, &fakeStore{})

	var body map[string]int
	resp := getJSON(t, ts.URL+"/api/stats", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 0, body["active_rooms"])
}

func TestHistoryEndpoint(t *testing.T) {
	store := &fakeStore{games: []archive.Record{{
		RoomCode: "ROOM1",
		Winner:   "0xAAA1",
		EndedAt:  time.Now().UTC(),
	}}}
	ts := newTestServer(t, &fakeLedger{}, store)

	var body struct {
		Games []archive.Record `json:"games"`
	}
	resp := getJSON(t, ts.URL+"/api/history", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, body.Games, 1)
	assert.Equal(t, "ROOM1", body.Games[0].RoomCode)
}

func TestPreflightRequest(t *testing.T) {
	ts := newTestServer(t, &fakeLedger{}, &fakeStore{})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/stats", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
