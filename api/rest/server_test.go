package rest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/abcfe/abcfe-wallet/api"
	"github.com/abcfe/abcfe-wallet/common/utils"
	"github.com/abcfe/abcfe-wallet/config"
	"github.com/abcfe/abcfe-wallet/core"
	prt "github.com/abcfe/abcfe-wallet/protocol"
	"github.com/abcfe/abcfe-wallet/storage"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setTestServer(t *testing.T) (*Server, *core.Ledger) {
	t.Helper()

	cfg := config.Default()
	cfg.Node.FaucetAmount = 250
	cfg.Common.NetworkID = "devnet-test"

	db, err := storage.OpenMemoryDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	l, err := core.NewLedger(db, cfg)
	require.NoError(t, err)

	return NewServer(0, l), l
}

func doJSON(t *testing.T, h http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, RestResp) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var resp RestResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestHome(t *testing.T) {
	srv, _ := setTestServer(t)
	rec, resp := doJSON(t, srv.Handler(), http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}

func TestStatusEndpoints(t *testing.T) {
	srv, l := setTestServer(t)
	h := srv.Handler()

	rec, resp := doJSON(t, h, http.MethodGet, "/api/v1/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, "devnet-test", data["networkId"])

	rec, resp = doJSON(t, h, http.MethodGet, "/api/v1/gas-price", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, l.ReferenceGasPrice(), resp.Data.(map[string]interface{})["gasPrice"])

	rec, _ = doJSON(t, h, http.MethodGet, "/api/v1/epoch", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestBalanceBadAddress(t *testing.T) {
	srv, _ := setTestServer(t)
	rec, resp := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/address/nothex/balance", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	assert.NotEmpty(t, resp.Error)
}

func TestFaucetThenBalance(t *testing.T) {
	srv, _ := setTestServer(t)
	h := srv.Handler()
	addr := utils.AddressToString(prt.Address{0x11})

	rec, resp := doJSON(t, h, http.MethodPost, "/api/v1/faucet", FaucetReq{Address: addr})
	require.Equal(t, http.StatusOK, rec.Code, resp.Error)

	rec, resp = doJSON(t, h, http.MethodGet, "/api/v1/address/"+addr+"/balance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "250", resp.Data.(map[string]interface{})["balance"])

	rec, _ = doJSON(t, h, http.MethodPost, "/api/v1/faucet", FaucetReq{Address: addr})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestTxNotFound(t *testing.T) {
	srv, _ := setTestServer(t)
	rec, resp := doJSON(t, srv.Handler(), http.MethodGet, "/api/v1/tx/deadbeef", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.False(t, resp.Success)
}

func TestExecuteMalformed(t *testing.T) {
	srv, _ := setTestServer(t)
	rec, resp := doJSON(t, srv.Handler(), http.MethodPost, "/api/v1/tx/execute", ExecuteTxReq{TxBytes: []byte("{")})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
}

func TestBodyLimit(t *testing.T) {
	srv, _ := setTestServer(t)
	body := `{"address":"` + strings.Repeat("a", maxBodyBytes+1) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/faucet", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func readEvent(t *testing.T, conn *websocket.Conn) api.WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg api.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocketNewTransaction(t *testing.T) {
	srv, l := setTestServer(t)
	hub := srv.GetWSHub()
	go hub.Run()
	defer hub.Stop()

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, api.EventConnected, readEvent(t, conn).Event)
	assert.Equal(t, api.EventLedgerStatus, readEvent(t, conn).Event)

	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	res, err := l.RequestFaucet(prt.Address{0x22})
	require.NoError(t, err)

	msg := readEvent(t, conn)
	assert.Equal(t, api.EventNewTransaction, msg.Event)
	assert.Equal(t, res.Digest, msg.Data.(map[string]interface{})["digest"])
}

func TestWebSocketAddressSubscription(t *testing.T) {
	srv, l := setTestServer(t)
	hub := srv.GetWSHub()
	go hub.Run()
	defer hub.Stop()

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	readEvent(t, conn) // connected
	readEvent(t, conn) // ledger_status

	watched := prt.Address{0x33}
	sub := utils.AddressToString(watched)
	require.NoError(t, conn.WriteJSON(api.WSRequest{Subscribe: &sub}))

	ack := readEvent(t, conn)
	require.Equal(t, api.EventSubscribed, ack.Event)
	assert.Equal(t, sub, ack.Data.(map[string]interface{})["address"])

	_, err = l.RequestFaucet(prt.Address{0x44})
	require.NoError(t, err)
	res, err := l.RequestFaucet(watched)
	require.NoError(t, err)

	msg := readEvent(t, conn)
	assert.Equal(t, api.EventNewTransaction, msg.Event)
	assert.Equal(t, res.Digest, msg.Data.(map[string]interface{})["digest"])
}

func TestWebSocketMalformedRequest(t *testing.T) {
	srv, _ := setTestServer(t)
	hub := srv.GetWSHub()
	go hub.Run()
	defer hub.Stop()

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	readEvent(t, conn)
	readEvent(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
	assert.Equal(t, api.EventError, readEvent(t, conn).Event)
}
