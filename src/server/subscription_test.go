package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-pulse/src/models"
)

// -----------------------------------------------------------------------------
// End-to-end websocket tests over a real connection
// -----------------------------------------------------------------------------

func dialTestServer(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(srv.engine)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, payload string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}

func readMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) models.MStreamMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg models.MStreamMessage
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

// readUntil reads updates until pred holds or the deadline passes.
func readUntil(t *testing.T, conn *websocket.Conn, timeout time.Duration, pred func(models.MStreamMessage) bool) models.MStreamMessage {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		msg := readMessage(t, conn, time.Until(deadline))
		if pred(msg) {
			return msg
		}
	}
	t.Fatal("no matching message before deadline")
	return models.MStreamMessage{}
}

func symbolsOf(msg models.MStreamMessage) []string {
	out := make([]string, len(msg.Data))
	for i, rec := range msg.Data {
		out[i] = rec.Symbol
	}
	return out
}

// -----------------------------------------------------------------------------

func TestWebSocket_SubscribePushesImmediately(t *testing.T) {
	agg := newFakeAggregator()
	conn := dialTestServer(t, newTestServer(agg))

	send(t, conn, `{"action":"subscribe","symbol":"tcs.ns"}`)

	msg := readMessage(t, conn, 2*time.Second)
	require.Equal(t, "stock_update", msg.Type)
	require.Len(t, msg.Data, 1)
	assert.Equal(t, "TCS.NS", msg.Data[0].Symbol)
	require.NotNil(t, msg.Data[0].Price)
	assert.Equal(t, 3450.5, *msg.Data[0].Price)
}

// -----------------------------------------------------------------------------

func TestWebSocket_SubscribeUnsubscribeFlow(t *testing.T) {
	agg := newFakeAggregator()
	conn := dialTestServer(t, newTestServer(agg))

	// First subscription pushes right away
	send(t, conn, `{"action":"subscribe","symbol":"TCS"}`)
	msg := readMessage(t, conn, 2*time.Second)
	require.Equal(t, "stock_update", msg.Type)
	assert.Equal(t, []string{"TCS"}, symbolsOf(msg))

	// Second symbol joins the running loop; the next tick carries both in
	// subscription order
	send(t, conn, `{"action":"subscribe","symbol":"HDFC"}`)
	msg = readUntil(t, conn, 3*time.Second, func(m models.MStreamMessage) bool {
		return m.Type == "stock_update" && len(m.Data) == 2
	})
	assert.Equal(t, []string{"TCS", "HDFC"}, symbolsOf(msg))

	// Dropping TCS leaves HDFC-only updates
	send(t, conn, `{"action":"unsubscribe","symbol":"TCS"}`)
	msg = readUntil(t, conn, 3*time.Second, func(m models.MStreamMessage) bool {
		return m.Type == "stock_update" && len(m.Data) == 1
	})
	assert.Equal(t, []string{"HDFC"}, symbolsOf(msg))
}

// -----------------------------------------------------------------------------

func TestWebSocket_PartialFailureStillBatchesBothSymbols(t *testing.T) {
	agg := newFakeAggregator()
	agg.degraded["HDFC"] = true
	conn := dialTestServer(t, newTestServer(agg))

	send(t, conn, `{"action":"subscribe","symbol":"TCS"}`)
	send(t, conn, `{"action":"subscribe","symbol":"HDFC"}`)

	msg := readUntil(t, conn, 3*time.Second, func(m models.MStreamMessage) bool {
		return m.Type == "stock_update" && len(m.Data) == 2
	})
	require.Equal(t, []string{"TCS", "HDFC"}, symbolsOf(msg))

	tcs, hdfc := msg.Data[0], msg.Data[1]
	require.NotNil(t, tcs.Price)
	assert.Equal(t, 3450.5, *tcs.Price)
	require.NotNil(t, tcs.PERatio)

	// HDFC's price side failed: nil price, flag set, fundamentals intact
	assert.Nil(t, hdfc.Price)
	assert.True(t, hdfc.PriceBreakerOpen)
	require.NotNil(t, hdfc.PERatio)
	assert.Equal(t, 24.53, *hdfc.PERatio)
}

// -----------------------------------------------------------------------------

func TestWebSocket_ProtocolErrors(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    string
	}{
		{"not json", `not-json`, "Invalid JSON"},
		{"missing symbol", `{"action":"subscribe"}`, "Symbol required"},
		{"blank symbol", `{"action":"subscribe","symbol":"  "}`, "Symbol required"},
		{"unknown action", `{"action":"dance","symbol":"TCS"}`, "Invalid action"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			conn := dialTestServer(t, newTestServer(newFakeAggregator()))

			send(t, conn, tc.payload)
			msg := readMessage(t, conn, 2*time.Second)
			assert.Equal(t, "error", msg.Type)
			assert.Equal(t, tc.want, msg.Message)
		})
	}
}

// -----------------------------------------------------------------------------
// Subscription state machine units (no network)
// -----------------------------------------------------------------------------

func newDetachedClient(agg *fakeAggregator) *Client {
	// No pumps running: these tests drive subscribe/unsubscribe directly
	return newClient(newTestServer(agg), nil)
}

func (c *Client) pollRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pollCancel != nil
}

func (c *Client) symbolOrder() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.order...)
}

// -----------------------------------------------------------------------------

func TestSubscribe_OneLoopForManySymbols(t *testing.T) {
	agg := newFakeAggregator()
	c := newDetachedClient(agg)
	defer c.close()

	c.subscribe("TCS")
	c.subscribe("HDFC")
	c.subscribe("TCS") // duplicate is absorbed

	assert.True(t, c.pollRunning())
	assert.Equal(t, []string{"TCS", "HDFC"}, c.symbolOrder())

	// The single loop fetches every subscribed symbol
	assert.Eventually(t, func() bool {
		return agg.callCount("TCS") >= 1 && agg.callCount("HDFC") >= 1
	}, 3*time.Second, 10*time.Millisecond)
}

// -----------------------------------------------------------------------------

func TestUnsubscribe_DrainStopsPolling(t *testing.T) {
	agg := newFakeAggregator()
	c := newDetachedClient(agg)
	defer c.close()

	c.subscribe("TCS")
	c.subscribe("HDFC")
	require.True(t, c.pollRunning())

	c.unsubscribe("TCS")
	assert.True(t, c.pollRunning(), "loop survives while symbols remain")

	c.unsubscribe("HDFC")
	assert.False(t, c.pollRunning(), "loop canceled when the set drains")
	assert.Empty(t, c.symbolOrder())
}

// -----------------------------------------------------------------------------

func TestUnsubscribe_UnknownSymbolIsNoop(t *testing.T) {
	c := newDetachedClient(newFakeAggregator())
	defer c.close()

	c.unsubscribe("TCS")
	assert.False(t, c.pollRunning())

	c.subscribe("TCS")
	c.unsubscribe("HDFC")
	assert.True(t, c.pollRunning())
	assert.Equal(t, []string{"TCS"}, c.symbolOrder())
}

// -----------------------------------------------------------------------------

func TestClose_IsIdempotentAndStopsPolling(t *testing.T) {
	c := newDetachedClient(newFakeAggregator())

	c.subscribe("TCS")
	require.True(t, c.pollRunning())

	c.close()
	c.close()

	assert.False(t, c.pollRunning())
	assert.Empty(t, c.symbolOrder())

	// Terminal: new subscriptions are ignored
	c.subscribe("HDFC")
	assert.False(t, c.pollRunning())
}
