package integrationtests

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	bidding "live-auction/internal/biddingService"
	"live-auction/internal/gateway"
	"live-auction/internal/metrics"
	model "live-auction/internal/models"
	"live-auction/internal/repository"
	"live-auction/internal/server"
	handler "live-auction/services/bidding/handler"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

// TestEnv is a fully wired server backed by an in-memory store.
type TestEnv struct {
	Router  *gin.Engine
	Repo    *repository.MemoryRepo
	Gateway *gateway.Gateway
	Metrics *metrics.Metrics
	Server  *httptest.Server
}

// WireEvent is an event as decoded from the websocket.
type WireEvent struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

func seedItem(id int, opening int64) model.AuctionItem {
	return model.AuctionItem{
		ID:            id,
		Title:         "Lot " + strconv.Itoa(id),
		CurrentBid:    decimal.NewFromInt(opening),
		AuctionEndsAt: time.Now().Add(time.Hour),
	}
}

// SetupTestEnv wires store, gateway, admission controller and router the way
// main does, and starts an httptest server for websocket clients.
func SetupTestEnv(t *testing.T, opts bidding.Options, items ...model.AuctionItem) *TestEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo, err := repository.NewMemoryRepo(items...)
	require.NoError(t, err)

	m := metrics.NewMetrics("auction")
	gw := gateway.NewGateway(repo, 256, m)
	opts.Metrics = m
	controller := bidding.NewAdmissionController(repo, gw, opts)

	router := server.SetupRouter(server.Dependencies{
		Service: controller,
		Hub:     gw,
		Stream:  handler.StreamOptions{PingInterval: time.Second, WriteTimeout: time.Second},
		Metrics: m.Handler(),
	})

	srv := httptest.NewServer(router)
	t.Cleanup(func() {
		gw.Close()
		srv.Close()
	})

	return &TestEnv{Router: router, Repo: repo, Gateway: gw, Metrics: m, Server: srv}
}

// ExecuteRequest executes an HTTP request and returns the response recorder.
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := ExecuteRequest(t, router, method, url, reqBody)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}
	return resp, w
}

// Bid posts a bid over HTTP.
func Bid(t *testing.T, env *TestEnv, itemID int, amount string, bidder string) (map[string]any, *httptest.ResponseRecorder) {
	body := fmt.Sprintf(`{"itemId":%d,"amount":%s,"bidderName":%q}`, itemID, amount, bidder)
	return ExecuteRequestAndParse(t, env.Router, http.MethodPost, "/bid", body)
}

// DialWS opens a websocket client and consumes its initial-state event.
func DialWS(t *testing.T, env *TestEnv) (*websocket.Conn, WireEvent) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(env.Server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	initial := ReadEvent(t, conn)
	require.Equal(t, gateway.EventInitialState, initial.Name)
	return conn, initial
}

// ReadEvent reads the next event, failing the test after two seconds.
func ReadEvent(t *testing.T, conn *websocket.Conn) WireEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev WireEvent
	require.NoError(t, conn.ReadJSON(&ev))
	return ev
}

// DecodeItem decodes an event payload carrying an AuctionItem.
func DecodeItem(t *testing.T, ev WireEvent) model.AuctionItem {
	t.Helper()
	var item model.AuctionItem
	require.NoError(t, json.Unmarshal(ev.Data, &item))
	return item
}
