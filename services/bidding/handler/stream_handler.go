package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"live-auction/internal/biddingerrors"
	"live-auction/internal/gateway"
	model "live-auction/internal/models"
	"live-auction/services/bidding/helpers"
	"live-auction/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const maxMessageSize = 4096

// Hub is the subscriber registry the streaming endpoints attach to.
type Hub interface {
	Join(kind string) *gateway.Subscriber
	Leave(id string)
	NotifyOutcome(origin string, item model.AuctionItem, err error)
	Count() int
}

type StreamOptions struct {
	PingInterval time.Duration
	WriteTimeout time.Duration
	// AllowedOrigins restricts websocket upgrades by Origin header. Empty allows all.
	AllowedOrigins []string
}

type StreamHandler struct {
	service  BiddingServiceInterface
	hub      Hub
	opts     StreamOptions
	upgrader websocket.Upgrader
}

func NewStreamHandler(service BiddingServiceInterface, hub Hub, opts StreamOptions) *StreamHandler {
	if opts.PingInterval <= 0 {
		opts.PingInterval = 30 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 10 * time.Second
	}

	h := &StreamHandler{service: service, hub: hub, opts: opts}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

// WebSocketHandler handles GET /ws
func (h *StreamHandler) WebSocketHandler(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already answered the request.
		utils.Warn("WebSocketHandler: upgrade failed", map[string]any{"error": err.Error()})
		return
	}
	defer conn.Close()

	sub := h.hub.Join("ws")
	defer h.hub.Leave(sub.ID())
	utils.Info("WebSocketHandler: client connected", map[string]any{
		"subscriber_id": sub.ID(),
		"remote_addr":   c.Request.RemoteAddr,
	})

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		h.readPump(conn, sub)
	}()

	h.writePump(conn, sub, readDone)
	utils.Info("WebSocketHandler: client disconnected", map[string]any{"subscriber_id": sub.ID()})
}

// readPump decodes inbound events until the connection fails.
func (h *StreamHandler) readPump(conn *websocket.Conn, sub *gateway.Subscriber) {
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait()))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait()))
	})

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				utils.Warn("WebSocketHandler: read failed", map[string]any{"subscriber_id": sub.ID(), "error": err.Error()})
			}
			return
		}

		var in gateway.InboundEvent
		if err := json.Unmarshal(payload, &in); err != nil {
			h.rejectInbound(sub, 0, helpers.InvalidPayloadMessage)
			continue
		}
		h.dispatch(sub, in)
	}
}

func (h *StreamHandler) dispatch(sub *gateway.Subscriber, in gateway.InboundEvent) {
	switch in.Name {
	case gateway.EventPlaceBid:
		var req helpers.PlaceBidRequest
		if err := json.Unmarshal(in.Data, &req); err != nil {
			// tag the error with the item when only another field is bad
			var target struct {
				ItemID int `json:"itemId"`
			}
			_ = json.Unmarshal(in.Data, &target)
			h.rejectInbound(sub, target.ItemID, helpers.InvalidPayloadMessage)
			return
		}
		// The outcome reaches this subscriber through the hub as
		// bid-success or bid-error.
		_, _ = h.service.SubmitBid(sub.ID(), req.ToBidRequest())
	default:
		h.rejectInbound(sub, 0, "unknown event "+in.Name)
	}
}

// rejectInbound answers a message that never reached the admission controller.
func (h *StreamHandler) rejectInbound(sub *gateway.Subscriber, itemID int, message string) {
	utils.Debug("WebSocketHandler: inbound message rejected", map[string]any{
		"subscriber_id": sub.ID(),
		"item_id":       itemID,
		"error":         message,
	})
	h.hub.NotifyOutcome(sub.ID(), model.AuctionItem{},
		biddingerrors.Reject(biddingerrors.ErrInvalidRequest, itemID, "%s", message))
}

// writePump is the only writer on conn.
func (h *StreamHandler) writePump(conn *websocket.Conn, sub *gateway.Subscriber, readDone <-chan struct{}) {
	ticker := time.NewTicker(h.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-readDone:
			return
		case <-sub.Done():
			deadline := time.Now().Add(h.opts.WriteTimeout)
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "subscriber dropped"), deadline)
			return
		case ev := <-sub.Events():
			_ = conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				utils.Warn("WebSocketHandler: write failed", map[string]any{
					"subscriber_id": sub.ID(),
					"event":         ev.Name,
					"error":         err.Error(),
				})
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.opts.WriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *StreamHandler) pongWait() time.Duration {
	return h.opts.PingInterval + h.opts.WriteTimeout
}

func (h *StreamHandler) checkOrigin(r *http.Request) bool {
	if len(h.opts.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.opts.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	utils.Warn("WebSocketHandler: origin rejected", map[string]any{"origin": origin})
	return false
}

// EventsHandler handles GET /events, a read-only Server-Sent Events stream
// carrying the same events as the websocket.
func (h *StreamHandler) EventsHandler(c *gin.Context) {
	sub := h.hub.Join("sse")
	defer h.hub.Leave(sub.ID())

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-sub.Done():
			return false
		case ev := <-sub.Events():
			c.SSEvent(ev.Name, ev.Data)
			return true
		}
	})
}

// HealthHandler handles GET /healthz
func (h *StreamHandler) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, helpers.HealthResponse{Status: "ok", Subscribers: h.hub.Count()})
}
