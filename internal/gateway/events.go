package gateway

import (
	"encoding/json"

	"live-auction/internal/models"
)

// Event names on the wire.
const (
	EventInitialState = "initial-state"
	EventPlaceBid     = "place-bid"
	EventBidUpdate    = "bid-update"
	EventBidSuccess   = "bid-success"
	EventBidError     = "bid-error"
)

// Event is the envelope for every message on a subscriber channel.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

// InboundEvent is a client message whose payload is decoded by event name.
type InboundEvent struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// InitialState is sent once to every new subscriber.
type InitialState struct {
	Items []models.AuctionItem `json:"items"`
}

// BidError is sent to the originator of a rejected bid.
type BidError struct {
	Error  string `json:"error"`
	ItemID int    `json:"itemId"`
}
