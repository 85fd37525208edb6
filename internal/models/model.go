package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// AuctionItem is an immutable snapshot of one lot and its current bid state.
// ID, Title, AuctionEndsAt and Image never change after seeding.
type AuctionItem struct {
	ID            int             `json:"id" validate:"gt=0"`
	Title         string          `json:"title" validate:"required"`
	CurrentBid    decimal.Decimal `json:"currentBid" validate:"gt=0"`
	HighestBidder string          `json:"highestBidder,omitempty"`
	AuctionEndsAt time.Time       `json:"auctionEndsAt"`
	Image         string          `json:"image,omitempty"`
}

// MarshalJSON writes CurrentBid as a bare JSON number, the form browser
// clients send and expect back.
func (i AuctionItem) MarshalJSON() ([]byte, error) {
	type plain AuctionItem
	return json.Marshal(struct {
		plain
		CurrentBid json.Number `json:"currentBid"`
	}{plain: plain(i), CurrentBid: json.Number(i.CurrentBid.String())})
}

// HasBids reports whether any bid has been accepted for the item.
func (i AuctionItem) HasBids() bool {
	return i.HighestBidder != ""
}

// BidRequest is a single bid attempt. It is validated and discarded per call.
type BidRequest struct {
	ItemID     int             `json:"itemId"`
	Amount     decimal.Decimal `json:"amount"`
	BidderName string          `json:"bidderName"`
}
