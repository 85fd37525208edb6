package helpers

import (
	"live-auction/internal/models"

	"github.com/shopspring/decimal"
)

// Request/Response DTOs

// PlaceBidRequest is the body of POST /bid and the data of a place-bid event.
// Field checks are left to the admission controller so both transports
// reject the same input with the same message.
type PlaceBidRequest struct {
	ItemID     int             `json:"itemId"`
	Amount     decimal.Decimal `json:"amount"`
	BidderName string          `json:"bidderName"`
}

func (r PlaceBidRequest) ToBidRequest() models.BidRequest {
	return models.BidRequest{
		ItemID:     r.ItemID,
		Amount:     r.Amount,
		BidderName: r.BidderName,
	}
}

type HealthResponse struct {
	Status      string `json:"status"`
	Subscribers int    `json:"subscribers"`
}
