package handler

import (
	"net/http"
	"strconv"

	model "live-auction/internal/models"
	"live-auction/services/bidding/helpers"
	"live-auction/utils"

	"github.com/gin-gonic/gin"
)

//go:generate mockgen -source=bidding_handler.go -destination=mock_handler.go -package=handler

type BiddingServiceInterface interface {
	SubmitBid(origin string, req model.BidRequest) (model.AuctionItem, error)
	ListAuctions() []model.AuctionItem
	GetAuction(itemID int) (model.AuctionItem, error)
}

type BiddingHandler struct {
	service BiddingServiceInterface
}

func NewBiddingHandler(service BiddingServiceInterface) *BiddingHandler {
	return &BiddingHandler{service: service}
}

// ListAuctionsHandler handles GET /auctions
func (h *BiddingHandler) ListAuctionsHandler(c *gin.Context) {
	items := h.service.ListAuctions()
	if items == nil {
		items = []model.AuctionItem{}
	}

	c.JSON(http.StatusOK, items)
	utils.Debug("ListAuctionsHandler: auctions listed", map[string]any{"count": len(items)})
}

// GetAuctionHandler handles GET /auctions/:item_id
func (h *BiddingHandler) GetAuctionHandler(c *gin.Context) {
	raw := c.Param("item_id")
	itemID, err := strconv.Atoi(raw)
	if err != nil {
		utils.JSONError(c, http.StatusBadRequest, "item_id must be an integer")
		utils.Warn("GetAuctionHandler: bad item id", map[string]any{"item_id": raw})
		return
	}

	item, err := h.service.GetAuction(itemID)
	if err != nil {
		status, message := helpers.MapErrorToHTTP(err)
		utils.JSONError(c, status, message)
		utils.Warn("GetAuctionHandler: lookup failed", map[string]any{"item_id": itemID, "error": err.Error()})
		return
	}

	utils.JSONItem(c, http.StatusOK, item)
}

// PlaceBidHandler handles POST /bid
func (h *BiddingHandler) PlaceBidHandler(c *gin.Context) {
	var req helpers.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		helpers.HandleBindError(c, "PlaceBidHandler", err)
		return
	}

	// HTTP callers have no subscriber of their own, so the origin is empty:
	// the update is still broadcast but nobody gets a bid-success.
	item, err := h.service.SubmitBid("", req.ToBidRequest())
	if err != nil {
		status, message := helpers.MapBidErrorToHTTP(err)
		utils.JSONError(c, status, message)
		utils.Warn("PlaceBidHandler: bid rejected", map[string]any{
			"item_id":     req.ItemID,
			"bidder_name": req.BidderName,
			"amount":      req.Amount.String(),
			"error":       err.Error(),
		})
		return
	}

	utils.JSONItem(c, http.StatusOK, item)
	helpers.LogSuccess("PlaceBidHandler", "bid accepted", map[string]any{
		"item_id":     item.ID,
		"bidder_name": item.HighestBidder,
		"amount":      item.CurrentBid.String(),
	})
}
