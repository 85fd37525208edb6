package server

import (
	"net/http"

	handler "live-auction/services/bidding/handler"

	"github.com/gin-gonic/gin"
)

// Dependencies are the components the router exposes over HTTP.
type Dependencies struct {
	Service handler.BiddingServiceInterface
	Hub     handler.Hub
	Stream  handler.StreamOptions
	// Metrics serves /metrics when set.
	Metrics http.Handler
}

// SetupRouter configures all Gin routes for the application
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	biddingHandler := handler.NewBiddingHandler(deps.Service)
	streamHandler := handler.NewStreamHandler(deps.Service, deps.Hub, deps.Stream)

	auctions := router.Group("/auctions")
	{
		auctions.GET("", biddingHandler.ListAuctionsHandler)
		auctions.GET("/:item_id", biddingHandler.GetAuctionHandler)
	}

	router.POST("/bid", biddingHandler.PlaceBidHandler)

	router.GET("/ws", streamHandler.WebSocketHandler)
	router.GET("/events", streamHandler.EventsHandler)
	router.GET("/healthz", streamHandler.HealthHandler)

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics))
	}

	return router
}
