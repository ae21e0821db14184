package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/gin-gonic/gin"

	"github.com/floroz/tradepost/pkg/auth"
	"github.com/floroz/tradepost/pkg/broadcast"
)

// Dependencies are the services the HTTP surface exposes.
type Dependencies struct {
	Auctions      AuctionService
	Listings      ListingService
	Notifications NotificationService
	Events        broadcast.Subscriber
	Verifier      *auth.Verifier
	Heartbeat     time.Duration
	Logger        *slog.Logger
}

// NewRouter serves the connect procedures, the listing event stream and /health.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(deps.Logger))

	public := []connect.HandlerOption{Codec()}
	protected := []connect.HandlerOption{Codec(), connect.WithInterceptors(auth.NewAuthInterceptor(deps.Verifier))}

	auctions := NewAuctionHandler(deps.Auctions, deps.Logger)
	unary(router, PlaceBidProcedure, auctions.PlaceBid, protected...)
	unary(router, CancelBidProcedure, auctions.CancelBid, protected...)
	unary(router, ListListingBidsProcedure, auctions.ListListingBids, public...)
	unary(router, ListWinningBidsProcedure, auctions.ListWinningBids, protected...)
	unary(router, ListMyBidsProcedure, auctions.ListMyBids, protected...)

	listingHandler := NewListingHandler(deps.Listings, deps.Logger)
	unary(router, CreateListingProcedure, listingHandler.CreateListing, protected...)
	unary(router, GetListingProcedure, listingHandler.GetListing, public...)
	unary(router, ListAuctionsProcedure, listingHandler.ListAuctions, public...)

	notificationHandler := NewNotificationHandler(deps.Notifications, deps.Logger)
	unary(router, ListNotificationsProcedure, notificationHandler.ListNotifications, protected...)

	stream := NewStreamHandler(deps.Events, deps.Heartbeat, deps.Logger)
	router.GET("/listings/:listingID/events", stream.Stream)

	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	return router
}

// unary mounts a unary connect handler. Unary calls are always POSTs.
func unary[Req, Res any](
	router *gin.Engine,
	procedure string,
	fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts ...connect.HandlerOption,
) {
	router.POST(procedure, gin.WrapH(connect.NewUnaryHandler(procedure, fn, opts...)))
}

// RequestLogger logs every request with its status and latency.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.Info("HTTP Request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}
