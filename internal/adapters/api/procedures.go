package api

// Connect procedure paths.
const (
	AuctionServiceName      = "tradepost.auction.v1.AuctionService"
	ListingServiceName      = "tradepost.listing.v1.ListingService"
	NotificationServiceName = "tradepost.notification.v1.NotificationService"

	PlaceBidProcedure          = "/" + AuctionServiceName + "/PlaceBid"
	CancelBidProcedure         = "/" + AuctionServiceName + "/CancelBid"
	ListListingBidsProcedure   = "/" + AuctionServiceName + "/ListListingBids"
	ListWinningBidsProcedure   = "/" + AuctionServiceName + "/ListWinningBids"
	ListMyBidsProcedure        = "/" + AuctionServiceName + "/ListMyBids"
	CreateListingProcedure     = "/" + ListingServiceName + "/CreateListing"
	GetListingProcedure        = "/" + ListingServiceName + "/GetListing"
	ListAuctionsProcedure      = "/" + ListingServiceName + "/ListAuctions"
	ListNotificationsProcedure = "/" + NotificationServiceName + "/ListNotifications"
)
