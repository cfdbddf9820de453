package handler

import (
	"github.com/gofiber/fiber/v2"

	"agrimarket/internal/middleware"
	"agrimarket/internal/model"
	"agrimarket/internal/service"
)

// Services bundles the core services the HTTP API exposes
type Services struct {
	Auth           service.AuthService
	Users          service.UserService
	Listings       service.ListingService
	Offers         service.OfferService
	Dashboard      service.DashboardService
	Market         service.MarketService
	Recommendation service.RecommendationService
}

// RegisterRoutes mounts the /api/v1 routes on app
func RegisterRoutes(app *fiber.App, s Services) {
	authHandler := NewAuthHandler(s.Auth)
	userHandler := NewUserHandler(s.Users)
	listingHandler := NewListingHandler(s.Listings)
	offerHandler := NewOfferHandler(s.Offers)
	dashHandler := NewDashboardHandler(s.Dashboard)
	marketHandler := NewMarketHandler(s.Market)
	recHandler := NewRecommendationHandler(s.Recommendation)

	requireAuth := middleware.RequireAuth(s.Auth)

	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/validate-token", authHandler.ValidateToken)
	auth.Post("/change-password", requireAuth, authHandler.ChangePassword)
	auth.Post("/heartbeat", requireAuth, authHandler.Heartbeat)

	api.Get("/market/prices", marketHandler.GetPrices)
	api.Get("/market/prices/:crop", marketHandler.GetPrice)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", requireAuth)

	protected.Get("/dashboard/stats", middleware.RequireCapability(model.CapDashboardView), dashHandler.GetDashboardStats)

	protected.Get("/users", middleware.RequireCapability(model.CapUserView), userHandler.GetUsers)
	protected.Get("/users/farmers", middleware.RequireCapability(model.CapListingCreate), userHandler.GetFarmers)
	protected.Get("/users/:id", userHandler.GetUser)
	protected.Post("/users", middleware.RequireCapability(model.CapUserCreate), userHandler.CreateUser)
	protected.Put("/users/:id/active", middleware.RequireCapability(model.CapUserToggle), userHandler.SetActive)

	protected.Get("/listings", listingHandler.GetListings)
	protected.Get("/listings/:id", listingHandler.GetListing)
	protected.Post("/listings", middleware.RequireCapability(model.CapListingCreate), listingHandler.CreateListing)
	protected.Put("/listings/:id/status", middleware.RequireCapability(model.CapListingManage), listingHandler.UpdateStatus)

	protected.Post("/offers", middleware.RequireCapability(model.CapOfferSubmit), offerHandler.SubmitOffer)
	protected.Get("/offers", middleware.RequireCapability(model.CapOfferViewAll), offerHandler.GetOffers)
	protected.Get("/offers/mine", offerHandler.GetMyOffers)
	protected.Get("/offers/:id", offerHandler.GetOffer)
	protected.Post("/offers/:id/accept", middleware.RequireCapability(model.CapOfferRespond), offerHandler.AcceptOffer)
	protected.Post("/offers/:id/reject", middleware.RequireCapability(model.CapOfferRespond), offerHandler.RejectOffer)
	protected.Post("/offers/:id/cancel", middleware.RequireAnyCapability(model.CapOfferSubmit, model.CapOfferViewAll), offerHandler.CancelOffer)

	protected.Get("/transactions", middleware.RequireCapability(model.CapTransactionView), dashHandler.GetTransactions)
	protected.Get("/transactions/:id", dashHandler.GetTransaction)

	protected.Put("/market/prices/:crop", middleware.RequireCapability(model.CapMarketPriceUpdate), marketHandler.UpdatePrice)

	// recommendations can text arbitrary numbers, so they stay behind login
	protected.Post("/recommendations", recHandler.Recommend)
	protected.Get("/notifications/:id", recHandler.NotificationStatus)
}
