package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ignatzorin/market-backend/internal/config"
	"github.com/ignatzorin/market-backend/internal/http/middleware"
	"github.com/ignatzorin/market-backend/internal/interface/http/handler"
)

// Handlers все HTTP обработчики приложения.
type Handlers struct {
	Auth         *handler.AuthHandler
	Profile      *handler.ProfileHandler
	Listing      *handler.ListingHandler
	Job          *handler.JobHandler
	Order        *handler.OrderHandler
	Review       *handler.ReviewHandler
	Wallet       *handler.WalletHandler
	Conversation *handler.ConversationHandler
	Media        *handler.MediaHandler
	Payment      *handler.PaymentHandler
	WS           *handler.WSHandler
	Health       *handler.HealthHandler
}

func SetupRouter(cfg *config.Config, h Handlers, resolver *middleware.ActorResolver, views middleware.ViewStore) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	// S3 отдаёт файлы сам, локальное хранилище раздаётся отсюда
	if cfg.S3.Bucket == "" {
		r.StaticFS(cfg.MediaBaseURL, http.Dir(cfg.MediaStoragePath))
	}

	api := r.Group("/api")
	auth := middleware.RequireAuth(resolver)
	optional := middleware.OptionalAuth(resolver)
	cached := middleware.ViewCache(views, cfg.ViewCacheTTL)
	id := middleware.UUIDValidator("id")
	// общий лимит на создание платёжных сессий
	checkoutLimit := middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod)

	authGroup := api.Group("/auth")
	authLimited := authGroup.Group("")
	authLimited.Use(middleware.RateLimitMiddleware(cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authLimited.POST("/sign-up", h.Auth.SignUp)
		authLimited.POST("/sign-in", h.Auth.SignIn)
		authLimited.POST("/refresh", h.Auth.Refresh)
	}
	authGroup.POST("/sign-out", auth, h.Auth.SignOut)

	// вебхук и websocket проверяют подпись и токен сами
	api.POST("/payments/webhook", h.Payment.Webhook)
	api.GET("/ws", h.WS.Handle)

	// Публичные маршруты
	public := api.Group("")
	public.Use(optional)
	{
		public.GET("/users/:id", id, cached, h.Profile.GetUser)
		public.GET("/users/:id/reviews", id, cached, h.Profile.ListUserReviews)
		public.GET("/listings", cached, h.Listing.ListListings)
		public.GET("/listings/:id", id, cached, h.Listing.GetListing)
		public.GET("/jobs", cached, h.Job.ListJobs)
		public.GET("/jobs/:id", id, cached, h.Job.GetJob)
	}

	// Защищённые маршруты
	protected := api.Group("")
	protected.Use(auth)
	{
		protected.GET("/profile", h.Profile.GetMe)
		protected.PUT("/profile", h.Profile.UpdateMe)
		protected.PUT("/profile/role", h.Profile.ChooseRole)

		protected.POST("/listings", h.Listing.CreateListing)
		protected.PUT("/listings/:id", id, h.Listing.UpdateListing)
		protected.DELETE("/listings/:id", id, h.Listing.DeleteListing)
		protected.GET("/my/listings", h.Listing.ListMyListings)

		protected.POST("/jobs", h.Job.CreateJob)
		protected.POST("/jobs/:id/cancel", id, h.Job.CancelJob)
		protected.GET("/jobs/:id/bids", id, h.Job.ListBids)
		protected.POST("/jobs/:id/bids", id, h.Job.PlaceBid)
		protected.POST("/jobs/:id/bids/:bidId/accept", middleware.UUIDValidator("id", "bidId"), h.Job.AcceptBid)
		protected.POST("/jobs/:id/delivery", id, h.Job.SubmitDelivery)
		protected.POST("/jobs/:id/delivery/review", id, h.Job.ReviewDelivery)
		protected.POST("/jobs/:id/hire-checkout", checkoutLimit, id, h.Job.HireCheckout)
		protected.GET("/my/jobs", h.Job.ListMyJobs)
		protected.GET("/my/bids", h.Job.ListMyBids)

		protected.POST("/orders", h.Order.CreateOrder)
		protected.GET("/orders/:id", id, h.Order.GetOrder)
		protected.GET("/my/orders", h.Order.ListMyOrders)
		protected.POST("/orders/:id/checkout", checkoutLimit, id, h.Order.Checkout)
		protected.POST("/orders/:id/delivery", id, h.Order.SubmitDelivery)
		protected.POST("/orders/:id/approve", id, h.Order.Approve)
		protected.POST("/orders/:id/request-changes", id, h.Order.RequestChanges)
		protected.POST("/orders/:id/cancel", id, h.Order.Cancel)

		protected.POST("/reviews", h.Review.SubmitReview)

		protected.GET("/wallet", h.Wallet.GetWallet)
		protected.POST("/wallet/deposit", h.Wallet.Deposit)
		protected.POST("/wallet/withdraw", h.Wallet.Withdraw)
		protected.GET("/wallet/transactions", h.Wallet.ListTransactions)

		protected.POST("/conversations", h.Conversation.GetOrCreate)
		protected.GET("/conversations", h.Conversation.ListMyConversations)
		protected.GET("/conversations/:id/messages", id, h.Conversation.ListMessages)
		protected.POST("/conversations/:id/messages", id, h.Conversation.SendMessage)
		protected.POST("/messages/:id/offer/accept", id, h.Conversation.AcceptOffer)
		protected.POST("/messages/:id/offer/reject", id, h.Conversation.RejectOffer)

		protected.POST("/media/:kind", h.Media.Upload)
	}

	admin := api.Group("/admin")
	admin.Use(auth, middleware.RequireAdmin())
	{
		admin.PUT("/listings/:id/status", id, h.Listing.ModerateListing)
	}

	return r
}
