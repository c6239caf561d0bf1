package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gig-marketplace/internal/config"
	"github.com/ignatzorin/gig-marketplace/internal/http/handlers"
	"github.com/ignatzorin/gig-marketplace/internal/http/middleware"
	"github.com/ignatzorin/gig-marketplace/internal/metrics"
	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/service"
)

// Handlers собирает все HTTP хэндлеры приложения.
type Handlers struct {
	Auth          *handlers.AuthHandler
	Profile       *handlers.ProfileHandler
	Gig           *handlers.GigHandler
	Review        *handlers.ReviewHandler
	SavedGig      *handlers.SavedGigHandler
	Order         *handlers.OrderHandler
	Stats         *handlers.StatsHandler
	Payment       *handlers.PaymentHandler
	Withdrawal    *handlers.WithdrawalHandler
	Dispute       *handlers.DisputeHandler
	PayoutMethod  *handlers.PayoutMethodHandler
	Conversation  *handlers.ConversationHandler
	Notification  *handlers.NotificationHandler
	WS            *handlers.WSHandler
	Health        *handlers.HealthHandler
	Dev           *handlers.DevHandler
	MediaRootPath string
}

// SetupRouter регистрирует middleware и все маршруты API.
func SetupRouter(cfg *config.Config, h Handlers, tokenManager *service.TokenManager) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.MaxMultipartMemory = cfg.MaxUploadSizeMB << 20
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(metrics.GinMiddleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins, cfg.IsDevelopment()))

	r.GET("/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if h.MediaRootPath != "" {
		r.StaticFS("/media", http.Dir(h.MediaRootPath))
	}

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Use(middleware.RateLimitMiddleware("auth", cfg.RateLimitLimit, cfg.RateLimitPeriod))
	{
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
	}

	auth := middleware.AuthMiddleware(tokenManager)
	adminOnly := middleware.RequireRole(models.RoleAdmin)
	// Загрузки считаются по пользователю, лимит втрое мягче auth.
	uploadLimit := middleware.RateLimitMiddleware("upload", cfg.RateLimitLimit*3, cfg.RateLimitPeriod)

	api.GET("/auth/me", auth, h.Auth.Me)

	// Публичный каталог.
	api.GET("/gigs", h.Gig.List)
	api.GET("/gigs/:id", middleware.UUIDValidator("id"), h.Gig.Get)
	api.GET("/gigs/:id/reviews", middleware.UUIDValidator("id"), h.Review.ListGigReviews)
	api.GET("/reviews/:gigId", middleware.UUIDValidator("gigId"), h.Review.ListGigReviews)

	protected := api.Group("/")
	protected.Use(auth)

	users := protected.Group("/users")
	{
		users.PUT("/me", h.Profile.UpdateMe)
		users.GET("/search", h.Profile.Search)
		users.GET("/activity", h.Profile.Activity)
	}

	gigs := protected.Group("/gigs")
	{
		gigs.POST("", uploadLimit, h.Gig.Create)
		gigs.GET("/mine", h.Gig.Mine)
		gigs.PUT("/:id", middleware.UUIDValidator("id"), h.Gig.Update)
		gigs.DELETE("/:id", middleware.UUIDValidator("id"), h.Gig.Delete)
		gigs.POST("/:id/reviews", middleware.UUIDValidator("id"), h.Review.CreateReview)
	}
	protected.POST("/reviews/:gigId", middleware.UUIDValidator("gigId"), h.Review.CreateReview)

	saved := protected.Group("/saved-gigs")
	{
		saved.GET("", h.SavedGig.List)
		saved.POST("/:gigId", middleware.UUIDValidator("gigId"), h.SavedGig.Save)
		saved.DELETE("/:gigId", middleware.UUIDValidator("gigId"), h.SavedGig.Remove)
		saved.GET("/:gigId/check", middleware.UUIDValidator("gigId"), h.SavedGig.Check)
	}

	orders := protected.Group("/orders")
	{
		orders.POST("", h.Order.Create)
		orders.GET("/buyer", h.Order.BuyerOrders)
		orders.GET("/seller", h.Order.SellerOrders)
		orders.GET("/buyer/stats", h.Stats.BuyerStats)
		orders.GET("/seller/stats", h.Stats.SellerStats)

		order := orders.Group("/:id", middleware.UUIDValidator("id"))
		order.GET("", h.Order.Get)
		order.POST("/payment", h.Order.Pay)
		order.POST("/deliver", uploadLimit, h.Order.Deliver)
		order.POST("/accept", h.Order.Accept)
		order.POST("/revision", h.Order.RequestRevision)
		order.POST("/cancel", h.Order.Cancel)
		order.POST("/messages", h.Order.AddMessage)
		order.GET("/files", h.Order.Files)
	}

	payments := protected.Group("/payments")
	{
		payments.POST("/create-payment-intent", h.Payment.CreateIntent)
		payments.POST("/confirm-payment", h.Payment.Confirm)
		payments.POST("/release/:orderId", middleware.UUIDValidator("orderId"), h.Payment.Release)
		payments.POST("/refund/:orderId", middleware.UUIDValidator("orderId"), h.Payment.Refund)
		payments.GET("/earnings", h.Payment.Earnings)
		payments.GET("/history", h.Payment.History)
		payments.GET("/notifications", h.Payment.Notifications)
		payments.POST("/withdraw", h.Withdrawal.CreateWithdrawal)
		payments.GET("/withdrawals", h.Withdrawal.ListWithdrawals)
		payments.POST("/disputes/:orderId", middleware.UUIDValidator("orderId"), h.Dispute.CreateDispute)
		payments.GET("/platform-stats", adminOnly, h.Stats.PlatformStats)

		methods := payments.Group("/methods")
		methods.GET("", h.PayoutMethod.List)
		methods.POST("", h.PayoutMethod.Add)
		methods.PUT("/:id", middleware.UUIDValidator("id"), h.PayoutMethod.Update)
		methods.DELETE("/:id", middleware.UUIDValidator("id"), h.PayoutMethod.Delete)
		methods.PUT("/:id/primary", middleware.UUIDValidator("id"), h.PayoutMethod.SetPrimary)
	}
	protected.GET("/seller/earnings", h.Payment.Earnings)

	chat := protected.Group("/chat")
	{
		chat.GET("/conversations", h.Conversation.ListConversations)
		chat.GET("/conversations/search", h.Conversation.SearchConversations)
		chat.POST("/conversations", h.Conversation.GetOrCreate)
		chat.POST("/conversations/direct", h.Conversation.Direct)
		chat.GET("/conversations/:id/messages", middleware.UUIDValidator("id"), h.Conversation.ListMessages)
		chat.POST("/conversations/:id/messages", middleware.UUIDValidator("id"), h.Conversation.SendMessage)
		chat.PATCH("/conversations/:id/read", middleware.UUIDValidator("id"), h.Conversation.MarkRead)
		chat.PUT("/messages/:id", middleware.UUIDValidator("id"), h.Conversation.UpdateMessage)
		chat.DELETE("/messages/:id", middleware.UUIDValidator("id"), h.Conversation.DeleteMessage)
		chat.POST("/messages/:id/reactions", middleware.UUIDValidator("id"), h.Conversation.ToggleReaction)
		chat.POST("/upload", uploadLimit, h.Conversation.Upload)
		chat.POST("/migrate-order-messages", adminOnly, h.Conversation.MigrateOrderMessages)
	}

	notifications := protected.Group("/notifications")
	{
		notifications.GET("", h.Notification.ListNotifications)
		notifications.PATCH("/read-all", h.Notification.MarkAllAsRead)
		notifications.PATCH("/:id/read", middleware.UUIDValidator("id"), h.Notification.MarkAsRead)
		notifications.DELETE("/:id", middleware.UUIDValidator("id"), h.Notification.DeleteNotification)
	}

	// WebSocket: токен проверяется в самом хэндлере.
	api.GET("/ws", h.WS.Handle)

	if cfg.IsDevelopment() && h.Dev != nil {
		dev := protected.Group("/test")
		dev.POST("/update-order-status/:id", middleware.UUIDValidator("id"), h.Dev.UpdateOrderStatus)
		dev.GET("/orders", h.Dev.ListOrders)
	}

	return r
}
