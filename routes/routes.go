package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tourvia/handlers"
	"tourvia/middleware"
	"tourvia/utils"
)

// RegisterAuthRoutes sets up session token maintenance.
func RegisterAuthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/auth")
	{
		api.Use(middleware.JWTAuthUserMiddleware())
		api.POST("/refresh", hb.Auth.RefreshToken)
	}
}

// RegisterBookingRoutes sets up the customer-facing booking lifecycle
// endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.JWTAuthUserMiddleware())
		api.GET("", hb.Booking.ListBookings)
		api.GET("/:id", hb.Booking.GetBooking)
		api.GET("/code/:code", hb.Booking.GetBookingByCode)
		api.POST("/:id/cancel", hb.Booking.CancelBooking)
		api.POST("/:id/refund-request", hb.Booking.RequestRefund)
		api.POST("/:id/review", hb.Booking.SubmitReview)
		api.POST("/:id/status", hb.Booking.CommitStatus)
	}
}

// RegisterNotificationRoutes sets up the in-app notification feed endpoints.
func RegisterNotificationRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/notifications")
	{
		api.Use(middleware.JWTAuthUserMiddleware())
		api.GET("", hb.Notification.ListNotifications)
		api.GET("/unread-count", hb.Notification.UnreadCount)
		api.POST("/mark-read", hb.Notification.MarkRead)
		api.POST("/mark-all-read", hb.Notification.MarkAllRead)
		api.POST("/device-token", hb.Notification.RegisterDevice)
	}
}

// RegisterAdminRoutes sets up endpoints for back-office operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/api/admin/bookings")
	{
		adminGroup.Use(middleware.JWTAuthUserMiddleware(), middleware.JWTAuthAdminMiddleware())
		adminGroup.GET("", hb.Admin.SearchBookings)
		adminGroup.POST("/:id/confirm-payment", hb.Admin.ConfirmPayment)
		adminGroup.POST("/:id/cancel", hb.Admin.CancelBooking)
		adminGroup.POST("/:id/settle-refund", hb.Admin.SettleRefund)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, utils.GetHealthStatus())
	})
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RateLimitMiddleware())
	r.Use(utils.ErrorHandler())

	RegisterHealthRoute(r)
	RegisterAuthRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterNotificationRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
}
