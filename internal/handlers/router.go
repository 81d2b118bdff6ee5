package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jeevan-poddar/letushelp/internal/middleware"
	"gorm.io/gorm"
)

// RegisterRoutes mounts the API on r. Extra middleware (rate limiting in
// production) is applied to the /api group before the routes.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, extra ...gin.HandlerFunc) {
	api := r.Group("/api")
	for _, m := range extra {
		api.Use(m)
	}

	api.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK", "timestamp": time.Now().UTC().Format(time.RFC3339)})
	})

	// Public routes
	auth := api.Group("/auth")
	{
		auth.POST("/register", Register(db))
		auth.POST("/login", Login(db))
	}

	api.GET("/services", GetServices(db))

	// Protected routes
	protected := api.Group("/")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.GET("/auth/profile", GetProfile(db))

		provider := protected.Group("/provider")
		{
			provider.POST("/profile", CreateProviderProfile(db))
			provider.GET("/profile", GetProviderProfile(db))
			provider.PUT("/profile", UpdateProviderProfile(db))
			provider.PATCH("/profile/availability", ToggleAvailability(db))
		}

		requests := protected.Group("/requests")
		{
			requests.POST("", CreateRequest(db))
			requests.GET("", GetUserRequests(db))
			requests.GET("/provider", GetProviderRequests(db))
			requests.DELETE("/:id", DeleteRequest(db))
		}

		bookings := protected.Group("/bookings")
		{
			bookings.POST("", CreateBooking(db))
			bookings.GET("", GetUserBookings(db))
			bookings.GET("/provider", GetProviderBookings(db))
			bookings.PATCH("/:id/status", UpdateBookingStatus(db))
			bookings.PUT("/:id", UpdateBooking(db))
			bookings.POST("/:id/rate", RateBooking(db))
		}
	}
}
