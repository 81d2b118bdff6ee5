package middleware

import (
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jeevan-poddar/letushelp/internal/services"
)

const (
	rateLimitWindow = 15 * time.Minute
	rateLimitMax    = 100
)

// Indirection so tests can substitute the counter.
var incrementRequestCount = services.IncrementRequestCount

// RateLimitMiddleware enforces a fixed window of rateLimitMax requests per
// client IP, with counters kept in Redis. Redis errors fail open: the
// limiter protects the API, it is not a correctness mechanism.
func RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := fmt.Sprintf("ratelimit:%s", c.ClientIP())

		count, err := incrementRequestCount(c.Request.Context(), key, rateLimitWindow)
		if err != nil {
			log.Printf("rate limiter unavailable: %v", err)
			c.Next()
			return
		}

		if count > rateLimitMax {
			c.JSON(429, gin.H{"error": "Too many requests, please try again later"})
			c.Abort()
			return
		}

		c.Next()
	}
}
