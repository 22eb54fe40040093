package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LimitConcurrentRequests rejects requests with 429 once maxConcurrent are
// already being served. Long-lived routes (WebSocket streams) should be
// mounted outside it.
//
//	api.Use(LimitConcurrentRequests(64))
func LimitConcurrentRequests(maxConcurrent int) gin.HandlerFunc {
	sem := make(chan struct{}, maxConcurrent)

	return func(c *gin.Context) {
		select {
		case sem <- struct{}{}:
			defer func() { <-sem }()
			c.Next()
		default:
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "too many concurrent requests"})
		}
	}
}
