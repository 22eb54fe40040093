package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireValidCameraID rejects a ":id" path param that is empty, longer than
// 64 bytes, or contains anything besides letters, digits, '-', '_' and '.'.
func RequireValidCameraID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !validCameraID(c.Param("id")) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid camera id"})
			return
		}
		c.Next()
	}
}

func validCameraID(id string) bool {
	if len(id) == 0 || len(id) > 64 {
		return false
	}
	for i := 0; i < len(id); i++ {
		switch b := id[i]; {
		case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		case b == '-', b == '_', b == '.':
		default:
			return false
		}
	}
	return true
}
