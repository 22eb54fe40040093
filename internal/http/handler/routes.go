package handler

import (
	"net/http"

	mw "github.com/FadyMorkos3/VIGIL-sub001/internal/http/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the dashboard API on g (normally the /api group).
// limits wrap every short-lived route; the WebSocket stream bypasses them.
func RegisterRoutes(g *gin.RouterGroup, dash *DashboardHandler, stream *StreamHandler, limits ...gin.HandlerFunc) {
	api := g.Group("", limits...)

	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })

	// --- Grid ---
	api.GET("/cameras", dash.GetCameras)
	api.GET("/cameras/:id", mw.RequireValidCameraID(), dash.GetCamera)
	api.GET("/roster", dash.GetRoster)
	api.GET("/status", dash.GetStatus)

	// --- Controls ---
	api.PUT("/polling", dash.SetPolling)
	api.POST("/polling/toggle", dash.TogglePolling)
	api.POST("/refresh", dash.Refresh)
	api.POST("/offline-mode/toggle", dash.ToggleOfflineMode)

	// --- Push ---
	g.GET("/ws", stream.Stream)
}
