package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/domain/camera"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/livestatus"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/service"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/viewmodel"
	"github.com/FadyMorkos3/VIGIL-sub001/pkg/jsonx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Poller is the control surface of the live-status poller.
type Poller interface {
	SetPolling(enabled bool) error
	TogglePolling() (bool, error)
	RefreshStatus(ctx context.Context) error
	ToggleOfflineMode(ctx context.Context) error
	Subscribe() (<-chan livestatus.State, func())
}

// Dashboard is the read side: roster projected over the latest snapshot.
type Dashboard interface {
	Cameras(layout viewmodel.Layout) service.CamerasView
	Camera(id string) (camera.ViewEntry, error)
	Status() service.StatusView
	View(layout viewmodel.Layout) (service.CamerasView, service.StatusView)
	Roster() []string
}

// DashboardHandler serves the camera grid and its controls.
//
// Supported operations:
//   - GET  /cameras              → Roster-ordered grid, optionally cut to a layout
//   - GET  /cameras/{id}         → One roster camera
//   - GET  /status               → System status + summary
//   - PUT  /polling              → Enable/disable polling
//   - POST /polling/toggle       → Flip polling
//   - POST /refresh              → Out-of-cycle live-status fetch
//   - POST /offline-mode/toggle  → Flip the backend offline-mode flag
//   - GET  /roster               → Roster IDs
type DashboardHandler struct {
	log    *zap.Logger
	poller Poller
	dash   Dashboard
}

func NewDashboardHandler(log *zap.Logger, poller Poller, dash Dashboard) *DashboardHandler {
	return &DashboardHandler{
		log:    log.Named("dashboard"),
		poller: poller,
		dash:   dash,
	}
}

// GetCameras handles GET /cameras.
//
// Behavior:
//   - One entry per roster camera, in roster order.
//   - `?layout=2x2|3x2|3x3|4x4` keeps the first N entries; absent or `all` keeps every entry.
//   - Adds `X-Total-Count` (roster size) and `X-Snapshot-Version` headers.
//
// Status Codes:
//   - 200 OK          → JSON array of view entries
//   - 400 Bad Request → unknown layout
func (h *DashboardHandler) GetCameras(c *gin.Context) {
	layout, err := viewmodel.ParseLayout(c.Query("layout"))
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	v := h.dash.Cameras(layout)
	c.Header("X-Total-Count", strconv.Itoa(v.Total))
	c.Header("X-Snapshot-Version", v.Version)
	c.JSON(http.StatusOK, v.Entries)
}

// GetCamera handles GET /cameras/{id}.
//
// Status Codes:
//   - 200 OK        → JSON view entry (offline placeholder when the backend has not reported it)
//   - 404 Not Found → camera is not on the roster
func (h *DashboardHandler) GetCamera(c *gin.Context) {
	e, err := h.dash.Camera(c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrCameraNotOnRoster) {
			c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
			return
		}
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, e)
}

// GetStatus handles GET /status.
//
// Status Codes:
//   - 200 OK → JSON status view
func (h *DashboardHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.dash.Status())
}

// GetRoster handles GET /roster.
func (h *DashboardHandler) GetRoster(c *gin.Context) {
	ids := h.dash.Roster()
	c.Header("X-Total-Count", strconv.Itoa(len(ids)))
	c.JSON(http.StatusOK, ids)
}

type setPollingReq struct {
	Enabled jsonx.Field[bool] `json:"enabled"`
}

// SetPolling handles PUT /polling.
//
// Behavior:
//   - Body `{"enabled": bool}`; unknown fields rejected.
//   - Enabling a stopped poller fetches immediately; repeats are no-ops.
//
// Status Codes:
//   - 200 OK                  → JSON status view
//   - 400 Bad Request         → malformed body or missing/null `enabled`
//   - 503 Service Unavailable → poller shut down
func (h *DashboardHandler) SetPolling(c *gin.Context) {
	var req setPollingReq
	if err := jsonx.ParseStrictJSONBody(c.Request, &req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if req.Enabled.Value() == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "enabled: required boolean"})
		return
	}

	if err := h.poller.SetPolling(*req.Enabled.Value()); err != nil {
		h.pollerError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.dash.Status())
}

// TogglePolling handles POST /polling/toggle.
//
// Status Codes:
//   - 200 OK                  → JSON status view
//   - 503 Service Unavailable → poller shut down
func (h *DashboardHandler) TogglePolling(c *gin.Context) {
	enabled, err := h.poller.TogglePolling()
	if err != nil {
		h.pollerError(c, err)
		return
	}
	h.log.Info("polling toggled", zap.Bool("enabled", enabled))
	c.JSON(http.StatusOK, h.dash.Status())
}

// Refresh handles POST /refresh.
//
// Behavior:
//   - Joins a fetch already in flight instead of starting another.
//   - A failed fetch is not an HTTP error: it shows up as `system_status: offline`.
//
// Status Codes:
//   - 200 OK                  → JSON status view after the fetch
//   - 503 Service Unavailable → poller shut down
func (h *DashboardHandler) Refresh(c *gin.Context) {
	err := h.poller.RefreshStatus(c.Request.Context())
	switch {
	case errors.Is(err, livestatus.ErrClosed):
		h.pollerError(c, err)
		return
	case err != nil:
		c.Error(err) // reflected in status; kept for the access log
	}
	c.JSON(http.StatusOK, h.dash.Status())
}

// ToggleOfflineMode handles POST /offline-mode/toggle.
//
// Behavior:
//   - Sends the inverted flag to the backend, then re-reads offline mode and live status.
//
// Status Codes:
//   - 200 OK                  → JSON status view
//   - 502 Bad Gateway         → backend rejected or was unreachable
//   - 503 Service Unavailable → poller shut down
func (h *DashboardHandler) ToggleOfflineMode(c *gin.Context) {
	if err := h.poller.ToggleOfflineMode(c.Request.Context()); err != nil {
		if errors.Is(err, livestatus.ErrClosed) {
			h.pollerError(c, err)
			return
		}
		c.Error(err)
		c.JSON(http.StatusBadGateway, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.dash.Status())
}

func (h *DashboardHandler) pollerError(c *gin.Context, err error) {
	c.Error(err)
	if errors.Is(err, livestatus.ErrClosed) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
}
