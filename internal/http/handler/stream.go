package handler

import (
	"net/http"
	"time"

	"github.com/FadyMorkos3/VIGIL-sub001/internal/domain/camera"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/service"
	"github.com/FadyMorkos3/VIGIL-sub001/internal/viewmodel"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// StreamMessage is pushed to WebSocket clients after every state change.
type StreamMessage struct {
	Status  service.StatusView `json:"status"`
	Cameras []camera.ViewEntry `json:"cameras"`
	Version string             `json:"version"`
}

// StreamHandler pushes dashboard updates over WebSocket.
type StreamHandler struct {
	log      *zap.Logger
	poller   Poller
	dash     Dashboard
	upgrader websocket.Upgrader
}

// NewStreamHandler builds a handler. An empty allowOrigins accepts any origin.
func NewStreamHandler(log *zap.Logger, poller Poller, dash Dashboard, allowOrigins []string) *StreamHandler {
	return &StreamHandler{
		log:    log.Named("stream"),
		poller: poller,
		dash:   dash,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowOrigins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				for _, allowed := range allowOrigins {
					if allowed == "*" || allowed == origin {
						return true
					}
				}
				return false
			},
		},
	}
}

// Stream handles GET /ws.
//
// Behavior:
//   - Sends the current grid immediately, then one message per state change.
//   - `?layout=` as for GET /cameras.
//   - Slow clients skip intermediate states; they always get the newest.
//   - Client messages are ignored; the connection closes when the client does.
//
// Status Codes:
//   - 101 Switching Protocols
//   - 400 Bad Request → unknown layout or not a WebSocket handshake
func (h *StreamHandler) Stream(c *gin.Context) {
	layout, err := viewmodel.ParseLayout(c.Query("layout"))
	if err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.Error(err) // upgrader already wrote the response
		return
	}
	defer conn.Close()

	updates, unsubscribe := h.poller.Subscribe()
	defer unsubscribe()

	log := h.log.With(zap.String("remote", c.ClientIP()))
	log.Debug("stream opened")

	done := make(chan struct{})
	go h.readLoop(conn, done)

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	if err := h.send(conn, layout); err != nil {
		log.Debug("stream write failed", zap.Error(err))
		return
	}
	for {
		select {
		case <-done:
			log.Debug("stream closed by client")
			return
		case _, ok := <-updates:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
					time.Now().Add(writeWait))
				return
			}
			if err := h.send(conn, layout); err != nil {
				log.Debug("stream write failed", zap.Error(err))
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug("stream ping failed", zap.Error(err))
				return
			}
		}
	}
}

func (h *StreamHandler) send(conn *websocket.Conn, layout viewmodel.Layout) error {
	cams, status := h.dash.View(layout)
	msg := StreamMessage{
		Status:  status,
		Cameras: cams.Entries,
		Version: cams.Version,
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(msg)
}

// readLoop drains client frames so control messages (pong, close) are processed.
func (h *StreamHandler) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("stream read error", zap.Error(err))
			}
			return
		}
	}
}
