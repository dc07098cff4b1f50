package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/isooko/gateway/internal/domain/relay"
	"github.com/isooko/gateway/internal/domain/session"
	"github.com/isooko/gateway/internal/infrastructure/logging"
	"github.com/isooko/gateway/internal/infrastructure/monitoring"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Browser clients connect from arbitrary origins
	},
}

// Handler manages WebSocket connections
type Handler struct {
	registry *session.Registry
	relay    *relay.Relay
	logger   *logging.Logger
	metrics  *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler
func NewHandler(registry *session.Registry, relay *relay.Relay, logger *logging.Logger, metrics *monitoring.Metrics) *Handler {
	return &Handler{
		registry: registry,
		relay:    relay,
		logger:   logger,
		metrics:  metrics,
	}
}

// HandleConnection upgrades the request and drives the session until the
// client disconnects. Turns run strictly one at a time per connection:
// the read loop does not pick up the next message until the current turn
// has finished.
func (h *Handler) HandleConnection(c *gin.Context) {
	clientID := c.Param("client_id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			zap.String("client_id", clientID),
			zap.Error(err))
		return
	}

	sess := session.New(clientID, conn)
	h.registry.Register(sess)
	h.metrics.IncWSConnections()

	log := h.logger.With(
		zap.String("client_id", clientID),
		zap.String("conn_id", sess.ConnID.String()),
	)
	log.Info("client connected", zap.Int("active", h.registry.Count()))

	defer func() {
		h.registry.Unregister(sess)
		_ = sess.Close()
		h.metrics.DecWSConnections()
		log.Info("client disconnected", zap.Int("active", h.registry.Count()))
	}()

	reqCtx := c.Request.Context()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		h.metrics.RecordWSMessage("inbound", "text")
		h.relay.Turn(reqCtx, clientID, string(data))
	}
}
