package controller

import (
	"github.com/anangai/civic-portal-backend/internal/middleware"
	"github.com/anangai/civic-portal-backend/internal/websocket"
	"github.com/gin-gonic/gin"
)

type EventsController struct {
	hub      *websocket.Hub
	upgrader *websocket.Upgrader
}

func NewEventsController(hub *websocket.Hub, allowedOrigins []string) *EventsController {
	return &EventsController{
		hub:      hub,
		upgrader: websocket.NewUpgrader(allowedOrigins),
	}
}

// Stream upgrades to a websocket that receives application events
// GET /api/admin/events
func (ctrl *EventsController) Stream(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	conn, err := websocket.Upgrade(ctrl.upgrader, c.Writer, c.Request)
	if err != nil {
		// the upgrader has already written the error response
		log.Warn("WebSocket upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	client := websocket.NewClient(ctrl.hub, conn)
	ctrl.hub.Register(client)

	go client.WritePump()
	client.ReadPump()
}
