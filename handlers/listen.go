package handlers

import (
	"net/http"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	ws "moderation-service/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Auth happens in middleware before the upgrade.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ListenHandler upgrades the connection and attaches it to the queue update
// broadcast hub.
func (h *Handlers) ListenHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.WithError(err).Warn("websocket upgrade failed")
		return
	}
	ws.NewClient(h.hub, conn)
}
