package http

import (
	"net/http"

	"github.com/dkeye/livepoll/internal/app"
	"github.com/gin-gonic/gin"
)

// GET /api/rooms
func (h *handlers) listRooms(c *gin.Context) {
	rooms := h.Orch.Registry.Rooms()
	if rooms == nil {
		rooms = []app.RoomInfo{}
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// GET /api/healthz
func (h *handlers) healthz(c *gin.Context) {
	s := h.Orch.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"rooms":       s.Rooms,
		"connections": s.Connections,
		"members":     s.Members,
	})
}
