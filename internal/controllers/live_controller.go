package controllers

import (
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"shortly-live/internal/live"
)

type LiveController struct {
	hub      *live.Hub
	upgrader websocket.Upgrader
}

func NewLiveController(hub *live.Hub, allowedOrigins []string) *LiveController {
	return &LiveController{
		hub:      hub,
		upgrader: live.NewUpgrader(allowedOrigins),
	}
}

// Connect handles GET /ws, upgrading an authenticated request to the live channel
func (lc *LiveController) Connect(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	conn, err := lc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// the upgrader has already written the HTTP error
		logrus.WithError(err).WithField("user_id", userID).Warn("websocket upgrade failed")
		return
	}

	live.Serve(lc.hub, conn, userID)
}
