package live

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"shortly-live/internal/apperr"
	"shortly-live/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second // must be shorter than pongWait
	maxMessageSize = 4096
	sendBuffer     = 256
)

// NewUpgrader accepts requests without an Origin header or from one of origins ("*" allows any).
func NewUpgrader(origins []string) websocket.Upgrader {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed["*"] || allowed[origin]
		},
	}
}

// Connection pumps hub messages to one authenticated websocket client.
type Connection struct {
	hub  *Hub
	sub  *Subscriber
	conn *websocket.Conn
	log  *logrus.Entry
}

// Serve registers an upgraded connection for userID and starts its read and write pumps.
func Serve(hub *Hub, conn *websocket.Conn, userID string) *Connection {
	sub := NewSubscriber(userID, sendBuffer)
	c := &Connection{
		hub:  hub,
		sub:  sub,
		conn: conn,
		log: logrus.WithFields(logrus.Fields{
			"user_id":       userID,
			"subscriber_id": sub.ID(),
		}),
	}
	hub.Register(sub)
	metrics.LiveConnections.Inc()
	c.log.Debug("live connection opened")

	go c.writePump()
	go c.readPump()
	return c
}

func (c *Connection) readPump() {
	defer func() {
		c.hub.Remove(c.sub)
		c.conn.Close()
		metrics.LiveConnections.Dec()
		c.log.Debug("live connection closed")
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.log.WithError(err).Error("failed to set read deadline")
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.WithError(err).Warn("live connection read failed")
			}
			return
		}
		if messageType == websocket.TextMessage {
			c.handleMessage(message)
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.sub.Messages():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Connection) handleMessage(raw []byte) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.reply(EventError, ErrorData{Error: string(apperr.KindValidation), Message: "malformed message"})
		return
	}

	var roomID string
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &roomID); err != nil {
			c.reply(EventError, ErrorData{Error: string(apperr.KindValidation), Message: "data must be a user id"})
			return
		}
	}

	switch msg.Event {
	case EventJoin:
		if roomID != c.sub.UserID() {
			c.reply(EventError, ErrorData{Error: string(apperr.KindForbidden), Message: "cannot join another user's room"})
			return
		}
		c.hub.Join(c.sub, roomID)
		c.reply(EventJoined, roomID)

	case EventLeave:
		c.hub.Leave(c.sub, roomID)
		c.reply(EventLeft, roomID)

	default:
		c.reply(EventError, ErrorData{Error: string(apperr.KindValidation), Message: "unknown event " + msg.Event})
	}
}

func (c *Connection) reply(event string, data any) {
	message, err := Encode(event, data)
	if err != nil {
		c.log.WithError(err).Error("failed to encode reply")
		return
	}
	if !c.hub.Send(c.sub, message) {
		c.log.WithField("event", event).Warn("reply dropped")
	}
}
