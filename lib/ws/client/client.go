package wsclient

import (
	"github.com/gofiber/contrib/websocket"
	log "github.com/sirupsen/logrus"
)

// Reader is the inbound side of a websocket connection
type Reader interface {
	ReadMessage() (messageType int, p []byte, err error)
}

func NewClient(userID string, c Reader) *WsClient {
	return &WsClient{
		conn:   c,
		userID: userID,
	}
}

// WsClient drains the inbound side of a connection. Clients only listen,
// so incoming frames are logged and dropped
type WsClient struct {
	conn   Reader
	userID string
}

var closeCodes []int

func init() {
	for i := websocket.CloseNormalClosure; i <= websocket.CloseTLSHandshake; i++ {
		closeCodes = append(closeCodes, i)
	}
}

// Dispatch blocks until the connection is closed
func (c *WsClient) Dispatch() {
	logger := log.WithField("user_id", c.userID)
	for {
		if c.conn == nil {
			return
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, closeCodes...) {
				logger.WithError(err).Error("ws message read failed")
			}
			return
		}
		logger.WithField("size", len(data)).Debug("ws message ignored")
	}
}
