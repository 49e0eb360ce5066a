package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"luckyjet/internal/notification"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	snapshotPeriod = 100 * time.Millisecond
)

var wsJSON = jsoniter.ConfigCompatibleWithStandardLibrary

var upgrader = websocket.Upgrader{
	// The adapter is a local demo surface; any origin may watch.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	msgSnapshot = "snapshot"
	msgEvent    = "event"
)

type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Client is one WebSocket observer. It receives every notification plus a
// periodic snapshot, and never sends commands.
type Client struct {
	id     string
	conn   *websocket.Conn
	events <-chan notification.Notification
}

func (s *GameServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	id := uuid.NewString()
	client := &Client{
		id:     id,
		conn:   conn,
		events: s.notifier.Subscribe(id),
	}
	s.log.Debug("websocket connected", zap.String("client", id), zap.String("ip", c.ClientIP()))

	done := make(chan struct{})
	go client.readPump(done)
	go s.writePump(client, done)
}

// writePump is the only writer on the connection.
func (s *GameServer) writePump(client *Client, done <-chan struct{}) {
	snapshots := time.NewTicker(snapshotPeriod)
	pings := time.NewTicker(pingPeriod)
	defer func() {
		snapshots.Stop()
		pings.Stop()
		s.notifier.Unsubscribe(client.id)
		client.conn.Close()
		s.log.Debug("websocket closed", zap.String("client", client.id))
	}()

	for {
		var err error
		select {
		case <-done:
			return
		case n, ok := <-client.events:
			if !ok {
				_ = client.conn.WriteControl(websocket.CloseMessage, nil, time.Now().Add(writeWait))
				return
			}
			err = client.write(WSMessage{Type: msgEvent, Payload: n})
		case <-snapshots.C:
			err = client.write(WSMessage{Type: msgSnapshot, Payload: s.runner.Snapshot()})
		case <-pings.C:
			err = client.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
		}
		if err != nil {
			return
		}
	}
}

func (client *Client) write(msg WSMessage) error {
	data, err := wsJSON.Marshal(msg)
	if err != nil {
		return err
	}
	_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return client.conn.WriteMessage(websocket.TextMessage, data)
}

// readPump discards inbound frames; it exists to process control frames and
// to notice when the peer goes away.
func (client *Client) readPump(done chan<- struct{}) {
	defer close(done)

	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := client.conn.NextReader(); err != nil {
			return
		}
	}
}
