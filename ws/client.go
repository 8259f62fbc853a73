package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Subscriber bağlantı sabitleri
const (
	writeWait = 10 * time.Second

	// pongWait: subscriber'ın heartbeat göndermesi için beklenen maksimum süre.
	pongWait = 90 * time.Second

	// maxMessageSize: subscriber sadece heartbeat gönderir.
	maxMessageSize = 4096

	// sendBufferSize: buffer doluysa client yavaş sayılır ve düşürülür.
	sendBufferSize = 256
)

// Client, /ws endpoint'ine bağlı tek bir subscriber bağlantısı.
//
// Her bağlantı için iki goroutine çalışır:
//   - ReadPump: heartbeat'leri okur, deadline'ı yeniler
//   - WritePump: Hub'ın send kanalına yazdığı event'leri bağlantıya yazar
type Client struct {
	hub     *Hub
	conn    *websocket.Conn
	subject string
	send    chan []byte
	logger  *zap.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, subject string) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		subject: subject,
		send:    make(chan []byte, sendBufferSize),
		logger:  hub.logger.With(zap.String("subject", subject)),
	}
}

// ReadPump, bağlantı kapanana kadar subscriber'dan gelen frame'leri okur.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.drop(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Warn("failed to set read deadline", zap.Error(err))
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info("unexpected subscriber close", zap.Error(err))
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			c.logger.Debug("invalid subscriber frame", zap.Error(err))
			continue
		}

		switch event.Op {
		case OpHeartbeat:
			if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
				return
			}
			c.enqueue(Event{Op: OpHeartbeatAck})
		default:
			c.logger.Debug("unknown subscriber op", zap.String("op", event.Op))
		}
	}
}

// WritePump, send kanalındaki mesajları bağlantıya yazar.
// Hub kanalı kapattığında close frame gönderip çıkar.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for data := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// enqueue, tek bir client'a event yazar. Send kanalı kapalıysa veya doluysa event düşer.
func (c *Client) enqueue(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()

	if !c.hub.clients[c.subject][c] {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
