package transport

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tecu23/gochess-client/pkg/messages"
)

const maxMessageSize = 64 * 1024

// conn is one live websocket. It never outlives a single connection attempt.
type conn struct {
	id   uuid.UUID
	ws   *websocket.Conn
	send chan []byte // Buffered channel of outbound frames.
	done chan struct{}

	closeOnce sync.Once

	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration

	logger *zap.Logger
}

func newConn(id uuid.UUID, ws *websocket.Conn, opts Options, logger *zap.Logger) *conn {
	return &conn{
		id:         id,
		ws:         ws,
		send:       make(chan []byte, 256),
		done:       make(chan struct{}),
		writeWait:  opts.WriteWait,
		pongWait:   opts.PongWait,
		pingPeriod: (opts.PongWait * 9) / 10,
		logger:     logger.With(zap.String("connection_id", id.String())),
	}
}

func (c *conn) enqueue(data []byte) error {
	select {
	case <-c.done:
		return ErrNotConnected
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (c *conn) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}

// readPump blocks until the connection fails, handing every well formed
// envelope to deliver in order.
func (c *conn) readPump(deliver func(messages.InboundMessage)) error {
	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(c.pongWait))
		return nil
	})

	for {
		msgType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("read error", zap.Error(err))
			}
			return fmt.Errorf("read: %w", err)
		}

		// We only handle text
		if msgType != websocket.TextMessage {
			continue
		}

		msg, err := messages.DecodeInbound(data)
		if err != nil {
			c.logger.Warn("dropping inbound frame", zap.Error(err))
			continue
		}
		deliver(msg)
	}
}

func (c *conn) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Error("write error", zap.Error(err))
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(c.writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
