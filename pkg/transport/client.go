// Package transport keeps the event channel to the game server alive. It dials
// the websocket, pumps frames in both directions, reconnects with bounded
// backoff and hands every status change and inbound envelope to a single
// ordered events channel.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/tecu23/gochess-client/pkg/messages"
)

var (
	ErrNotConnected     = errors.New("not connected to game server")
	ErrSendBufferFull   = errors.New("send buffer full")
	ErrRetriesExhausted = errors.New("reconnection attempts exhausted")
)

type Status string

const (
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
)

// Options configures the connection. Zero values fall back to defaults.
type Options struct {
	URL   string
	Token string

	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	DialTimeout time.Duration

	WriteWait time.Duration
	PongWait  time.Duration

	// Clock drives the reconnection backoff
	Clock  clockwork.Clock
	Dialer *websocket.Dialer
}

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = 5
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = time.Second
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = 5 * time.Second
	}
	if o.DialTimeout <= 0 {
		o.DialTimeout = 20 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 10 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Dialer == nil {
		o.Dialer = websocket.DefaultDialer
	}
	return o
}

// Client is the connection lifecycle manager. Run owns the connection; Send
// may be called from any goroutine.
type Client struct {
	opts   Options
	events chan Event

	mu      sync.Mutex
	status  Status
	current *conn

	logger *zap.Logger
}

func NewClient(opts Options, logger *zap.Logger) *Client {
	return &Client{
		opts:   opts.withDefaults(),
		events: make(chan Event, 64),
		status: StatusDisconnected,
		logger: logger,
	}
}

// Events delivers status changes and inbound messages in arrival order. It is
// closed when Run returns.
func (c *Client) Events() <-chan Event {
	return c.events
}

func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Send queues msg on the live connection. Nothing is buffered across
// reconnects: while disconnected it fails with ErrNotConnected.
func (c *Client) Send(msg messages.OutboundMessage) error {
	data, err := msg.Encode()
	if err != nil {
		return err
	}

	c.mu.Lock()
	cur := c.current
	c.mu.Unlock()

	if cur == nil {
		return ErrNotConnected
	}
	return cur.enqueue(data)
}

// Run connects and keeps reconnecting until ctx is done or the retry budget
// is spent. The retry counter resets after every successful connection.
func (c *Client) Run(ctx context.Context) error {
	defer close(c.events)

	retry := 0
	for {
		if retry > 0 {
			if retry > c.opts.MaxRetries {
				c.setStatus(ctx, StatusDisconnected, retry, ErrRetriesExhausted)
				c.logger.Error("giving up on game server", zap.Int("retries", c.opts.MaxRetries))
				return ErrRetriesExhausted
			}

			delay := Backoff(retry, c.opts.BaseDelay, c.opts.MaxDelay)
			c.logger.Info("reconnecting", zap.Int("retry", retry), zap.Duration("delay", delay))
			if !c.wait(ctx, delay) {
				c.setStatus(ctx, StatusDisconnected, 0, nil)
				return nil
			}
		}

		c.setStatus(ctx, StatusConnecting, retry, nil)

		ws, err := c.dial(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.setStatus(ctx, StatusDisconnected, 0, nil)
				return nil
			}
			c.logger.Warn("connect failed", zap.Int("retry", retry), zap.Error(err))
			c.setStatus(ctx, StatusDisconnected, retry, err)
			retry++
			continue
		}

		retry = 0
		err = c.serve(ctx, ws)
		if ctx.Err() != nil {
			c.setStatus(ctx, StatusDisconnected, 0, nil)
			return nil
		}

		c.logger.Warn("connection lost", zap.Error(err))
		c.setStatus(ctx, StatusDisconnected, 0, err)
		retry = 1
	}
}

// Backoff returns the delay before reconnection attempt n (1-based):
// base doubled per attempt, capped at limit.
func Backoff(n int, base, limit time.Duration) time.Duration {
	if n < 1 {
		return 0
	}
	delay := base
	for i := 1; i < n && delay < limit; i++ {
		delay *= 2
	}
	return min(delay, limit)
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	target, err := url.Parse(c.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}

	header := http.Header{}
	if c.opts.Token != "" {
		q := target.Query()
		q.Set("token", c.opts.Token)
		target.RawQuery = q.Encode()
		header.Set("Authorization", "Bearer "+c.opts.Token)
	}

	dialCtx, cancel := context.WithTimeout(ctx, c.opts.DialTimeout)
	defer cancel()

	ws, resp, err := c.opts.Dialer.DialContext(dialCtx, target.String(), header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", c.opts.URL, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", c.opts.URL, err)
	}
	return ws, nil
}

// serve runs one connection until it drops or ctx is done
func (c *Client) serve(ctx context.Context, ws *websocket.Conn) error {
	cn := newConn(uuid.New(), ws, c.opts, c.logger)

	c.mu.Lock()
	c.current = cn
	c.mu.Unlock()

	c.setStatus(ctx, StatusConnected, 0, nil)
	c.logger.Info("connected to game server", zap.String("connection_id", cn.id.String()))

	go cn.writePump()
	stop := context.AfterFunc(ctx, cn.close)
	defer stop()

	err := cn.readPump(func(msg messages.InboundMessage) {
		c.emit(ctx, Message{Inbound: msg})
	})

	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
	cn.close()

	return err
}

func (c *Client) setStatus(ctx context.Context, status Status, retry int, err error) {
	c.mu.Lock()
	c.status = status
	c.mu.Unlock()

	c.emit(ctx, StatusChanged{Status: status, Retry: retry, Err: err})
}

func (c *Client) emit(ctx context.Context, ev Event) {
	select {
	case c.events <- ev:
	case <-ctx.Done():
	}
}

func (c *Client) wait(ctx context.Context, d time.Duration) bool {
	timer := c.opts.Clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
