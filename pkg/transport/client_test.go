package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tecu23/gochess-client/pkg/messages"
)

var upgrader = websocket.Upgrader{}

type fakeServer struct {
	*httptest.Server

	requests chan *http.Request
	conns    chan *websocket.Conn
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{
		requests: make(chan *http.Request, 8),
		conns:    make(chan *websocket.Conn, 8),
	}
	fs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fs.requests <- r
		fs.conns <- ws
	}))
	t.Cleanup(fs.Close)
	return fs
}

func (fs *fakeServer) wsURL() string {
	return "ws" + strings.TrimPrefix(fs.URL, "http")
}

func (fs *fakeServer) accept(t *testing.T) *websocket.Conn {
	t.Helper()
	select {
	case ws := <-fs.conns:
		t.Cleanup(func() { ws.Close() })
		return ws
	case <-time.After(2 * time.Second):
		t.Fatal("no connection accepted")
		return nil
	}
}

func nextEvent(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case ev, ok := <-c.Events():
		require.True(t, ok, "events channel closed")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for transport event")
		return nil
	}
}

func expectStatus(t *testing.T, c *Client, want Status) StatusChanged {
	t.Helper()
	ev := nextEvent(t, c)
	sc, ok := ev.(StatusChanged)
	require.True(t, ok, "expected status change, got %T", ev)
	require.Equal(t, want, sc.Status)
	return sc
}

func runClient(t *testing.T, c *Client) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()
	t.Cleanup(cancel)
	return cancel, done
}

func TestClient_ConnectSendReceive(t *testing.T) {
	fs := newFakeServer(t)
	c := NewClient(Options{URL: fs.wsURL(), Token: "tok-1"}, zap.NewNop())

	assert.ErrorIs(t, c.Send(messages.JoinGame("Blitz")), ErrNotConnected)

	cancel, done := runClient(t, c)
	expectStatus(t, c, StatusConnecting)
	expectStatus(t, c, StatusConnected)
	assert.Equal(t, StatusConnected, c.Status())

	r := <-fs.requests
	assert.Equal(t, "tok-1", r.URL.Query().Get("token"))
	assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))

	server := fs.accept(t)

	require.NoError(t, c.Send(messages.JoinGame("Blitz")))
	server.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := server.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"join_game","payload":{"gameType":"Blitz"}}`, string(data))

	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{"event":"waiting_for_opponent","payload":{}}`)))
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, server.WriteMessage(websocket.TextMessage, []byte(`{"event":"move_made","payload":{"move":"e2e4"}}`)))

	first, ok := nextEvent(t, c).(Message)
	require.True(t, ok)
	assert.Equal(t, messages.EventWaitingForOpponent, first.Inbound.Event)

	// the malformed frame is dropped, order is kept
	second, ok := nextEvent(t, c).(Message)
	require.True(t, ok)
	assert.Equal(t, messages.EventMoveMade, second.Inbound.Event)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, StatusDisconnected, c.Status())
}

func TestClient_ReconnectsAfterDrop(t *testing.T) {
	fs := newFakeServer(t)
	fc := clockwork.NewFakeClock()
	c := NewClient(Options{URL: fs.wsURL(), Clock: fc}, zap.NewNop())

	runClient(t, c)
	expectStatus(t, c, StatusConnecting)
	expectStatus(t, c, StatusConnected)

	server := fs.accept(t)
	server.Close()

	dropped := expectStatus(t, c, StatusDisconnected)
	assert.Error(t, dropped.Err)
	assert.ErrorIs(t, c.Send(messages.ResignGame("g1")), ErrNotConnected)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, fc.BlockUntilContext(ctx, 1))
	fc.Advance(time.Second)

	retry := expectStatus(t, c, StatusConnecting)
	assert.Equal(t, 1, retry.Retry)
	expectStatus(t, c, StatusConnected)
	fs.accept(t)
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	fs := newFakeServer(t)
	url := fs.wsURL()
	fs.Close()

	fc := clockwork.NewFakeClock()
	c := NewClient(Options{URL: url, Clock: fc, MaxRetries: 2}, zap.NewNop())

	_, done := runClient(t, c)

	var statuses []StatusChanged
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for ev := range c.Events() {
			if sc, ok := ev.(StatusChanged); ok {
				statuses = append(statuses, sc)
			}
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := 0; i < 2; i++ {
		require.NoError(t, fc.BlockUntilContext(ctx, 1))
		fc.Advance(5 * time.Second)
	}

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrRetriesExhausted)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not give up")
	}
	<-collected

	require.NotEmpty(t, statuses)
	last := statuses[len(statuses)-1]
	assert.Equal(t, StatusDisconnected, last.Status)
	assert.ErrorIs(t, last.Err, ErrRetriesExhausted)

	attempts := 0
	for _, sc := range statuses {
		if sc.Status == StatusConnecting {
			attempts++
		}
	}
	// the first attempt plus two retries
	assert.Equal(t, 3, attempts)
}

func TestBackoff(t *testing.T) {
	base, limit := time.Second, 5*time.Second

	assert.Equal(t, time.Duration(0), Backoff(0, base, limit))
	assert.Equal(t, time.Second, Backoff(1, base, limit))
	assert.Equal(t, 2*time.Second, Backoff(2, base, limit))
	assert.Equal(t, 4*time.Second, Backoff(3, base, limit))
	assert.Equal(t, 5*time.Second, Backoff(4, base, limit))
	assert.Equal(t, 5*time.Second, Backoff(40, base, limit))
}
