package manager

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tecu23/gochess-client/pkg/chess"
	"github.com/tecu23/gochess-client/pkg/events"
	"github.com/tecu23/gochess-client/pkg/game"
	"github.com/tecu23/gochess-client/pkg/messages"
	"github.com/tecu23/gochess-client/pkg/transport"
)

// ErrClosed is returned for actions submitted after Run has returned
var ErrClosed = errors.New("session closed")

// Transport is the event channel the manager talks through
type Transport interface {
	Send(msg messages.OutboundMessage) error
	Events() <-chan transport.Event
}

type action struct {
	event game.Event
	reply chan error
}

// Manager owns one game session. A single goroutine (Run) applies every user
// action, server message and clock tick in arrival order and executes the
// resulting effects; everything else talks to it through channels.
type Manager struct {
	ID uuid.UUID

	machine   *game.Machine
	transport Transport
	clock     *chess.Clock

	actions chan action
	done    chan struct{}

	state      game.State // owned by Run
	connStatus transport.Status

	mu       sync.RWMutex
	snapshot game.State

	publisher *events.Publisher
	logger    *zap.Logger
}

// NewManager creates a manager for an idle session of the given player
func NewManager(
	identity string,
	machine *game.Machine,
	t Transport,
	clock *chess.Clock,
	publisher *events.Publisher,
	logger *zap.Logger,
) *Manager {
	id := uuid.New()
	state := game.NewState(identity)

	return &Manager{
		ID:         id,
		machine:    machine,
		transport:  t,
		clock:      clock,
		actions:    make(chan action),
		done:       make(chan struct{}),
		state:      state,
		snapshot:   state,
		connStatus: transport.StatusDisconnected,
		publisher:  publisher,
		logger:     logger.With(zap.String("session_id", id.String())),
	}
}

// Run processes events until ctx is done. The clock is stopped on return.
func (m *Manager) Run(ctx context.Context) error {
	defer close(m.done)
	defer m.clock.Stop()

	inbound := m.transport.Events()
	ticks := m.clock.GetTickChannel()

	m.publishState()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("session closed")
			return nil

		case a := <-m.actions:
			a.reply <- m.apply(a.event)

		case ev, ok := <-inbound:
			if !ok {
				// the transport gave up; stay disconnected
				inbound = nil
				continue
			}
			m.handleTransport(ev)

		case tick := <-ticks:
			if !m.clock.IsCurrent(tick) {
				continue
			}
			m.apply(game.Tick{})
		}
	}
}

// Snapshot returns the latest published state
func (m *Manager) Snapshot() game.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// Do submits a user action and waits until it has been applied
func (m *Manager) Do(ctx context.Context, ev game.Event) error {
	a := action{event: ev, reply: make(chan error, 1)}

	select {
	case m.actions <- a:
	case <-m.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-a.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Manager) SelectGame(ctx context.Context, gameType game.GameType) error {
	return m.Do(ctx, game.SelectGame{Type: gameType})
}

func (m *Manager) CancelSeek(ctx context.Context) error {
	return m.Do(ctx, game.CancelSeek{})
}

func (m *Manager) Move(ctx context.Context, move chess.Move) error {
	return m.Do(ctx, game.AttemptMove{Move: move})
}

func (m *Manager) Resign(ctx context.Context) error {
	return m.Do(ctx, game.Resign{})
}

func (m *Manager) NewGame(ctx context.Context) error {
	return m.Do(ctx, game.NewGame{})
}

func (m *Manager) apply(ev game.Event) error {
	next, effects, err := m.machine.Apply(m.state, ev)

	// nothing is committed unless the server has been told
	if sendErr := m.send(effects); sendErr != nil {
		m.logger.Warn("event not applied, send failed",
			zap.String("phase", string(m.state.Phase)),
			zap.Error(sendErr),
		)
		m.notify(game.Notice{Level: game.NoticeError, Text: sendFailureText(sendErr)})
		return fmt.Errorf("%w: %v", game.ErrNotConnected, sendErr)
	}

	changed := next != m.state
	m.state = next

	m.execute(effects)
	if changed {
		m.publishState()
	}

	switch {
	case err == nil:
	case errors.Is(err, game.ErrBoardInactive):
		m.logger.Debug("ignored board interaction", zap.Error(err))
	case errors.Is(err, game.ErrProtocol), errors.Is(err, game.ErrDiverged):
		m.logger.Warn("server event not applied", zap.String("game_id", m.state.GameID), zap.Error(err))
	default:
		m.logger.Info("action rejected", zap.String("phase", string(m.state.Phase)), zap.Error(err))
	}

	return err
}

// send delivers the outbound messages among effects, stopping at the first failure
func (m *Manager) send(effects []game.Effect) error {
	for _, effect := range effects {
		e, ok := effect.(game.Send)
		if !ok {
			continue
		}
		if err := m.transport.Send(e.Message); err != nil {
			return fmt.Errorf("send %s: %w", e.Message.Event, err)
		}
	}
	return nil
}

// execute runs the local effects; sends have already gone out
func (m *Manager) execute(effects []game.Effect) {
	for _, effect := range effects {
		switch e := effect.(type) {
		case game.StartClock:
			m.clock.Start()
		case game.StopClock:
			m.clock.Stop()
		case game.Notice:
			m.notify(e)
		}
	}
}

func (m *Manager) handleTransport(ev transport.Event) {
	switch e := ev.(type) {
	case transport.StatusChanged:
		previous := m.connStatus
		m.connStatus = e.Status

		m.publisher.Publish(events.Event{
			Type:    events.EventConnectionChanged,
			GameID:  m.state.GameID,
			Payload: e,
		})
		if n, ok := connectionNotice(previous, e); ok {
			m.notify(n)
		}
		m.apply(game.ConnectionChanged{Connected: e.Status == transport.StatusConnected})

	case transport.Message:
		gev, err := transport.Dispatch(e.Inbound)
		if err != nil {
			m.logger.Warn("dropping server message", zap.String("event", e.Inbound.Event), zap.Error(err))
			return
		}
		m.apply(gev)
	}
}

func (m *Manager) publishState() {
	m.mu.Lock()
	m.snapshot = m.state
	m.mu.Unlock()

	m.publisher.Publish(events.Event{
		Type:    events.EventStateChanged,
		GameID:  m.state.GameID,
		Payload: m.state,
	})
}

func (m *Manager) notify(n game.Notice) {
	m.publisher.Publish(events.Event{
		Type:    events.EventNotice,
		GameID:  m.state.GameID,
		Payload: n,
	})
}

func connectionNotice(previous transport.Status, e transport.StatusChanged) (game.Notice, bool) {
	switch {
	case e.Status == transport.StatusConnected:
		return game.Notice{Level: game.NoticeSuccess, Text: "Connected to game server"}, true
	case e.Status != transport.StatusDisconnected || e.Err == nil:
		return game.Notice{}, false
	case errors.Is(e.Err, transport.ErrRetriesExhausted):
		return game.Notice{Level: game.NoticeError, Text: "Could not reach the game server"}, true
	case previous == transport.StatusConnected:
		return game.Notice{Level: game.NoticeWarning, Text: fmt.Sprintf("Disconnected: %v. Attempting to reconnect...", e.Err)}, true
	default:
		return game.Notice{Level: game.NoticeError, Text: fmt.Sprintf("Connection error: %v", e.Err)}, true
	}
}

func sendFailureText(err error) string {
	if errors.Is(err, transport.ErrNotConnected) {
		return "Not connected to game server"
	}
	return "Could not reach the game server"
}
