// Package main is the entry point of the application
package main

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tecu23/gochess-client/pkg/events"
	"github.com/tecu23/gochess-client/pkg/game"
)

const streamWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,

	// the API key guard decides who may watch
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleStream pushes every session snapshot to a websocket client
func (app *application) handleStream(w http.ResponseWriter, r *http.Request) {
	// Upgrade HTTP connection to WebSocket
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.Logger.Error("Failed to upgrade to WebSocket", zap.Error(err))
		return
	}
	defer ws.Close()

	app.Logger.Info("WebSocket connection established",
		zap.String("remote_addr", r.RemoteAddr))

	// holds at most the newest snapshot; older ones are superseded
	updates := make(chan game.State, 1)
	unsubscribe := app.Publisher.Subscribe(events.EventStateChanged, func(e events.Event) {
		s, ok := e.Payload.(game.State)
		if !ok {
			return
		}
		select {
		case updates <- s:
		default:
			select {
			case <-updates:
			default:
			}
			updates <- s
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	write := func(s game.State) bool {
		ws.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := ws.WriteJSON(s); err != nil {
			app.Logger.Debug("stream write failed", zap.Error(err))
			return false
		}
		return true
	}

	if !write(app.Manager.Snapshot()) {
		return
	}
	for {
		select {
		case s := <-updates:
			if !write(s) {
				return
			}
		case <-closed:
			return
		case <-r.Context().Done():
			return
		case <-app.shutdown:
			ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(streamWriteWait))
			return
		}
	}
}
