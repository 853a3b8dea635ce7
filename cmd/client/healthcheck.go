// Package main is the entry point of the application
package main

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// handleHealth handles the GET /health endpoint
func (app *application) handleHealth(w http.ResponseWriter, _ *http.Request) {
	app.writeJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"uptime":     time.Since(app.StartTime).Round(time.Second).String(),
		"connection": string(app.Transport.Status()),
	})
}

// handleState handles GET /state with the latest session snapshot
func (app *application) handleState(w http.ResponseWriter, _ *http.Request) {
	app.writeJSON(w, http.StatusOK, app.Manager.Snapshot())
}

func (app *application) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		app.Logger.Error("failed to write response", zap.Error(err))
	}
}
