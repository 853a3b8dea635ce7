// Package main is the entry point of the application
package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
)

func (app *application) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(app.logRequest)
	r.Use(app.authenticate)

	r.Get("/health", app.handleHealth)
	r.Get("/state", app.handleState)
	r.Get("/ws", app.handleStream)

	// a browser board may poll from another origin
	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodHead, http.MethodGet},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})

	return c.Handler(r)
}
