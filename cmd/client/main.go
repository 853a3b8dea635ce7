// Package main is the entry point of the application
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/tecu23/gochess-client/internal/auth"
	"github.com/tecu23/gochess-client/pkg/chess"
	"github.com/tecu23/gochess-client/pkg/config"
	"github.com/tecu23/gochess-client/pkg/events"
	"github.com/tecu23/gochess-client/pkg/game"
	"github.com/tecu23/gochess-client/pkg/manager"
	"github.com/tecu23/gochess-client/pkg/repository"
	"github.com/tecu23/gochess-client/pkg/transport"
)

// App encapsulates global dependencies
type application struct {
	Auth      *auth.APIKeyAuth
	Logger    *zap.Logger
	Config    *config.Config
	Publisher *events.Publisher
	Manager   *manager.Manager
	Transport *transport.Client
	Server    *http.Server

	// closed when the status server shuts down; upgraded streams watch it
	shutdown chan struct{}

	StartTime time.Time
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run() error {
	fs := flag.NewFlagSet("gochess", flag.ContinueOnError)
	login := loginFlags{
		email:    fs.String("email", "", "log in with this email"),
		password: fs.String("password", "", "password for -email"),
		username: fs.String("username", "", "sign up with this username (requires -email and -password)"),
		logout:   fs.Bool("logout", false, "forget stored credentials and exit"),
	}

	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		return err
	}

	// Initialize logger
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := repository.NewFileCredentialStore(cfg.CredentialsPath, logger)
	if *login.logout {
		return store.Clear()
	}

	authClient := auth.NewClient(cfg.APIURL, logger)
	creds, err := signIn(ctx, authClient, store, login, logger)
	if err != nil {
		return err
	}

	// Initialize event publisher
	publisher := events.NewPublisher()

	conn := transport.NewClient(transport.Options{
		URL:         cfg.ServerURL,
		Token:       creds.Token,
		MaxRetries:  cfg.Reconnect.MaxRetries,
		BaseDelay:   cfg.Reconnect.BaseDelay,
		MaxDelay:    cfg.Reconnect.MaxDelay,
		DialTimeout: cfg.Reconnect.DialTimeout,
		WriteWait:   cfg.WriteWait,
		PongWait:    cfg.PongWait,
	}, logger)

	gm := manager.NewManager(
		creds.Identity,
		game.NewMachine(chess.NewRulesOracle()),
		conn,
		chess.NewClock(nil),
		publisher,
		logger,
	)

	app := &application{
		Auth:      auth.NewAPIKeyAuth(cfg.StatusAPIKeys),
		Logger:    logger,
		Config:    cfg,
		Publisher: publisher,
		Manager:   gm,
		Transport: conn,
		StartTime: time.Now(),
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := conn.Run(gctx)
		if errors.Is(err, transport.ErrRetriesExhausted) {
			// keep the session around so the last state stays visible
			logger.Error("game server unreachable", zap.Error(err))
			return nil
		}
		return err
	})
	g.Go(func() error { return gm.Run(gctx) })

	if cfg.StatusAddr != "" {
		g.Go(func() error { return app.serve(gctx) })
	}

	g.Go(func() error {
		err := app.repl(gctx, os.Stdin, os.Stdout)
		stop()
		return err
	})

	err = g.Wait()
	app.Logger.Info("All components shut down successfully")
	return err
}

func initLogger(debug bool) *zap.Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}
	// stdout belongs to the command loop
	cfg.OutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	return logger
}
