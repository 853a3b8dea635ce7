package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/tecu23/gochess-client/pkg/chess"
	"github.com/tecu23/gochess-client/pkg/events"
	"github.com/tecu23/gochess-client/pkg/game"
	"github.com/tecu23/gochess-client/pkg/manager"
)

const helpText = `commands:
  play <bullet|blitz|rapid>   look for an opponent
  cancel                      stop looking
  move <e2e4|e7e8q>           play a move (the bare move works too)
  resign                      give up the current game
  new                         back to the lobby after a game
  state                       show the board and clocks
  quit                        leave`

type commandKind int

const (
	cmdHelp commandKind = iota
	cmdPlay
	cmdCancel
	cmdMove
	cmdResign
	cmdNew
	cmdState
	cmdQuit
)

type command struct {
	kind     commandKind
	gameType game.GameType
	move     chess.Move
}

var errUsage = errors.New("unknown command, type help")

// parseCommand reads one input line
func parseCommand(line string) (command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return command{}, errUsage
	}

	verb, args := fields[0], fields[1:]
	switch verb {
	case "help", "?":
		return command{kind: cmdHelp}, nil
	case "play":
		if len(args) != 1 {
			return command{}, errors.New("usage: play <bullet|blitz|rapid>")
		}
		gt, err := game.ParseGameType(args[0])
		if err != nil {
			return command{}, err
		}
		return command{kind: cmdPlay, gameType: gt}, nil
	case "cancel":
		return command{kind: cmdCancel}, nil
	case "move", "mv":
		if len(args) != 1 {
			return command{}, errors.New("usage: move <e2e4>")
		}
		mv, err := chess.ParseMove(args[0])
		if err != nil {
			return command{}, err
		}
		return command{kind: cmdMove, move: mv}, nil
	case "resign":
		return command{kind: cmdResign}, nil
	case "new":
		return command{kind: cmdNew}, nil
	case "state", "board":
		return command{kind: cmdState}, nil
	case "quit", "exit":
		return command{kind: cmdQuit}, nil
	}

	if len(args) == 0 {
		if mv, err := chess.ParseMove(verb); err == nil {
			return command{kind: cmdMove, move: mv}, nil
		}
	}
	return command{}, errUsage
}

// lockedWriter serializes output from the command loop and the session goroutine
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) printf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format, args...)
}

// repl runs the command loop until quit, EOF or ctx is done
func (app *application) repl(ctx context.Context, in io.Reader, w io.Writer) error {
	out := &lockedWriter{w: w}

	unsubscribeNotices := app.Publisher.Subscribe(events.EventNotice, func(e events.Event) {
		if n, ok := e.Payload.(game.Notice); ok {
			out.printf("[%s] %s\n", n.Level, n.Text)
		}
	})
	defer unsubscribeNotices()

	var last boardKey
	unsubscribeState := app.Publisher.Subscribe(events.EventStateChanged, func(e events.Event) {
		s, ok := e.Payload.(game.State)
		if !ok || s.Phase == game.PhaseIdle || s.Phase == game.PhaseSeeking {
			return
		}
		if key := keyOf(s); key != last {
			last = key
			out.printf("%s", renderState(s))
		}
	})
	defer unsubscribeState()

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	out.printf("%s\n", helpText)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if strings.TrimSpace(line) == "" {
				continue
			}

			cmd, err := parseCommand(line)
			if err != nil {
				out.printf("%v\n", err)
				continue
			}
			if cmd.kind == cmdQuit {
				return nil
			}
			if err := app.execute(ctx, cmd, out); errors.Is(err, manager.ErrClosed) {
				return nil
			}
		}
	}
}

func (app *application) execute(ctx context.Context, cmd command, out *lockedWriter) error {
	var err error
	switch cmd.kind {
	case cmdHelp:
		out.printf("%s\n", helpText)
	case cmdState:
		out.printf("%s", renderState(app.Manager.Snapshot()))
	case cmdPlay:
		err = app.Manager.SelectGame(ctx, cmd.gameType)
	case cmdCancel:
		err = app.Manager.CancelSeek(ctx)
	case cmdMove:
		err = app.Manager.Move(ctx, cmd.move)
	case cmdResign:
		err = app.Manager.Resign(ctx)
	case cmdNew:
		err = app.Manager.NewGame(ctx)
	}

	// rejections already reached the user as notices
	if err != nil {
		app.Logger.Debug("command not applied", zap.Error(err))
	}
	return err
}
