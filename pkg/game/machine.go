package game

import (
	"fmt"

	"github.com/tecu23/gochess-client/pkg/chess"
	"github.com/tecu23/gochess-client/pkg/messages"
)

// Oracle validates a move against a position and returns the resulting
// position and the move actually played.
type Oracle interface {
	Apply(position string, move chess.Move) (string, chess.Move, error)
}

// Machine is the session transition function. It owns no state; callers keep
// the current State and feed every event through Apply one at a time.
type Machine struct {
	oracle Oracle
}

func NewMachine(oracle Oracle) *Machine {
	return &Machine{oracle: oracle}
}

// Apply returns the state after ev together with the effects to run. A
// non-nil error means ev was rejected; the returned state then equals s
// apart from bookkeeping flags, and the effects still have to run since they
// carry the notice for the user.
func (m *Machine) Apply(s State, ev Event) (State, []Effect, error) {
	switch e := ev.(type) {
	case SelectGame:
		return m.selectGame(s, e)
	case CancelSeek:
		return m.cancelSeek(s)
	case AttemptMove:
		return m.attemptMove(s, e)
	case Resign:
		return m.resign(s)
	case NewGame:
		return m.newGame(s)
	case WaitingForOpponent:
		return m.waitingForOpponent(s)
	case GameFound:
		return m.gameFound(s, e)
	case MoveMade:
		return m.moveMade(s, e)
	case BoardState:
		return m.boardState(s, e)
	case TimeUpdate:
		return m.timeUpdate(s, e)
	case GameOver:
		return m.gameOver(s, e)
	case ServerError:
		return m.serverError(s, e)
	case ConnectionChanged:
		s.Connected = e.Connected
		return s, nil, nil
	case Tick:
		return m.tick(s)
	default:
		return s, nil, fmt.Errorf("%w: unsupported event %T", ErrInvalidTransition, ev)
	}
}

func (m *Machine) selectGame(s State, e SelectGame) (State, []Effect, error) {
	switch {
	case s.Phase == PhaseFinished:
		return reject(s, NoticeWarning, "Start a new game first", ErrInvalidTransition)
	case s.Phase != PhaseIdle:
		return reject(s, NoticeWarning, "Already searching or playing", ErrInvalidTransition)
	case !e.Type.Valid():
		return reject(s, NoticeError, "Unknown game type", fmt.Errorf("%w: %q", ErrInvalidGameType, e.Type))
	case !s.Connected:
		return reject(s, NoticeError, "Not connected to game server", ErrNotConnected)
	}

	s.Phase = PhaseSeeking
	s.GameType = e.Type
	s.LeaveRequested = false

	return s, []Effect{
		Send{Message: messages.JoinGame(string(e.Type))},
		Notice{Level: NoticeInfo, Text: fmt.Sprintf("Searching for a %s game...", e.Type)},
	}, nil
}

func (m *Machine) cancelSeek(s State) (State, []Effect, error) {
	if s.Phase != PhaseSeeking {
		return reject(s, NoticeWarning, "Not searching for a game", ErrInvalidTransition)
	}
	if !s.Connected {
		return reject(s, NoticeError, "Not connected to game server", ErrNotConnected)
	}

	s.Phase = PhaseIdle
	s.LeaveRequested = true

	return s, []Effect{
		Send{Message: messages.StopWaiting(string(s.GameType))},
		Notice{Level: NoticeInfo, Text: "Search cancelled"},
	}, nil
}

func (m *Machine) waitingForOpponent(s State) (State, []Effect, error) {
	if s.Phase == PhaseSeeking || (s.Phase == PhaseIdle && s.LeaveRequested) {
		return s, nil, nil
	}
	return unexpected(s, messages.EventWaitingForOpponent)
}

func (m *Machine) gameFound(s State, e GameFound) (State, []Effect, error) {
	lateMatch := s.Phase == PhaseIdle && s.LeaveRequested
	if s.Phase != PhaseSeeking && !lateMatch {
		return unexpected(s, messages.EventGameFound)
	}
	if e.GameID == "" || !e.OpponentColor.Valid() {
		return reject(s, NoticeError, "Received an invalid game from the server",
			fmt.Errorf("%w: game_found without game id or opponent color", ErrProtocol))
	}

	identity := s.Local.Identity
	if e.LocalIdentity != "" {
		identity = e.LocalIdentity
	}
	duration := s.GameType.Duration()

	next := State{
		Phase:     PhaseInProgress,
		GameType:  s.GameType,
		GameID:    e.GameID,
		Position:  chess.StartingFEN,
		Turn:      chess.White,
		Connected: s.Connected,
		Local: Player{
			Identity:         identity,
			Color:            e.OpponentColor.Opp(),
			RemainingSeconds: duration,
		},
		Remote: Player{
			Identity:         e.OpponentIdentity,
			Color:            e.OpponentColor,
			RemainingSeconds: duration,
		},
	}

	return next, []Effect{
		StartClock{},
		Notice{
			Level: NoticeSuccess,
			Text:  fmt.Sprintf("Game found! You play %s against %s", next.Local.Color, displayName(e.OpponentIdentity)),
		},
	}, nil
}

func (m *Machine) attemptMove(s State, e AttemptMove) (State, []Effect, error) {
	switch {
	case s.Phase != PhaseInProgress:
		return s, nil, ErrBoardInactive
	case !s.Connected:
		return reject(s, NoticeError, "Not connected to game server", ErrNotConnected)
	case !s.IsLocalTurn():
		return reject(s, NoticeWarning, "Not your turn", ErrNotYourTurn)
	case s.Synchronizing:
		return reject(s, NoticeWarning, "Synchronizing with server, please wait", ErrSynchronizing)
	}

	position, played, err := m.oracle.Apply(s.Position, e.Move)
	if err != nil {
		return reject(s, NoticeWarning, "Illegal move", fmt.Errorf("%w: %s: %v", ErrIllegalMove, e.Move, err))
	}
	turn, err := chess.TurnFromFEN(position)
	if err != nil {
		return reject(s, NoticeError, "Illegal move", fmt.Errorf("%w: %v", ErrIllegalMove, err))
	}

	s.Position = position
	s.Turn = turn
	s.PendingMove = played.String()

	return s, []Effect{
		Send{Message: messages.MakeMove(s.GameID, played.String())},
		StartClock{},
	}, nil
}

func (m *Machine) moveMade(s State, e MoveMade) (State, []Effect, error) {
	if s.Phase == PhaseFinished {
		// late broadcast after a local resignation
		return s, nil, nil
	}
	if s.Phase != PhaseInProgress {
		return unexpected(s, messages.EventMoveMade)
	}

	if e.FEN != "" {
		return m.replacePosition(s, e.FEN, e.Times)
	}

	if e.Move == "" {
		if e.Times == nil {
			return unexpected(s, messages.EventMoveMade)
		}
		s = withTimes(s, *e.Times)
		return s, nil, nil
	}

	if s.Synchronizing {
		// a full board state is on its way
		return s, nil, nil
	}

	if s.PendingMove != "" {
		if e.Move != s.PendingMove {
			return m.resync(s, fmt.Errorf("%w: sent %s, server played %s", ErrDiverged, s.PendingMove, e.Move))
		}
		s.PendingMove = ""
		if e.Times != nil {
			s = withTimes(s, *e.Times)
		}
		return s, []Effect{StartClock{}}, nil
	}

	move, err := chess.ParseMove(e.Move)
	if err != nil {
		return m.resync(s, fmt.Errorf("%w: %v", ErrDiverged, err))
	}
	position, _, err := m.oracle.Apply(s.Position, move)
	if err != nil {
		return m.resync(s, fmt.Errorf("%w: %s does not apply: %v", ErrDiverged, e.Move, err))
	}
	turn, err := chess.TurnFromFEN(position)
	if err != nil {
		return m.resync(s, fmt.Errorf("%w: %v", ErrDiverged, err))
	}
	if e.Turn.Valid() && e.Turn != turn {
		return m.resync(s, fmt.Errorf("%w: server says %s to move, local board says %s", ErrDiverged, e.Turn, turn))
	}

	s.Position = position
	s.Turn = turn
	if e.Times != nil {
		s = withTimes(s, *e.Times)
	}

	return s, []Effect{StartClock{}}, nil
}

func (m *Machine) boardState(s State, e BoardState) (State, []Effect, error) {
	if s.Phase == PhaseFinished {
		return s, nil, nil
	}
	if s.Phase != PhaseInProgress {
		return unexpected(s, messages.EventBoardStateUpdate)
	}
	return m.replacePosition(s, e.FEN, e.Times)
}

// replacePosition installs an authoritative position verbatim
func (m *Machine) replacePosition(s State, fen string, times *Times) (State, []Effect, error) {
	turn, err := chess.TurnFromFEN(fen)
	if err != nil {
		return reject(s, NoticeError, "Received an invalid board from the server",
			fmt.Errorf("%w: %v", ErrProtocol, err))
	}

	wasSyncing := s.Synchronizing
	s.Position = fen
	s.Turn = turn
	s.PendingMove = ""
	s.Synchronizing = false
	if times != nil {
		s = withTimes(s, *times)
	}

	effects := []Effect{StartClock{}}
	if wasSyncing {
		effects = append(effects, Notice{Level: NoticeSuccess, Text: "Board synchronized"})
	}
	return s, effects, nil
}

func (m *Machine) timeUpdate(s State, e TimeUpdate) (State, []Effect, error) {
	if s.Phase != PhaseInProgress {
		return s, nil, nil
	}
	return withTimes(s, e.Times), nil, nil
}

func (m *Machine) resign(s State) (State, []Effect, error) {
	if s.Phase != PhaseInProgress {
		return reject(s, NoticeWarning, "No game in progress", ErrInvalidTransition)
	}
	if !s.Connected {
		return reject(s, NoticeError, "Not connected to game server", ErrNotConnected)
	}

	s.Phase = PhaseFinished
	s.Result = ResultLoss
	s.ResultConfirmed = false
	s.Reason = "resignation"
	s.PendingMove = ""
	s.Synchronizing = false

	return s, []Effect{
		Send{Message: messages.ResignGame(s.GameID)},
		StopClock{},
		Notice{Level: NoticeInfo, Text: "You resigned"},
	}, nil
}

func (m *Machine) gameOver(s State, e GameOver) (State, []Effect, error) {
	if s.Phase == PhaseFinished && s.ResultConfirmed {
		return s, nil, nil
	}
	if s.Phase != PhaseInProgress && s.Phase != PhaseFinished {
		return unexpected(s, messages.EventGameOver)
	}

	s.Phase = PhaseFinished
	s.Result = resultFor(s, e.Winner)
	s.ResultConfirmed = true
	s.Reason = e.Reason
	s.PendingMove = ""
	s.Synchronizing = false
	if e.FinalPosition != "" {
		if turn, err := chess.TurnFromFEN(e.FinalPosition); err == nil {
			s.Position = e.FinalPosition
			s.Turn = turn
		}
	}

	return s, []Effect{
		StopClock{},
		Notice{Level: NoticeInfo, Text: resultText(s.Result, s.Reason)},
	}, nil
}

func (m *Machine) newGame(s State) (State, []Effect, error) {
	if s.Phase != PhaseFinished && s.Phase != PhaseIdle {
		return reject(s, NoticeWarning, "Finish the current game first", ErrInvalidTransition)
	}

	next := NewState(s.Local.Identity)
	next.Connected = s.Connected

	return next, []Effect{StopClock{}}, nil
}

func (m *Machine) serverError(s State, e ServerError) (State, []Effect, error) {
	effects := []Effect{Notice{Level: NoticeError, Text: e.Message}}
	if s.Phase != PhaseInProgress || s.PendingMove == "" {
		return s, effects, nil
	}

	next, more, err := m.resync(s, fmt.Errorf("%w: server rejected %s: %s", ErrDiverged, s.PendingMove, e.Message))
	return next, append(effects, more...), err
}

func (m *Machine) tick(s State) (State, []Effect, error) {
	if s.Phase != PhaseInProgress {
		return s, []Effect{StopClock{}}, nil
	}

	active := s.player(s.Turn)
	if active == nil {
		return s, nil, nil
	}
	if active.RemainingSeconds > 0 {
		active.RemainingSeconds--
	}
	if active.RemainingSeconds == 0 {
		// the server decides the outcome; the display just stays at zero
		return s, []Effect{StopClock{}}, nil
	}

	return s, nil, nil
}

// resync asks the server for the full board. While a request is outstanding
// further divergences are swallowed.
func (m *Machine) resync(s State, cause error) (State, []Effect, error) {
	if s.Synchronizing {
		return s, nil, nil
	}

	s.Synchronizing = true
	s.PendingMove = ""

	return s, []Effect{
		Send{Message: messages.RequestBoardState(s.GameID)},
		Notice{Level: NoticeWarning, Text: "Synchronizing with server..."},
	}, cause
}

func reject(s State, level NoticeLevel, text string, err error) (State, []Effect, error) {
	return s, []Effect{Notice{Level: level, Text: text}}, err
}

func unexpected(s State, event string) (State, []Effect, error) {
	return s, nil, fmt.Errorf("%w: %s while %s", ErrProtocol, event, s.Phase)
}

func withTimes(s State, t Times) State {
	if p := s.player(chess.White); p != nil {
		p.RemainingSeconds = max(t.White, 0)
	}
	if p := s.player(chess.Black); p != nil {
		p.RemainingSeconds = max(t.Black, 0)
	}
	return s
}

// resultFor compares the winner against opaque identities only
func resultFor(s State, winner string) Result {
	switch {
	case winner == "":
		return ResultDraw
	case s.Local.Identity != "" && winner == s.Local.Identity:
		return ResultWin
	default:
		return ResultLoss
	}
}

func resultText(r Result, reason string) string {
	var text string
	switch r {
	case ResultWin:
		text = "You won!"
	case ResultLoss:
		text = "You lost"
	default:
		text = "Draw"
	}
	if reason != "" {
		text += " (" + reason + ")"
	}
	return text
}

func displayName(identity string) string {
	if identity == "" {
		return "an opponent"
	}
	return identity
}
