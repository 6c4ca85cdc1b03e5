package codegrid

import (
	"errors"
	"math/rand"
	"time"
)

var (
	ErrGameFinished       = errors.New("game already finished")
	ErrGameNotStarted     = errors.New("game not started")
	ErrGameInProgress     = errors.New("game already in progress")
	ErrNoClue             = errors.New("no clue submitted this turn")
	ErrClueGiven          = errors.New("clue already submitted this turn")
	ErrBadCell            = errors.New("cell index out of range")
	ErrBadClueCount       = errors.New("clue count must be positive")
	ErrUnsupportedCommand = errors.New("unsupported command")
)

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

type Team string

const (
	TeamRed  Team = "red"
	TeamBlue Team = "blue"
)

func other(t Team) Team {
	if t == TeamRed {
		return TeamBlue
	}
	return TeamRed
}

type CellColor string

const (
	CellRed       CellColor = "red"
	CellBlue      CellColor = "blue"
	CellNeutral   CellColor = "neutral"
	CellForbidden CellColor = "forbidden"
)

const (
	BoardSize         = 25
	startingTeamCells = 9
	otherTeamCells    = 8
	neutralCells      = 7
)

func teamColor(t Team) CellColor {
	if t == TeamRed {
		return CellRed
	}
	return CellBlue
}

// NewKey lays out the 25-cell color key: 9 cells for the starting team, 8 for
// the other, 7 neutral and 1 forbidden, then Fisher-Yates shuffled with a
// seed derived from which team starts so every client that knows the seed
// derives the identical board.
func NewKey(starting Team, seed int64) [BoardSize]CellColor {
	var key [BoardSize]CellColor
	i := 0
	for n := 0; n < startingTeamCells; n++ {
		key[i] = teamColor(starting)
		i++
	}
	for n := 0; n < otherTeamCells; n++ {
		key[i] = teamColor(other(starting))
		i++
	}
	for n := 0; n < neutralCells; n++ {
		key[i] = CellNeutral
		i++
	}
	key[i] = CellForbidden

	mix := seed
	if starting == TeamBlue {
		mix = ^seed
	}
	rng := rand.New(rand.NewSource(mix))
	for j := BoardSize - 1; j > 0; j-- {
		k := rng.Intn(j + 1)
		key[j], key[k] = key[k], key[j]
	}
	return key
}

type State struct {
	Phase         Phase
	Words         [BoardSize]string
	Key           [BoardSize]CellColor
	Revealed      [BoardSize]bool
	Starting      Team
	Turn          Team
	Clue          string
	ClueGiven     bool
	GuessBudget   int
	TurnStartedAt time.Time
	Winner        Team // empty while undecided
}

func NewState(words [BoardSize]string, starting Team, seed int64) State {
	return State{
		Phase:    PhaseWaiting,
		Words:    words,
		Key:      NewKey(starting, seed),
		Starting: starting,
		Turn:     starting,
	}
}

// remaining re-derives a team's unrevealed cell count from the full board and
// revealed set. Counts are never maintained incrementally, so they cannot
// drift from the board.
func remaining(s State, color CellColor) int {
	n := 0
	for i := 0; i < BoardSize; i++ {
		if s.Key[i] == color && !s.Revealed[i] {
			n++
		}
	}
	return n
}

type CommandType string

const (
	CmdStartGame   CommandType = "StartGame"
	CmdSubmitClue  CommandType = "SubmitClue"
	CmdRevealCell  CommandType = "RevealCell"
	CmdEndTurn     CommandType = "EndTurn"
	CmdTimeExpired CommandType = "TimeExpired"
	CmdReset       CommandType = "Reset"
)

type Command struct {
	Type  CommandType
	Clue  string
	Count int
	Index int
	Now   time.Time
	Seed  int64 // used by CmdReset to lay out the next board
}

type EventType string

const (
	EvtGameStarted   EventType = "GameStarted"
	EvtClueSubmitted EventType = "ClueSubmitted"
	EvtCellRevealed  EventType = "CellRevealed"
	EvtTurnSwitched  EventType = "TurnSwitched"
	EvtGameWon       EventType = "GameWon"
	EvtGameReset     EventType = "GameReset"
)

type Event struct {
	Type  EventType
	Team  Team
	Index int
	Color CellColor
}

// Apply runs one command and returns emitted events plus the complete next
// state; on error the input state is unchanged.
func Apply(s State, cmd Command) ([]Event, State, error) {
	if s.Phase == PhaseFinished && cmd.Type != CmdReset {
		return nil, s, ErrGameFinished
	}

	switch cmd.Type {
	case CmdStartGame:
		if s.Phase != PhaseWaiting {
			return nil, s, ErrGameInProgress
		}
		next := s
		next.Phase = PhasePlaying
		return []Event{{Type: EvtGameStarted, Team: s.Turn}}, next, nil

	case CmdSubmitClue:
		if s.Phase != PhasePlaying {
			return nil, s, ErrGameNotStarted
		}
		if s.ClueGiven {
			return nil, s, ErrClueGiven
		}
		if cmd.Count < 1 {
			return nil, s, ErrBadClueCount
		}
		next := s
		next.Clue = cmd.Clue
		next.ClueGiven = true
		// One bonus guess beyond the stated count, by the game's rules.
		next.GuessBudget = cmd.Count + 1
		next.TurnStartedAt = cmd.Now
		return []Event{{Type: EvtClueSubmitted, Team: s.Turn}}, next, nil

	case CmdRevealCell:
		return applyReveal(s, cmd)

	case CmdEndTurn, CmdTimeExpired:
		// Voluntary or forced turn switch, always permitted while playing.
		if s.Phase != PhasePlaying {
			return nil, s, ErrGameNotStarted
		}
		next := switchTurn(s)
		return []Event{{Type: EvtTurnSwitched, Team: next.Turn}}, next, nil

	case CmdReset:
		next := NewState(s.Words, s.Starting, cmd.Seed)
		return []Event{{Type: EvtGameReset}}, next, nil

	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func applyReveal(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhasePlaying {
		return nil, s, ErrGameNotStarted
	}
	if !s.ClueGiven {
		return nil, s, ErrNoClue
	}
	if cmd.Index < 0 || cmd.Index >= BoardSize {
		return nil, s, ErrBadCell
	}
	if s.Revealed[cmd.Index] {
		// Already revealed: no-op, not an error.
		return nil, s, nil
	}

	next := s
	next.Revealed[cmd.Index] = true
	color := s.Key[cmd.Index]
	events := []Event{{Type: EvtCellRevealed, Team: s.Turn, Index: cmd.Index, Color: color}}

	switch color {
	case CellForbidden:
		// Instant loss, opposing team wins.
		next.Phase = PhaseFinished
		next.Winner = other(s.Turn)
		return append(events, Event{Type: EvtGameWon, Team: next.Winner}), next, nil

	case teamColor(s.Turn):
		next.GuessBudget--
		if remaining(next, color) == 0 {
			next.Phase = PhaseFinished
			next.Winner = s.Turn
			return append(events, Event{Type: EvtGameWon, Team: s.Turn}), next, nil
		}
		if next.GuessBudget <= 0 {
			next = switchTurn(next)
			events = append(events, Event{Type: EvtTurnSwitched, Team: next.Turn})
		}
		return events, next, nil

	default:
		// Neutral or the other team's color: the guessing turn ends. The
		// cell stays revealed for both sides, its color is common knowledge
		// once touched.
		if color == teamColor(other(s.Turn)) && remaining(next, color) == 0 {
			// Handing the opponent their last cell finishes the game for them.
			next.Phase = PhaseFinished
			next.Winner = other(s.Turn)
			return append(events, Event{Type: EvtGameWon, Team: next.Winner}), next, nil
		}
		next = switchTurn(next)
		return append(events, Event{Type: EvtTurnSwitched, Team: next.Turn}), next, nil
	}
}

func switchTurn(s State) State {
	next := s
	next.Turn = other(s.Turn)
	next.Clue = ""
	next.ClueGiven = false
	next.GuessBudget = 0
	next.TurnStartedAt = time.Time{}
	return next
}
