package sketch

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrNoPlayers          = errors.New("at least two players required")
	ErrGameFinished       = errors.New("game already finished")
	ErrGameNotStarted     = errors.New("game not started")
	ErrGameInProgress     = errors.New("game already in progress")
	ErrRoundActive        = errors.New("round already active")
	ErrNoActiveRound      = errors.New("no active round")
	ErrNoSummary          = errors.New("no round summary to finish")
	ErrArtistGuess        = errors.New("artist cannot guess")
	ErrNotArtist          = errors.New("only the artist draws")
	ErrUnknownPlayer      = errors.New("unknown player")
	ErrUnsupportedCommand = errors.New("unsupported command")
)

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

type RoundStage string

const (
	RoundIdle    RoundStage = "idle"
	RoundActive  RoundStage = "active"
	RoundSummary RoundStage = "summary"
)

const (
	// WinScore ends the game for the first player to reach it.
	WinScore = 12
	// ArtistPoints is the fixed award to the artist when anyone guessed.
	ArtistPoints = 1
	// RoundSeconds is the drawing deadline.
	RoundSeconds = 60
)

// ScoreTier maps elapsed time since round start to the points a correct
// guess earns: 3 within the first 20s, then 2, then 1, nothing past the
// deadline. The tier is computed the moment the guess is judged, never
// recomputed later.
func ScoreTier(elapsed time.Duration) int {
	switch {
	case elapsed < 0:
		return 0
	case elapsed <= 20*time.Second:
		return 3
	case elapsed <= 40*time.Second:
		return 2
	case elapsed <= RoundSeconds*time.Second:
		return 1
	default:
		return 0
	}
}

// Normalize is the guess-matching rule: exact string match after trim and
// lowercase.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Stroke struct {
	Color  string  `json:"color"`
	Width  int     `json:"width"`
	Points []Point `json:"points"`
}

type Player struct {
	ID    string
	Name  string
	Score int
}

type Round struct {
	Stage     RoundStage
	Word      string
	StartedAt time.Time
	Strokes   []Stroke
	// Tiers holds each guesser's best scored tier this round; duplicate
	// correct submits keep the best one.
	Tiers    map[string]int
	WinnerID string // first correct guesser
}

type State struct {
	Phase      Phase
	Players    []Player
	TurnCursor int // artist index
	Round      Round
	WinnerID   string // game winner
}

func NewState(players []Player) (State, error) {
	if len(players) < 2 {
		return State{}, ErrNoPlayers
	}
	ps := make([]Player, len(players))
	copy(ps, players)
	return State{
		Phase:   PhaseWaiting,
		Players: ps,
		Round:   Round{Stage: RoundIdle},
	}, nil
}

type CommandType string

const (
	CmdStartGame   CommandType = "StartGame"
	CmdStartRound  CommandType = "StartRound"
	CmdAddStroke   CommandType = "AddStroke"
	CmdSubmitGuess CommandType = "SubmitGuess"
	CmdDeadline    CommandType = "Deadline"
	CmdFinishRound CommandType = "FinishRound"
	CmdReset       CommandType = "Reset"
)

type Command struct {
	Type     CommandType
	Word     string
	PlayerID string
	Guess    string
	Stroke   Stroke
	Now      time.Time
}

type EventType string

const (
	EvtGameStarted   EventType = "GameStarted"
	EvtRoundStarted  EventType = "RoundStarted"
	EvtStrokeAdded   EventType = "StrokeAdded"
	EvtGuessScored   EventType = "GuessScored"
	EvtArtistScored  EventType = "ArtistScored"
	EvtRoundSummary  EventType = "RoundSummary"
	EvtTurnAdvanced  EventType = "TurnAdvanced"
	EvtGameWon       EventType = "GameWon"
	EvtGameReset     EventType = "GameReset"
)

type Event struct {
	Type     EventType
	PlayerID string
	Points   int
}

func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdStartGame:
		if s.Phase == PhaseFinished {
			return nil, s, ErrGameFinished
		}
		if s.Phase != PhaseWaiting {
			return nil, s, ErrGameInProgress
		}
		next := s
		next.Phase = PhasePlaying
		return []Event{{Type: EvtGameStarted}}, next, nil

	case CmdStartRound:
		return applyStartRound(s, cmd)
	case CmdAddStroke:
		return applyAddStroke(s, cmd)
	case CmdSubmitGuess:
		return applySubmitGuess(s, cmd)
	case CmdDeadline:
		return applyDeadline(s)
	case CmdFinishRound:
		return applyFinishRound(s)
	case CmdReset:
		return applyReset(s)
	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func applyStartRound(s State, cmd Command) ([]Event, State, error) {
	if s.Phase == PhaseFinished {
		return nil, s, ErrGameFinished
	}
	if s.Phase != PhasePlaying {
		return nil, s, ErrGameNotStarted
	}
	if s.Round.Stage != RoundIdle {
		return nil, s, ErrRoundActive
	}
	next := s
	next.Round = Round{
		Stage:     RoundActive,
		Word:      cmd.Word,
		StartedAt: cmd.Now,
		Tiers:     map[string]int{},
	}
	return []Event{{Type: EvtRoundStarted, PlayerID: s.Players[s.TurnCursor].ID}}, next, nil
}

func applyAddStroke(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhasePlaying || s.Round.Stage != RoundActive {
		return nil, s, ErrNoActiveRound
	}
	if cmd.PlayerID != s.Players[s.TurnCursor].ID {
		return nil, s, ErrNotArtist
	}
	next := s
	strokes := make([]Stroke, len(s.Round.Strokes), len(s.Round.Strokes)+1)
	copy(strokes, s.Round.Strokes)
	next.Round.Strokes = append(strokes, cmd.Stroke)
	return []Event{{Type: EvtStrokeAdded, PlayerID: cmd.PlayerID}}, next, nil
}

func applySubmitGuess(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhasePlaying {
		return nil, s, ErrGameNotStarted
	}
	artist := s.Players[s.TurnCursor]
	if cmd.PlayerID == artist.ID {
		return nil, s, ErrArtistGuess
	}
	idx := playerIndex(s.Players, cmd.PlayerID)
	if idx < 0 {
		return nil, s, ErrUnknownPlayer
	}

	switch s.Round.Stage {
	case RoundActive:
		if Normalize(cmd.Guess) != Normalize(s.Round.Word) {
			return nil, s, nil // wrong guess, nothing changes
		}
		tier := ScoreTier(cmd.Now.Sub(s.Round.StartedAt))
		next := cloneForScoring(s)
		next.Round.Stage = RoundSummary
		next.Round.WinnerID = cmd.PlayerID
		next.Round.Tiers[cmd.PlayerID] = tier
		next.Players[idx].Score += tier

		events := []Event{
			{Type: EvtGuessScored, PlayerID: cmd.PlayerID, Points: tier},
		}
		if tier > 0 {
			next.Players[s.TurnCursor].Score += ArtistPoints
			events = append(events, Event{Type: EvtArtistScored, PlayerID: artist.ID, Points: ArtistPoints})
		}
		events = append(events, Event{Type: EvtRoundSummary})

		// First to cross the threshold wins; the guesser's points land
		// before the artist's within this transition.
		if next.Players[idx].Score >= WinScore {
			next.Phase = PhaseFinished
			next.WinnerID = cmd.PlayerID
			events = append(events, Event{Type: EvtGameWon, PlayerID: cmd.PlayerID})
		} else if next.Players[s.TurnCursor].Score >= WinScore {
			next.Phase = PhaseFinished
			next.WinnerID = artist.ID
			events = append(events, Event{Type: EvtGameWon, PlayerID: artist.ID})
		}
		return events, next, nil

	case RoundSummary:
		// Defensive against duplicate submits: the round winner keeps the
		// best tier among correct-equivalent guesses.
		if cmd.PlayerID != s.Round.WinnerID || Normalize(cmd.Guess) != Normalize(s.Round.Word) {
			return nil, s, ErrNoActiveRound
		}
		tier := ScoreTier(cmd.Now.Sub(s.Round.StartedAt))
		prev := s.Round.Tiers[cmd.PlayerID]
		if tier <= prev {
			return nil, s, nil
		}
		next := cloneForScoring(s)
		next.Round.Tiers[cmd.PlayerID] = tier
		next.Players[idx].Score += tier - prev
		events := []Event{{Type: EvtGuessScored, PlayerID: cmd.PlayerID, Points: tier - prev}}
		if prev == 0 {
			// The earlier duplicate scored nothing, so the artist award
			// was withheld; grant it now that a guesser scored.
			next.Players[s.TurnCursor].Score += ArtistPoints
			events = append(events, Event{Type: EvtArtistScored, PlayerID: artist.ID, Points: ArtistPoints})
		}
		if next.Players[idx].Score >= WinScore {
			next.Phase = PhaseFinished
			next.WinnerID = cmd.PlayerID
			events = append(events, Event{Type: EvtGameWon, PlayerID: cmd.PlayerID})
		}
		return events, next, nil

	default:
		return nil, s, ErrNoActiveRound
	}
}

func applyDeadline(s State) ([]Event, State, error) {
	if s.Phase != PhasePlaying || s.Round.Stage != RoundActive {
		return nil, s, ErrNoActiveRound
	}
	next := s
	next.Round.Stage = RoundSummary
	return []Event{{Type: EvtRoundSummary}}, next, nil
}

func applyFinishRound(s State) ([]Event, State, error) {
	if s.Phase == PhaseFinished {
		return nil, s, ErrGameFinished
	}
	if s.Phase != PhasePlaying || s.Round.Stage != RoundSummary {
		return nil, s, ErrNoSummary
	}
	next := s
	next.Round = Round{Stage: RoundIdle}
	next.TurnCursor = nextArtist(s.Players, s.TurnCursor)
	return []Event{{Type: EvtTurnAdvanced, PlayerID: next.Players[next.TurnCursor].ID}}, next, nil
}

func applyReset(s State) ([]Event, State, error) {
	next := s
	next.Phase = PhaseWaiting
	next.TurnCursor = 0
	next.WinnerID = ""
	next.Round = Round{Stage: RoundIdle}
	next.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		next.Players[i] = Player{ID: p.ID, Name: p.Name}
	}
	return []Event{{Type: EvtGameReset}}, next, nil
}

// nextArtist advances the rotation, skipping any seat whose identity is
// currently empty (a player who left mid-game leaves a hole).
func nextArtist(players []Player, cursor int) int {
	n := len(players)
	for step := 1; step <= n; step++ {
		i := (cursor + step) % n
		if players[i].ID != "" {
			return i
		}
	}
	return cursor
}

func playerIndex(players []Player, id string) int {
	if id == "" {
		return -1
	}
	for i, p := range players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func cloneForScoring(s State) State {
	next := s
	next.Players = make([]Player, len(s.Players))
	copy(next.Players, s.Players)
	tiers := make(map[string]int, len(s.Round.Tiers))
	for k, v := range s.Round.Tiers {
		tiers[k] = v
	}
	next.Round.Tiers = tiers
	return next
}
