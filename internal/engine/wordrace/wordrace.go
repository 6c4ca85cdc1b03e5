package wordrace

import (
	"errors"
	"time"
)

var (
	ErrNoTeams            = errors.New("at least one team required")
	ErrGameInProgress     = errors.New("game already in progress")
	ErrRoundActive        = errors.New("round already active")
	ErrNoActiveRound      = errors.New("no active round")
	ErrNoSummary          = errors.New("no round summary to finish")
	ErrGameFinished       = errors.New("game already finished")
	ErrGameNotStarted     = errors.New("game not started")
	ErrBonusWordSkipped   = errors.New("bonus words cannot be skipped")
	ErrUnsupportedCommand = errors.New("unsupported command")
)

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// RoundStage is the nested round sub-state within PhasePlaying.
type RoundStage string

const (
	RoundIdle    RoundStage = "idle"
	RoundActive  RoundStage = "active"
	RoundSummary RoundStage = "summary"
)

const (
	// MaxPosition is the last board cell; reaching it wins the game.
	MaxPosition = 59
	// CardWidth is how many words each card carries. The word shown for a
	// card is cards[cardIndex][position mod CardWidth], so one deck serves
	// every board position without reshuffling.
	CardWidth = 5
)

// IsGoldenCell reports whether a board cell awards bonus words. Golden cells
// repeat every eighth cell starting at 7.
func IsGoldenCell(pos int) bool {
	return pos > 0 && pos%8 == 7
}

// Resolution tags how a consumed word was settled.
type Resolution string

const (
	ResolutionNormal   Resolution = "normal"
	ResolutionDeadline Resolution = "deadline"
	ResolutionGolden   Resolution = "golden"
)

type ConsumedWord struct {
	Word       string
	Correct    bool
	Resolution Resolution
}

type Team struct {
	Name     string
	Position int
}

// Round holds everything scoped to one active round. It is zeroed in full
// when the round ends, so a populated StartedAt always implies an active or
// summarized round and never leaks into the next one.
type Round struct {
	Stage        RoundStage
	StartedAt    time.Time
	BasePosition int
	Golden       bool
	FrozenWord   string
	Consumed     []ConsumedWord
}

type State struct {
	Phase      Phase
	Teams      []Team
	TurnCursor int
	Cards      [][]string
	CardIndex  int
	Round      Round
	Winner     int // team index, -1 while undecided
}

func NewState(teamNames []string, cards [][]string) (State, error) {
	if len(teamNames) == 0 {
		return State{}, ErrNoTeams
	}
	teams := make([]Team, len(teamNames))
	for i, name := range teamNames {
		teams[i] = Team{Name: name}
	}
	return State{
		Phase:  PhaseWaiting,
		Teams:  teams,
		Cards:  cards,
		Round:  Round{Stage: RoundIdle},
		Winner: -1,
	}, nil
}

// NewDeck groups a sampled word list into cards of CardWidth words.
// Words beyond the last full card are dropped.
func NewDeck(words []string) [][]string {
	deck := make([][]string, 0, len(words)/CardWidth)
	for i := 0; i+CardWidth <= len(words); i += CardWidth {
		card := make([]string, CardWidth)
		copy(card, words[i:i+CardWidth])
		deck = append(deck, card)
	}
	return deck
}

// CurrentWord is the deterministic reveal rule: the acting team's position
// indexes into the current card.
func CurrentWord(s State) string {
	if len(s.Cards) == 0 {
		return ""
	}
	card := s.Cards[s.CardIndex%len(s.Cards)]
	return card[s.Teams[s.TurnCursor].Position%CardWidth]
}

type CommandType string

const (
	CmdStartGame   CommandType = "StartGame"
	CmdStartRound  CommandType = "StartRound"
	CmdFreezeWord  CommandType = "FreezeWord"
	CmdMarkCorrect CommandType = "MarkCorrect"
	CmdMarkSkip    CommandType = "MarkSkip"
	CmdFinishRound CommandType = "FinishRound"
	CmdReset       CommandType = "Reset"
)

type Command struct {
	Type CommandType
	// Now stamps round starts; durations are always derived later as
	// now minus the stored stamp.
	Now time.Time
	// Word carries the frozen word for CmdFreezeWord.
	Word string
	// Deadline marks a correct/skip that settles the round because the
	// countdown expired.
	Deadline bool
	// DrinkingMode asks CmdFinishRound for the penalty payload when the
	// cursor wraps.
	DrinkingMode bool
}

type EventType string

const (
	EvtGameStarted  EventType = "GameStarted"
	EvtRoundStarted EventType = "RoundStarted"
	EvtWordFrozen   EventType = "WordFrozen"
	EvtWordScored   EventType = "WordScored"
	EvtWordSkipped  EventType = "WordSkipped"
	EvtRoundSummary EventType = "RoundSummary"
	EvtTurnAdvanced EventType = "TurnAdvanced"
	EvtGameWon      EventType = "GameWon"
	EvtDrinkTarget  EventType = "DrinkTarget"
	EvtGameReset    EventType = "GameReset"
)

type Event struct {
	Type     EventType
	Team     int
	Word     string
	Position int
}

// Apply runs one command against the state and returns the emitted events
// and the complete next state. On error the input state is returned
// unchanged; a transition never leaves a partially-updated state behind.
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdStartGame:
		return applyStartGame(s)
	case CmdStartRound:
		return applyStartRound(s, cmd)
	case CmdFreezeWord:
		return applyFreezeWord(s, cmd)
	case CmdMarkCorrect:
		return applyMark(s, cmd, true)
	case CmdMarkSkip:
		return applyMark(s, cmd, false)
	case CmdFinishRound:
		return applyFinishRound(s, cmd)
	case CmdReset:
		return applyReset(s)
	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func applyStartGame(s State) ([]Event, State, error) {
	if s.Phase == PhaseFinished {
		return nil, s, ErrGameFinished
	}
	if s.Phase != PhaseWaiting {
		return nil, s, ErrGameInProgress
	}
	next := s
	next.Phase = PhasePlaying
	return []Event{{Type: EvtGameStarted}}, next, nil
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

	pos := s.Teams[s.TurnCursor].Position
	next := s
	next.Round = Round{
		Stage:        RoundActive,
		StartedAt:    cmd.Now,
		BasePosition: pos,
		Golden:       IsGoldenCell(pos),
	}
	return []Event{{Type: EvtRoundStarted, Team: s.TurnCursor, Position: pos}}, next, nil
}

func applyFreezeWord(s State, cmd Command) ([]Event, State, error) {
	if s.Phase != PhasePlaying || s.Round.Stage != RoundActive {
		return nil, s, ErrNoActiveRound
	}
	// An already-frozen word is reused, never overwritten.
	if s.Round.FrozenWord != "" {
		return nil, s, nil
	}
	next := s
	next.Round.FrozenWord = cmd.Word
	return []Event{{Type: EvtWordFrozen, Word: cmd.Word}}, next, nil
}

func applyMark(s State, cmd Command, correct bool) ([]Event, State, error) {
	if s.Phase == PhaseFinished {
		return nil, s, ErrGameFinished
	}
	if s.Phase != PhasePlaying || s.Round.Stage != RoundActive {
		return nil, s, ErrNoActiveRound
	}
	if !correct && s.Round.Golden {
		return nil, s, ErrBonusWordSkipped
	}

	// On a deadline the scored word is the one frozen when time ran out,
	// not whatever the indexing rule would yield after the move.
	word := CurrentWord(s)
	if cmd.Deadline && s.Round.FrozenWord != "" {
		word = s.Round.FrozenWord
	}

	resolution := ResolutionNormal
	if cmd.Deadline {
		resolution = ResolutionDeadline
	} else if correct && s.Round.Golden {
		resolution = ResolutionGolden
	}

	next := s
	next.Teams = make([]Team, len(s.Teams))
	copy(next.Teams, s.Teams)
	team := &next.Teams[s.TurnCursor]
	if correct {
		team.Position = min(team.Position+1, MaxPosition)
	} else {
		team.Position = max(team.Position-1, 0)
	}

	consumed := make([]ConsumedWord, len(s.Round.Consumed), len(s.Round.Consumed)+1)
	copy(consumed, s.Round.Consumed)
	next.Round.Consumed = append(consumed, ConsumedWord{Word: word, Correct: correct, Resolution: resolution})

	if len(next.Cards) > 0 {
		next.CardIndex = (next.CardIndex + 1) % len(next.Cards)
	}
	next.Round.Golden = IsGoldenCell(team.Position)

	evtType := EvtWordSkipped
	if correct {
		evtType = EvtWordScored
	}
	events := []Event{{Type: evtType, Team: s.TurnCursor, Word: word, Position: team.Position}}

	if correct && team.Position == MaxPosition {
		next.Phase = PhaseFinished
		next.Winner = s.TurnCursor
		next.Round.Stage = RoundSummary
		events = append(events, Event{Type: EvtGameWon, Team: s.TurnCursor, Position: MaxPosition})
		return events, next, nil
	}

	if cmd.Deadline {
		next.Round.Stage = RoundSummary
		events = append(events, Event{Type: EvtRoundSummary, Team: s.TurnCursor})
	}
	return events, next, nil
}

func applyFinishRound(s State, cmd Command) ([]Event, State, error) {
	if s.Phase == PhaseFinished {
		return nil, s, ErrGameFinished
	}
	if s.Phase != PhasePlaying || s.Round.Stage != RoundSummary {
		return nil, s, ErrNoSummary
	}

	next := s
	next.Round = Round{Stage: RoundIdle}
	next.TurnCursor = (s.TurnCursor + 1) % len(s.Teams)

	events := []Event{{Type: EvtTurnAdvanced, Team: next.TurnCursor}}

	// On a full wrap with drinking mode enabled, the trailing team is named
	// as a celebration payload. Not a score change.
	if next.TurnCursor == 0 && cmd.DrinkingMode {
		target := 0
		for i, t := range next.Teams {
			if t.Position < next.Teams[target].Position {
				target = i
			}
		}
		events = append(events, Event{Type: EvtDrinkTarget, Team: target, Position: next.Teams[target].Position})
	}
	return events, next, nil
}

func applyReset(s State) ([]Event, State, error) {
	next := s
	next.Phase = PhaseWaiting
	next.TurnCursor = 0
	next.CardIndex = 0
	next.Winner = -1
	next.Round = Round{Stage: RoundIdle}
	next.Teams = make([]Team, len(s.Teams))
	for i, t := range s.Teams {
		next.Teams[i] = Team{Name: t.Name}
	}
	return []Event{{Type: EvtGameReset}}, next, nil
}
