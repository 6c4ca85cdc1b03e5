package outsider

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/catalog"
)

var (
	ErrTooFewPlayers      = errors.New("at least three players required")
	ErrTooManyOutsiders   = errors.New("outsider count exceeds half the players")
	ErrBadCatalog         = errors.New("malformed secret catalog entry")
	ErrGameFinished       = errors.New("game already finished")
	ErrGameNotStarted     = errors.New("game not started")
	ErrGameInProgress     = errors.New("game already in progress")
	ErrUnknownPlayer      = errors.New("unknown player")
	ErrSelfVote           = errors.New("cannot vote for yourself")
	ErrVoteBudget         = errors.New("vote budget exhausted")
	ErrNotOutsider        = errors.New("only an outsider may guess the secret")
	ErrAlreadyGuessed     = errors.New("outsider guess already used")
	ErrNotHost            = errors.New("only the host may do that")
	ErrUnsupportedCommand = errors.New("unsupported command")
)

type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// Mode selects what the insiders share: a location with individual roles, or
// a single shared word.
type Mode string

const (
	ModeLocation Mode = "location"
	ModeWord     Mode = "word"
)

type Config struct {
	Outsiders int // k hidden roles
	Duration  time.Duration
	Mode      Mode
}

type Player struct {
	ID       string
	Name     string
	Outsider bool
	Role     string // empty for outsiders and in word mode
}

// Secret is the shared knowledge the outsiders miss.
type Secret struct {
	Location string
	Word     string
}

func (sec Secret) answer() string {
	if sec.Location != "" {
		return sec.Location
	}
	return sec.Word
}

// EndReason tags how the game settled.
type EndReason string

const (
	EndAllVoted EndReason = "all_voted"
	EndDeadline EndReason = "deadline"
	EndHostStop EndReason = "host_stop"
	EndGuess    EndReason = "guess"
)

type Outcome struct {
	Decided         bool
	Reason          EndReason
	OutsidersCaught bool
	GuessCorrect    bool
	OutsidersWon    bool
}

type State struct {
	Phase     Phase
	HostID    string
	Players   []Player
	Config    Config
	Secret    Secret
	StartedAt time.Time
	// Votes maps voter to currently cast targets; casting the same vote
	// twice retracts it.
	Votes     map[string][]string
	GuessUsed bool
	Outcome   Outcome
}

func NewState(hostID string, players []Player, cfg Config) (State, error) {
	if len(players) < 3 {
		return State{}, ErrTooFewPlayers
	}
	if cfg.Outsiders < 1 {
		cfg.Outsiders = 1
	}
	if cfg.Outsiders > len(players)/2 {
		return State{}, fmt.Errorf("%w: %d of %d", ErrTooManyOutsiders, cfg.Outsiders, len(players))
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeLocation
	}
	ps := make([]Player, len(players))
	copy(ps, players)
	return State{
		Phase:   PhaseWaiting,
		HostID:  hostID,
		Players: ps,
		Config:  cfg,
		Votes:   map[string][]string{},
	}, nil
}

type CommandType string

const (
	CmdStartGame  CommandType = "StartGame"
	CmdToggleVote CommandType = "ToggleVote"
	CmdGuess      CommandType = "Guess"
	CmdDeadline   CommandType = "Deadline"
	CmdHostStop   CommandType = "HostStop"
	CmdReset      CommandType = "Reset"
)

type Command struct {
	Type     CommandType
	PlayerID string
	TargetID string
	Guess    string
	Now      time.Time
	Seed     int64
	// Location backs ModeLocation setup; Word backs ModeWord.
	Location catalog.Location
	Word     string
}

type EventType string

const (
	EvtGameStarted  EventType = "GameStarted"
	EvtVoteCast     EventType = "VoteCast"
	EvtVoteRetract  EventType = "VoteRetracted"
	EvtGuessSettled EventType = "GuessSettled"
	EvtGameEnded    EventType = "GameEnded"
	EvtGameReset    EventType = "GameReset"
)

type Event struct {
	Type     EventType
	PlayerID string
	TargetID string
}

func Apply(s State, cmd Command) ([]Event, State, error) {
	switch cmd.Type {
	case CmdStartGame:
		return applyStart(s, cmd)
	case CmdToggleVote:
		return applyToggleVote(s, cmd)
	case CmdGuess:
		return applyGuess(s, cmd)
	case CmdDeadline:
		if s.Phase != PhasePlaying {
			return nil, s, ErrGameNotStarted
		}
		return settleByVotes(s, EndDeadline)
	case CmdHostStop:
		if s.Phase != PhasePlaying {
			return nil, s, ErrGameNotStarted
		}
		if cmd.PlayerID != s.HostID {
			return nil, s, ErrNotHost
		}
		return settleByVotes(s, EndHostStop)
	case CmdReset:
		return applyReset(s)
	default:
		return nil, s, ErrUnsupportedCommand
	}
}

// applyStart assigns exactly k outsiders and deals the shared secret to the
// rest. The assignment is a seeded shuffle so every client with the same
// seed derives the same roles.
func applyStart(s State, cmd Command) ([]Event, State, error) {
	if s.Phase == PhaseFinished {
		return nil, s, ErrGameFinished
	}
	if s.Phase != PhaseWaiting {
		return nil, s, ErrGameInProgress
	}
	// A secret the outsiders could trivially "guess" (empty word, nameless
	// location, no roles to deal) is rejected before anything is assigned.
	switch s.Config.Mode {
	case ModeWord:
		if normalize(cmd.Word) == "" {
			return nil, s, fmt.Errorf("%w: empty word", ErrBadCatalog)
		}
	default:
		if cmd.Location.Name == "" || len(cmd.Location.Roles) == 0 {
			return nil, s, fmt.Errorf("%w: location %q without roles", ErrBadCatalog, cmd.Location.Name)
		}
	}

	rng := rand.New(rand.NewSource(cmd.Seed))
	order := rng.Perm(len(s.Players))

	next := s
	next.Players = make([]Player, len(s.Players))
	copy(next.Players, s.Players)
	for i := range next.Players {
		next.Players[i].Outsider = false
		next.Players[i].Role = ""
	}
	for i := 0; i < s.Config.Outsiders; i++ {
		next.Players[order[i]].Outsider = true
	}

	switch s.Config.Mode {
	case ModeWord:
		next.Secret = Secret{Word: cmd.Word}
	default:
		next.Secret = Secret{Location: cmd.Location.Name}
		roles := cmd.Location.Roles
		r := 0
		for i := range next.Players {
			if next.Players[i].Outsider {
				continue
			}
			next.Players[i].Role = roles[r%len(roles)]
			r++
		}
	}

	next.Phase = PhasePlaying
	next.StartedAt = cmd.Now
	next.Votes = map[string][]string{}
	next.GuessUsed = false
	next.Outcome = Outcome{}
	return []Event{{Type: EvtGameStarted}}, next, nil
}

func applyToggleVote(s State, cmd Command) ([]Event, State, error) {
	if s.Phase == PhaseFinished {
		return nil, s, ErrGameFinished
	}
	if s.Phase != PhasePlaying {
		return nil, s, ErrGameNotStarted
	}
	if playerIndex(s.Players, cmd.PlayerID) < 0 || playerIndex(s.Players, cmd.TargetID) < 0 {
		return nil, s, ErrUnknownPlayer
	}
	if cmd.PlayerID == cmd.TargetID {
		return nil, s, ErrSelfVote
	}

	next := s
	next.Votes = cloneVotes(s.Votes)
	cast := next.Votes[cmd.PlayerID]

	for i, t := range cast {
		if t == cmd.TargetID {
			// Same vote again retracts it.
			next.Votes[cmd.PlayerID] = append(append([]string{}, cast[:i]...), cast[i+1:]...)
			return []Event{{Type: EvtVoteRetract, PlayerID: cmd.PlayerID, TargetID: cmd.TargetID}}, next, nil
		}
	}
	if len(cast) >= s.Config.Outsiders {
		return nil, s, ErrVoteBudget
	}
	next.Votes[cmd.PlayerID] = append(append([]string{}, cast...), cmd.TargetID)
	events := []Event{{Type: EvtVoteCast, PlayerID: cmd.PlayerID, TargetID: cmd.TargetID}}

	if allVotesIn(next) {
		var settled []Event
		var err error
		settled, next, err = settleByVotes(next, EndAllVoted)
		if err != nil {
			return nil, s, err
		}
		return append(events, settled...), next, nil
	}
	return events, next, nil
}

// applyGuess is the outsider's one-shot: a correct guess of the secret wins
// the game for the outsiders immediately, a wrong one loses it, and vote
// tallying never runs either way.
func applyGuess(s State, cmd Command) ([]Event, State, error) {
	if s.Phase == PhaseFinished {
		return nil, s, ErrGameFinished
	}
	if s.Phase != PhasePlaying {
		return nil, s, ErrGameNotStarted
	}
	idx := playerIndex(s.Players, cmd.PlayerID)
	if idx < 0 {
		return nil, s, ErrUnknownPlayer
	}
	if !s.Players[idx].Outsider {
		return nil, s, ErrNotOutsider
	}
	if s.GuessUsed {
		return nil, s, ErrAlreadyGuessed
	}

	correct := normalize(cmd.Guess) == normalize(s.Secret.answer())
	next := s
	next.GuessUsed = true
	next.Phase = PhaseFinished
	next.Outcome = Outcome{
		Decided:         true,
		Reason:          EndGuess,
		GuessCorrect:    correct,
		OutsidersWon:    correct,
		OutsidersCaught: !correct,
	}
	return []Event{
		{Type: EvtGuessSettled, PlayerID: cmd.PlayerID},
		{Type: EvtGameEnded},
	}, next, nil
}

func applyReset(s State) ([]Event, State, error) {
	next := s
	next.Phase = PhaseWaiting
	next.Secret = Secret{}
	next.StartedAt = time.Time{}
	next.Votes = map[string][]string{}
	next.GuessUsed = false
	next.Outcome = Outcome{}
	next.Players = make([]Player, len(s.Players))
	for i, p := range s.Players {
		next.Players[i] = Player{ID: p.ID, Name: p.Name}
	}
	return []Event{{Type: EvtGameReset}}, next, nil
}

// settleByVotes decides the non-guess outcomes. The outsiders are caught
// only if every one of them individually drew a vote count equal to the
// session-wide maximum; a tie at the top still counts as caught. With no
// votes cast at all, nobody was accused and the outsiders walk.
func settleByVotes(s State, reason EndReason) ([]Event, State, error) {
	counts := map[string]int{}
	for _, targets := range s.Votes {
		for _, t := range targets {
			counts[t]++
		}
	}
	maxVotes := 0
	for _, n := range counts {
		if n > maxVotes {
			maxVotes = n
		}
	}

	caught := maxVotes > 0
	for _, p := range s.Players {
		if p.Outsider && counts[p.ID] != maxVotes {
			caught = false
			break
		}
	}

	next := s
	next.Phase = PhaseFinished
	next.Outcome = Outcome{
		Decided:         true,
		Reason:          reason,
		OutsidersCaught: caught,
		OutsidersWon:    !caught,
	}
	return []Event{{Type: EvtGameEnded}}, next, nil
}

// VoteCounts tallies received votes per player, for the results payload.
func VoteCounts(s State) map[string]int {
	counts := map[string]int{}
	for _, targets := range s.Votes {
		for _, t := range targets {
			counts[t]++
		}
	}
	return counts
}

func allVotesIn(s State) bool {
	for _, p := range s.Players {
		if len(s.Votes[p.ID]) != s.Config.Outsiders {
			return false
		}
	}
	return true
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

func cloneVotes(votes map[string][]string) map[string][]string {
	out := make(map[string][]string, len(votes))
	for k, v := range votes {
		out[k] = append([]string{}, v...)
	}
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
