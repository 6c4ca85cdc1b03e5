package session

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"

	"github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/store"
)

// Status is the session lifecycle. Finished is terminal: the only legal move
// out of it is a full reset back to lobby.
type Status string

const (
	StatusLobby    Status = "lobby"
	StatusSetup    Status = "setup"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Valid reports whether s is one of the lifecycle statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusLobby, StatusSetup, StatusPlaying, StatusFinished:
		return true
	}
	return false
}

// Top-level document fields. Everything the concurrency protocol needs to
// guard is addressed by name so each game can keep its own board fields
// alongside without the protocol knowing about them.
const (
	FieldGame           = "game"
	FieldStatus         = "status"
	FieldHostID         = "hostId"
	FieldParticipants   = "participants"
	FieldTurnCursor     = "turnCursor"
	FieldRoundActive    = "roundActive"
	FieldRoundStartedAt = "roundStartedAt"
	FieldSummaryShown   = "summaryShown"
	FieldFrozenWord     = "frozenWord"
)

// Game identifiers as stored in FieldGame.
const (
	GameWordRace = "wordrace"
	GameCodeGrid = "codegrid"
	GameSketch   = "sketch"
	GameOutsider = "outsider"
)

type Participant struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Team  string `json:"team,omitempty"`
	Score int    `json:"score"`
}

func NewParticipant(name string) Participant {
	return Participant{ID: uuid.NewString(), Name: name}
}

// NewDocument builds a fresh lobby document for one game instance.
func NewDocument(game string, host Participant) store.Document {
	return store.Document{
		FieldGame:           game,
		FieldStatus:         string(StatusLobby),
		FieldHostID:         host.ID,
		FieldParticipants:   ParticipantsValue([]Participant{host}),
		FieldTurnCursor:     0,
		FieldRoundActive:    false,
		FieldRoundStartedAt: "",
		FieldSummaryShown:   false,
	}
}

const codeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewCode returns a 6-character human-typable session code.
func NewCode() (string, error) {
	code := make([]byte, 6)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[num.Int64()]
	}
	return string(code), nil
}

// GetStatus reads the lifecycle status, defaulting to lobby on a missing or
// malformed field.
func GetStatus(doc store.Document) Status {
	if s, ok := doc[FieldStatus].(string); ok {
		return Status(s)
	}
	return StatusLobby
}

func GetTurnCursor(doc store.Document) int {
	n, _ := AsInt(doc[FieldTurnCursor])
	return n
}

func RoundActive(doc store.Document) bool {
	b, _ := doc[FieldRoundActive].(bool)
	return b
}

func SummaryShown(doc store.Document) bool {
	b, _ := doc[FieldSummaryShown].(bool)
	return b
}

func FrozenWord(doc store.Document) string {
	s, _ := doc[FieldFrozenWord].(string)
	return s
}

// Participants decodes the participant list. Both in-memory writes and JSON
// round trips through postgres land here, so values may be maps of either
// number flavor.
func Participants(doc store.Document) []Participant {
	raw, ok := doc[FieldParticipants].([]any)
	if !ok {
		return nil
	}
	out := make([]Participant, 0, len(raw))
	for _, e := range raw {
		m, ok := e.(map[string]any)
		if !ok {
			continue
		}
		p := Participant{}
		p.ID, _ = m["id"].(string)
		p.Name, _ = m["name"].(string)
		p.Team, _ = m["team"].(string)
		p.Score, _ = AsInt(m["score"])
		out = append(out, p)
	}
	return out
}

// ParticipantsValue encodes participants as the []any-of-maps shape a JSON
// round trip produces, so both store implementations hold identical values.
func ParticipantsValue(ps []Participant) []any {
	out := make([]any, len(ps))
	for i, p := range ps {
		m := map[string]any{
			"id":    p.ID,
			"name":  p.Name,
			"score": p.Score,
		}
		if p.Team != "" {
			m["team"] = p.Team
		}
		out[i] = m
	}
	return out
}

// AsInt normalizes the numeric types a document value can carry.
func AsInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}
