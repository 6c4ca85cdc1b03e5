package sketch

import (
	"errors"
	"testing"
	"time"
)

var roundStart = time.Unix(5000, 0)

func testPlayers() []Player {
	return []Player{
		{ID: "p1", Name: "artist"},
		{ID: "p2", Name: "guesser"},
		{ID: "p3", Name: "other"},
	}
}

func activeRound(t *testing.T, players []Player) State {
	t.Helper()
	s, err := NewState(players)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	_, s, err = Apply(s, Command{Type: CmdStartGame})
	if err != nil {
		t.Fatalf("start game: %v", err)
	}
	_, s, err = Apply(s, Command{Type: CmdStartRound, Word: "Banana", Now: roundStart})
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	return s
}

func playerScore(s State, id string) int {
	for _, p := range s.Players {
		if p.ID == id {
			return p.Score
		}
	}
	return -1
}

func TestScoreTierBoundaries(t *testing.T) {
	cases := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 3},
		{15 * time.Second, 3},
		{20 * time.Second, 3},
		{21 * time.Second, 2},
		{40 * time.Second, 2},
		{41 * time.Second, 1},
		{60 * time.Second, 1},
		{61 * time.Second, 0},
		{-1 * time.Second, 0},
	}
	for _, tc := range cases {
		if got := ScoreTier(tc.elapsed); got != tc.want {
			t.Fatalf("ScoreTier(%v): got %d, want %d", tc.elapsed, got, tc.want)
		}
	}
}

func TestCorrectGuessAtFifteenSeconds(t *testing.T) {
	s := activeRound(t, testPlayers())

	events, s, err := Apply(s, Command{
		Type:     CmdSubmitGuess,
		PlayerID: "p2",
		Guess:    "  banana ", // trim+lowercase must match
		Now:      roundStart.Add(15 * time.Second),
	})
	if err != nil {
		t.Fatalf("guess: %v", err)
	}

	if got := playerScore(s, "p2"); got != 3 {
		t.Fatalf("guesser score: got %d, want 3", got)
	}
	if got := playerScore(s, "p1"); got != ArtistPoints {
		t.Fatalf("artist score: got %d, want %d", got, ArtistPoints)
	}
	if s.Round.Stage != RoundSummary {
		t.Fatalf("round should end on the first correct guess")
	}
	if s.Round.WinnerID != "p2" {
		t.Fatalf("round winner: got %q, want p2", s.Round.WinnerID)
	}

	var scored, artist bool
	for _, e := range events {
		switch e.Type {
		case EvtGuessScored:
			scored = e.PlayerID == "p2" && e.Points == 3
		case EvtArtistScored:
			artist = e.PlayerID == "p1"
		}
	}
	if !scored || !artist {
		t.Fatalf("missing scoring events: %+v", events)
	}
}

func TestWrongGuessChangesNothing(t *testing.T) {
	s := activeRound(t, testPlayers())
	events, next, err := Apply(s, Command{
		Type: CmdSubmitGuess, PlayerID: "p2", Guess: "apple", Now: roundStart.Add(time.Second),
	})
	if err != nil || events != nil {
		t.Fatalf("wrong guess should be silent, got events=%v err=%v", events, err)
	}
	if next.Round.Stage != RoundActive || playerScore(next, "p2") != 0 {
		t.Fatalf("wrong guess mutated state")
	}
}

func TestArtistCannotGuess(t *testing.T) {
	s := activeRound(t, testPlayers())
	_, _, err := Apply(s, Command{Type: CmdSubmitGuess, PlayerID: "p1", Guess: "banana", Now: roundStart})
	if !errors.Is(err, ErrArtistGuess) {
		t.Fatalf("want ErrArtistGuess, got %v", err)
	}
}

func TestOnlyArtistDraws(t *testing.T) {
	s := activeRound(t, testPlayers())
	stroke := Stroke{Color: "#000", Width: 2, Points: []Point{{X: 1, Y: 1}, {X: 2, Y: 2}}}

	if _, _, err := Apply(s, Command{Type: CmdAddStroke, PlayerID: "p2", Stroke: stroke}); !errors.Is(err, ErrNotArtist) {
		t.Fatalf("want ErrNotArtist, got %v", err)
	}

	_, s, err := Apply(s, Command{Type: CmdAddStroke, PlayerID: "p1", Stroke: stroke})
	if err != nil {
		t.Fatalf("artist stroke: %v", err)
	}
	if len(s.Round.Strokes) != 1 {
		t.Fatalf("stroke not recorded: %+v", s.Round.Strokes)
	}
}

func TestDuplicateSubmitKeepsBestTier(t *testing.T) {
	s := activeRound(t, testPlayers())

	// First correct judged late (tier 1) — say the submit was delayed.
	_, s, err := Apply(s, Command{
		Type: CmdSubmitGuess, PlayerID: "p2", Guess: "banana", Now: roundStart.Add(50 * time.Second),
	})
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if playerScore(s, "p2") != 1 {
		t.Fatalf("first judged tier should be 1, got %d", playerScore(s, "p2"))
	}

	// The duplicate carries the original earlier timestamp and a better tier.
	_, s, err = Apply(s, Command{
		Type: CmdSubmitGuess, PlayerID: "p2", Guess: "banana", Now: roundStart.Add(10 * time.Second),
	})
	if err != nil {
		t.Fatalf("duplicate guess: %v", err)
	}
	if playerScore(s, "p2") != 3 {
		t.Fatalf("best tier should stick, got %d", playerScore(s, "p2"))
	}

	// A worse duplicate must not downgrade.
	_, s, err = Apply(s, Command{
		Type: CmdSubmitGuess, PlayerID: "p2", Guess: "banana", Now: roundStart.Add(55 * time.Second),
	})
	if err != nil {
		t.Fatalf("worse duplicate: %v", err)
	}
	if playerScore(s, "p2") != 3 {
		t.Fatalf("worse duplicate downgraded the tier to %d", playerScore(s, "p2"))
	}

	// Another player cannot piggyback on the ended round.
	if _, _, err := Apply(s, Command{
		Type: CmdSubmitGuess, PlayerID: "p3", Guess: "banana", Now: roundStart.Add(12 * time.Second),
	}); !errors.Is(err, ErrNoActiveRound) {
		t.Fatalf("want ErrNoActiveRound for non-winner, got %v", err)
	}
}

func TestDeadlineEndsRoundWithoutScores(t *testing.T) {
	s := activeRound(t, testPlayers())
	_, s, err := Apply(s, Command{Type: CmdDeadline})
	if err != nil {
		t.Fatalf("deadline: %v", err)
	}
	if s.Round.Stage != RoundSummary || s.Round.WinnerID != "" {
		t.Fatalf("deadline should end the round with no winner: %+v", s.Round)
	}
	if playerScore(s, "p1") != 0 {
		t.Fatalf("artist must not score when nobody guessed")
	}
}

func TestRotationSkipsEmptySeats(t *testing.T) {
	players := []Player{
		{ID: "p1", Name: "a"},
		{ID: "", Name: "gone"},
		{ID: "p3", Name: "c"},
	}
	s := activeRound(t, players)
	_, s, err := Apply(s, Command{Type: CmdDeadline})
	if err != nil {
		t.Fatalf("deadline: %v", err)
	}
	_, s, err = Apply(s, Command{Type: CmdFinishRound})
	if err != nil {
		t.Fatalf("finish round: %v", err)
	}
	if s.TurnCursor != 2 {
		t.Fatalf("rotation should skip the empty seat, got cursor %d", s.TurnCursor)
	}
	if s.Round.Stage != RoundIdle || !s.Round.StartedAt.IsZero() || s.Round.Word != "" {
		t.Fatalf("round-ephemeral fields not cleared: %+v", s.Round)
	}
}

func TestFirstAcrossThresholdWins(t *testing.T) {
	s := activeRound(t, testPlayers())
	for i := range s.Players {
		if s.Players[i].ID == "p2" {
			s.Players[i].Score = WinScore - 2
		}
	}

	events, s, err := Apply(s, Command{
		Type: CmdSubmitGuess, PlayerID: "p2", Guess: "banana", Now: roundStart.Add(5 * time.Second),
	})
	if err != nil {
		t.Fatalf("guess: %v", err)
	}
	if s.Phase != PhaseFinished || s.WinnerID != "p2" {
		t.Fatalf("crossing %d should finish the game for p2, got phase=%v winner=%q", WinScore, s.Phase, s.WinnerID)
	}
	won := false
	for _, e := range events {
		if e.Type == EvtGameWon && e.PlayerID == "p2" {
			won = true
		}
	}
	if !won {
		t.Fatalf("expected EvtGameWon for p2")
	}
}
