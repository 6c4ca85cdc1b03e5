package types

// Session document, shared by all four games:
//   game: "wordrace" | "codegrid" | "sketch" | "outsider"
//   status: "lobby" | "setup" | "playing" | "finished"
//   hostId: string
//   participants: [{ id, name, team?, score }]
//   turnCursor: number // index, or team color for codegrid
//   roundActive: boolean
//   roundStartedAt: number // unix ms, durations are now - this stamp
//   summaryShown: boolean
//   frozenWord: string // deadline value-freeze target
//
// Per-game board fields sit alongside these and are opaque to the protocol:
//   wordrace: cards, cardIndex, positions
//   codegrid: words[25], key[25], revealed[25], clue, guessBudget
//   sketch:   word, strokes, tiers
//   outsider: secret, roles, votes, guessUsed
