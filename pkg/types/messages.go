package types

// Client -> Server
// UpdateFields:
//   fields: { [fieldName]: any } // partial merge onto the session document,
//                                // unconditional, last write wins
//
// The concurrency patterns (join-with-verify, deadline freeze) are built out
// of plain UpdateFields writes plus re-reads; there is no dedicated wire
// message for them.

// Server -> Client
// SessionSnapshot:
//   code: string
//   doc: full session document after every committed write, including the
//        receiving client's own writes
//
// SessionDeleted:
//   code: string // backing document is gone; abandon the session view
//
// Error:
//   error: string
