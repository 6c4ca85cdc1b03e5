package types

import "github.com/asafee03-dev/RN-PARTY-GAMES-sub001/internal/store"

type ClientMessage struct {
	Type   string         `json:"type"`
	Fields store.Document `json:"fields,omitempty"`
}

type ServerMessage struct {
	Type  string         `json:"type"` // "SessionSnapshot" | "SessionDeleted" | "Error"
	Code  string         `json:"code,omitempty"`
	Doc   store.Document `json:"doc,omitempty"`
	Error string         `json:"error,omitempty"`
}
