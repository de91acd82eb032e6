// Package protocol defines the wire messages exchanged between server and
// clients and their framing: an ASCII decimal byte length, a colon, then
// that many bytes of JSON. Wire names are stable; clients depend on them.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/cardtable/holdemd/internal/deck"
)

// MessageType is the "type" discriminator carried by every frame.
type MessageType string

const (
	TypeSetDisplayName  MessageType = "set_display_name"
	TypeIsReady         MessageType = "is_ready"
	TypeHeartbeat       MessageType = "heartbeat"
	TypeResponse        MessageType = "response"
	TypeConnectionEnded MessageType = "connection_ended"
	TypeAwaitingPlayer  MessageType = "awaiting_player"
	TypeGameState       MessageType = "game_state"
	TypeGameEnd         MessageType = "game_end"
)

// Action names a player's choice inside a "response" message.
type Action string

const (
	ActionRaiseTo Action = "raise_to"
	ActionFold    Action = "fold"
	ActionPass    Action = "pass"
)

// Message is implemented by every wire message. setType normalizes the
// discriminator before encoding so callers cannot ship a mistagged frame.
type Message interface {
	setType()
}

// SetDisplayName is sent by a client to name its seat.
type SetDisplayName struct {
	Type       MessageType `json:"type"`
	PlayerName string      `json:"player_name"`
}

func (m *SetDisplayName) setType() { m.Type = TypeSetDisplayName }

// IsReady marks the sending seat ready to start.
type IsReady struct {
	Type MessageType `json:"type"`
}

func (m *IsReady) setType() { m.Type = TypeIsReady }

// Heartbeat keeps an otherwise idle connection alive. The seat reader
// consumes it; it never reaches the game loop.
type Heartbeat struct {
	Type MessageType `json:"type"`
}

func (m *Heartbeat) setType() { m.Type = TypeHeartbeat }

// Response is a player's decision for the current turn. Amount is only
// meaningful with ActionRaiseTo.
type Response struct {
	Type   MessageType `json:"type"`
	Action Action      `json:"action"`
	Amount uint64      `json:"amount,omitempty"`
}

func (m *Response) setType() { m.Type = TypeResponse }

// ConnectionEnded is synthesized by a seat's reader when its socket dies.
// It never travels on the wire from server to client.
type ConnectionEnded struct {
	Type MessageType `json:"type"`
}

func (m *ConnectionEnded) setType() { m.Type = TypeConnectionEnded }

// AwaitingPlayer tells a client it is its turn to act. Clients must gate
// input on this message; out-of-turn responses are dropped.
type AwaitingPlayer struct {
	Type MessageType `json:"type"`
}

func (m *AwaitingPlayer) setType() { m.Type = TypeAwaitingPlayer }

// GameState is the full table snapshot broadcast after every change.
// All per-player slices are indexed by seat id. PlayerCards entries are
// nil except for hands revealed at showdown.
type GameState struct {
	Type                MessageType    `json:"type"`
	PersonalCards       [2]deck.Card   `json:"personal_cards"`
	PersonalID          int            `json:"personal_id"`
	MiddleCards         []deck.Card    `json:"middle_cards"`
	PlayerNames         []string       `json:"player_names"`
	PlayerCards         []*[2]deck.Card `json:"player_cards"`
	PlayerBettingAmount []uint64       `json:"player_betting_amount"`
	PlayerMoney         []uint64       `json:"player_money"`
	PlayerHasFolded     []bool         `json:"player_has_folded"`
	PlayerIsOut         []bool         `json:"player_is_out"`
	RoundNumber         int            `json:"round_number"`
	IsStarted           bool           `json:"is_started"`
	HandWinner          int8           `json:"hand_winner"`
	IsShowdown          bool           `json:"is_showdown"`
}

func (m *GameState) setType() { m.Type = TypeGameState }

// GameEnd announces the overall winner; nil means nobody qualified.
type GameEnd struct {
	Type   MessageType `json:"type"`
	Winner *int        `json:"winner"`
}

func (m *GameEnd) setType() { m.Type = TypeGameEnd }

// Encode serializes a message to its JSON payload (unframed).
func Encode(m Message) ([]byte, error) {
	m.setType()
	return json.Marshal(m)
}

// Decode parses a JSON payload into its typed message. Unknown types and
// malformed payloads are errors; the caller closes the socket on error.
func Decode(data []byte) (Message, error) {
	var probe struct {
		Type MessageType `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}

	var m Message
	switch probe.Type {
	case TypeSetDisplayName:
		m = &SetDisplayName{}
	case TypeIsReady:
		m = &IsReady{}
	case TypeHeartbeat:
		m = &Heartbeat{}
	case TypeResponse:
		m = &Response{}
	case TypeConnectionEnded:
		m = &ConnectionEnded{}
	case TypeAwaitingPlayer:
		m = &AwaitingPlayer{}
	case TypeGameState:
		m = &GameState{}
	case TypeGameEnd:
		m = &GameEnd{}
	default:
		return nil, fmt.Errorf("decode message: unknown type %q", probe.Type)
	}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("decode %s: %w", probe.Type, err)
	}

	if r, ok := m.(*Response); ok {
		switch r.Action {
		case ActionRaiseTo, ActionFold, ActionPass:
		default:
			return nil, fmt.Errorf("decode response: unknown action %q", r.Action)
		}
	}
	return m, nil
}
