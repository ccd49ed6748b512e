package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

// Version is sent in the handshake. Peers with a different major version
// refuse to play.
const Version = "1.0"

type Type string

const (
	TypeHandshake    Type = "HANDSHAKE"
	TypeAck          Type = "ACK"
	TypeGameSeed     Type = "GAME_SEED"
	TypeCribCards    Type = "CRIB_CARDS"
	TypePlayCard     Type = "PLAY_CARD"
	TypeCallGo       Type = "CALL_GO"
	TypeDeclareScore Type = "DECLARE_SCORE"
	TypeMugginsClaim Type = "MUGGINS_CLAIM"
	TypeNewRound     Type = "NEW_ROUND"
	TypeGameOver     Type = "GAME_OVER"
	TypeStateSync    Type = "STATE_SYNC"
	TypeError        Type = "ERROR"
)

var knownTypes = map[Type]bool{
	TypeHandshake:    true,
	TypeAck:          true,
	TypeGameSeed:     true,
	TypeCribCards:    true,
	TypePlayCard:     true,
	TypeCallGo:       true,
	TypeDeclareScore: true,
	TypeMugginsClaim: true,
	TypeNewRound:     true,
	TypeGameOver:     true,
	TypeStateSync:    true,
	TypeError:        true,
}

// Types lists every message type.
func Types() []Type {
	return []Type{
		TypeHandshake, TypeAck, TypeGameSeed, TypeCribCards, TypePlayCard, TypeCallGo,
		TypeDeclareScore, TypeMugginsClaim, TypeNewRound, TypeGameOver, TypeStateSync, TypeError,
	}
}

// IsGameMove reports whether messages of type t carry a cribbage.Action.
func (t Type) IsGameMove() bool {
	switch t {
	case TypeGameSeed, TypeCribCards, TypePlayCard, TypeCallGo, TypeDeclareScore, TypeMugginsClaim, TypeNewRound:
		return true
	}
	return false
}

var (
	ErrUnknownType = errors.New("unknown message type")
	ErrMalformed   = errors.New("malformed message")
	ErrMismatch    = errors.New("message does not match local state")
)

// Message is the envelope of every exchange. ID makes processing
// idempotent and Round tells early messages from stale ones.
type Message struct {
	Type      Type           `json:"type"`
	Timestamp int64          `json:"timestamp"`
	ID        string         `json:"messageId"`
	Round     int            `json:"round,omitempty"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// New builds a message with a fresh id and the current time. payload is
// converted to its JSON object form.
func New(t Type, round int, payload any) (Message, error) {
	m := Message{
		Type:      t,
		Timestamp: time.Now().UnixMilli(),
		ID:        uuid.NewString(),
		Round:     round,
	}
	if payload == nil {
		return m, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	if err := json.Unmarshal(b, &m.Payload); err != nil {
		return Message{}, fmt.Errorf("encode %s payload: %w", t, err)
	}
	return m, nil
}

// MustNew is New for payloads that always encode.
func MustNew(t Type, round int, payload any) Message {
	m, err := New(t, round, payload)
	if err != nil {
		panic(err)
	}
	return m
}

// Time returns the send time of the message.
func (m Message) Time() time.Time {
	return time.UnixMilli(m.Timestamp)
}

func (m Message) String() string {
	return fmt.Sprintf("%s#%s r%d", m.Type, shortID(m.ID), m.Round)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// DecodePayload decodes the generic payload of m into out, a pointer to
// one of the payload structs.
func DecodePayload(m Message, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(m.Payload); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrMalformed, m.Type, err)
	}
	return nil
}

// Encode serializes m for the wire.
func Encode(m Message) ([]byte, error) {
	return json.Marshal(m)
}

// Decode parses and validates a message received from the wire.
func Decode(b []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	return m, nil
}

// Validate checks the envelope fields.
func (m Message) Validate() error {
	if !knownTypes[m.Type] {
		return fmt.Errorf("%w %q", ErrUnknownType, m.Type)
	}
	if m.ID == "" {
		return fmt.Errorf("%w: missing messageId", ErrMalformed)
	}
	if m.Round < 0 {
		return fmt.Errorf("%w: negative round", ErrMalformed)
	}
	return nil
}
