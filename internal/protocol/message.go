package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-peer/internal/entity"
)

const (
	TypePlayerInfo = "playerInfo"
	TypeGameStart  = "gameStart"
	TypeMove       = "move"
	TypeNewGame    = "newGame"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownType      = errors.New("unknown message type")
)

// Message - a flat record; which fields are set depends on Type.
type Message struct {
	Type        string        `json:"type"`
	Name        string        `json:"name,omitempty"`
	StartsFirst *bool         `json:"startsFirst,omitempty"`
	HostName    string        `json:"hostName,omitempty"`
	Index       *int          `json:"index,omitempty"`
	Symbol      entity.Symbol `json:"symbol,omitempty"`
}

func NewPlayerInfo(name string) Message {
	return Message{Type: TypePlayerInfo, Name: name}
}

func NewGameStart(startsFirst bool, hostName string) Message {
	return Message{Type: TypeGameStart, StartsFirst: &startsFirst, HostName: hostName}
}

func NewMove(index int, symbol entity.Symbol) Message {
	return Message{Type: TypeMove, Index: &index, Symbol: symbol}
}

func NewNewGame() Message {
	return Message{Type: TypeNewGame}
}

func Encode(msg Message) ([]byte, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("could not marshal message: %w", err)
	}

	return data, nil
}

// Decode - parses a frame; unknown types fail with ErrUnknownType so callers can drop them.
func Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	if err := msg.Validate(); err != nil {
		return Message{}, err
	}

	return msg, nil
}

func (that Message) Validate() error {
	switch that.Type {
	case TypePlayerInfo, TypeNewGame:
		return nil
	case TypeGameStart:
		if that.StartsFirst == nil {
			return fmt.Errorf("%w: gameStart without startsFirst", ErrMalformedMessage)
		}
		return nil
	case TypeMove:
		if that.Index == nil || !that.Symbol.IsMark() {
			return fmt.Errorf("%w: move without index or symbol", ErrMalformedMessage)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownType, that.Type)
	}
}
