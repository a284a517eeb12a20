package game

import (
	"encoding/json"
	"fmt"
)

// MessageType for WebSocket communication between client and server.
type MessageType string

const (
	MsgTypeJoinRoom         MessageType = "join_room"         // Client joins a room
	MsgTypeCreateCharacter  MessageType = "create_character"  // Client creates or replaces a character
	MsgTypeUpdateStats      MessageType = "update_stats"      // Client patches character stats
	MsgTypeStartBattle      MessageType = "start_battle"      // Client requests the turn order
	MsgTypePlayerJoined     MessageType = "player_joined"     // Server announces a join
	MsgTypeCharacterCreated MessageType = "character_created" // Server announces a new character
	MsgTypeStatsUpdated     MessageType = "stats_updated"     // Server relays a stat patch
	MsgTypeBattleStarted    MessageType = "battle_started"    // Server sends the battle result
	MsgTypeError            MessageType = "error"             // Server reports bad input to the sender
)

// Envelope is one WebSocket message. Message is set only on error events,
// which carry their text at the top level rather than in a payload.
type Envelope struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Message string          `json:"message,omitempty"`
}

// NewEnvelope creates an Envelope with a marshaled payload.
func NewEnvelope(msgType MessageType, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Type: msgType}, nil
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return Envelope{
		Type:    msgType,
		Payload: payloadBytes,
	}, nil
}

// NewError creates a unicast error Envelope.
func NewError(message string) Envelope {
	return Envelope{Type: MsgTypeError, Message: message}
}

// ErrUnknownType reports an inbound message whose type matches none of the
// known client-to-server kinds.
type ErrUnknownType struct {
	Type MessageType
}

func (e ErrUnknownType) Error() string {
	return fmt.Sprintf("unknown message type: %s", e.Type)
}

// Parse unmarshals the payload of a client-to-server message into its typed
// form (JoinRoomPayload, CreateCharacterPayload, etc.).
func (m *Envelope) Parse() (any, error) {
	var target any
	switch m.Type {
	case MsgTypeJoinRoom:
		target = &JoinRoomPayload{}
	case MsgTypeCreateCharacter:
		target = &CreateCharacterPayload{}
	case MsgTypeUpdateStats:
		target = &UpdateStatsPayload{}
	case MsgTypeStartBattle:
		target = &StartBattlePayload{}
	default:
		return nil, ErrUnknownType{Type: m.Type}
	}

	if len(m.Payload) == 0 {
		return target, nil
	}

	err := json.Unmarshal(m.Payload, target)
	return target, err
}

// JoinRoomPayload is the payload for MsgTypeJoinRoom.
type JoinRoomPayload struct {
	RoomID string `json:"roomId"`
	UserID string `json:"userId"`
}

// CreateCharacterPayload is the payload for MsgTypeCreateCharacter.
type CreateCharacterPayload struct {
	RoomID string    `json:"roomId"`
	UserID string    `json:"userId"`
	Name   string    `json:"name"`
	Class  string    `json:"clazz"`
	Stats  StatBlock `json:"stats"`
}

// UpdateStatsPayload is the payload for MsgTypeUpdateStats.
type UpdateStatsPayload struct {
	RoomID string    `json:"roomId"`
	UserID string    `json:"userId"`
	Stats  StatPatch `json:"stats"`
}

// StartBattlePayload is the payload for MsgTypeStartBattle.
type StartBattlePayload struct {
	RoomID string `json:"roomId"`
}

// PlayerJoinedPayload is the payload for MsgTypePlayerJoined.
type PlayerJoinedPayload struct {
	UserID string `json:"userId"`
}

// CharacterCreatedPayload is the payload for MsgTypeCharacterCreated.
type CharacterCreatedPayload struct {
	UserID string    `json:"userId"`
	Name   string    `json:"name"`
	Class  string    `json:"clazz"`
	Stats  StatBlock `json:"stats"`
}

// StatsUpdatedPayload is the payload for MsgTypeStatsUpdated. Stats carries
// the patch exactly as the client sent it, not the merged result.
type StatsUpdatedPayload struct {
	UserID string    `json:"userId"`
	Stats  StatPatch `json:"stats"`
}
