package websocket

import (
	"encoding/json"
	"fmt"

	"github.com/satriahrh/voxrelay/domain/entities"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Supported message types
const (
	MessageTypeRegister   MessageType = "register"
	MessageTypeAudioChunk MessageType = "audio_chunk"
	MessageTypeSemantic   MessageType = "semantic"
)

// Role partitions connections in the registry.
type Role string

const (
	RoleSender   Role = "sender"
	RoleReceiver Role = "receiver"
)

// RegisterMessage is the mandatory first frame on every connection.
type RegisterMessage struct {
	Type      MessageType `json:"type"`
	Role      Role        `json:"role"`
	SessionID string      `json:"session_id"`
}

// ParseRegister parses and validates a registration frame. Any failure means
// the connection must be closed.
func ParseRegister(data []byte) (*RegisterMessage, error) {
	var msg RegisterMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("malformed registration frame: %w", err)
	}
	if msg.Type != MessageTypeRegister {
		return nil, fmt.Errorf("expected register frame, got %q", msg.Type)
	}
	if msg.Role != RoleSender && msg.Role != RoleReceiver {
		return nil, fmt.Errorf("unrecognized role %q", msg.Role)
	}
	return &msg, nil
}

// ParseHeader parses an audio_chunk header frame. Callers ignore frames whose
// type is not audio_chunk.
func ParseHeader(data []byte) (*entities.SegmentHeader, error) {
	var header entities.SegmentHeader
	if err := json.Unmarshal(data, &header); err != nil {
		return nil, fmt.Errorf("malformed header frame: %w", err)
	}
	return &header, nil
}

// SemanticMessage is the only frame shape delivered to receivers.
type SemanticMessage struct {
	Type    MessageType              `json:"type"`
	Payload *entities.EnrichedResult `json:"payload"`
}

// NewSemanticFrame serializes an enriched result once for fan-out.
func NewSemanticFrame(result *entities.EnrichedResult) ([]byte, error) {
	return json.Marshal(SemanticMessage{
		Type:    MessageTypeSemantic,
		Payload: result,
	})
}
