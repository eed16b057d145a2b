package websocket

import (
	"encoding/json"
	"time"

	"github.com/dom/habit-proofs/internal/domain"
)

type MessageType string

const (
	// Client to Server
	MessageTypeRegister MessageType = "register"

	// Server to Client
	MessageTypeRegistered    MessageType = "registered"
	MessageTypeNewProof      MessageType = domain.EventNewProof
	MessageTypeProofVerified MessageType = domain.EventProofVerified
	MessageTypeError         MessageType = "error"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      msgType,
		Payload:   payloadBytes,
		Timestamp: time.Now().UnixMilli(),
	}, nil
}

// Client to Server payloads

type RegisterPayload struct {
	UserID string `json:"userId"`
}

// Server to Client payloads

type RegisteredPayload struct {
	UserID string `json:"userId"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
