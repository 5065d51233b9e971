package websocket

import (
	"encoding/json"
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Client requests
	MessageTypeAuth      MessageType = "auth"
	MessageTypeSubscribe MessageType = "subscribe"

	// Server replies
	MessageTypeAuthSuccess MessageType = "auth_success"
	MessageTypeAuthFailed  MessageType = "auth_failed"
	MessageTypeSubscribed  MessageType = "subscribed"
	MessageTypeError       MessageType = "error"

	// Ingested streams documents
	MessageTypeObservations MessageType = "observations"

	MessageTypeSystemStatus MessageType = "system_status"
)

// Message is sent from the hub to clients.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Format    string      `json:"format,omitempty"`
	Data      any         `json:"data,omitempty"`
}

// ClientMessage is sent from clients to the hub.
type ClientMessage struct {
	Type   MessageType `json:"type"`
	Token  string      `json:"token,omitempty"`
	Format string      `json:"format,omitempty"`
}

func NewMessage(msgType MessageType, data any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// NewDocumentMessage wraps an encoded streams document. JSON documents are
// embedded as objects, anything else as a string.
func NewDocumentMessage(format string, document []byte) Message {
	msg := NewMessage(MessageTypeObservations, nil)
	msg.Format = format
	if json.Valid(document) {
		msg.Data = json.RawMessage(document)
	} else {
		msg.Data = string(document)
	}
	return msg
}

func NewErrorMessage(reason string) Message {
	return NewMessage(MessageTypeError, map[string]string{"reason": reason})
}
