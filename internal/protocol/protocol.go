// Package protocol defines the websocket messages exchanged with stream clients.
package protocol

import "encoding/json"

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// TypeHello is sent by the server right after a client connects
	TypeHello MessageType = "hello"

	// TypeSample carries one pointer color sample
	TypeSample MessageType = "sample"

	// TypeScreensRequest is sent by a client to ask for the monitor list
	TypeScreensRequest MessageType = "screens_req"

	// TypeScreens is the server's answer to TypeScreensRequest
	TypeScreens MessageType = "screens"

	// TypeError reports a failed request
	TypeError MessageType = "error"
)

// Message is the generic container for all WebSocket messages
type Message struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// HelloPayload is the payload for TypeHello
type HelloPayload struct {
	ClientID string `json:"client_id"`
	Version  string `json:"version"`
	Platform string `json:"platform"`

	// IntervalMs is the sample stream period
	IntervalMs int `json:"interval_ms"`
}

// ErrorPayload is the payload for TypeError
type ErrorPayload struct {
	Message string `json:"message"`
}

// DecodePayload converts the generic payload of a decoded message into v
func DecodePayload(msg Message, v interface{}) error {
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
