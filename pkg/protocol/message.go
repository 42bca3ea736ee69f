// Package protocol defines the control-plane message schema shared
// between the fakecam daemon and external controllers (fakecamctl, web
// UIs). Messages travel as JSON over the control WebSocket; the same
// payload types back the REST endpoints.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MessageType identifies the type of control message.
type MessageType string

const (
	// Controller → daemon
	TypeConfig MessageType = "config" // Live configuration update

	// Daemon → controller
	TypeState MessageType = "state" // Pipeline state snapshot

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the envelope for all control messages.
type Message struct {
	Type      MessageType     `json:"type"`
	ID        string          `json:"id,omitempty"` // Message UUID
	Timestamp int64           `json:"ts,omitempty"` // Unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a message with a fresh ID and the current
// timestamp.
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var rawData json.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("protocol: marshal %s data: %w", msgType, err)
		}
	}

	return &Message{
		Type:      msgType,
		ID:        uuid.NewString(),
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct.
func (m *Message) ParseData(v interface{}) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message.
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes.
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("protocol: parse message: %w", err)
	}
	return &msg, nil
}

// ConfigUpdate fully replaces the pipeline's live configuration. A nil
// Background selects the privacy-blur fallback, not "keep current".
type ConfigUpdate struct {
	Background *string `json:"background"`
	Hologram   bool    `json:"hologram"`
	Mirror     bool    `json:"mirror"`
}

// StateData is a snapshot of the running pipeline.
type StateData struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Frames     uint64  `json:"frames"`
	FPS        float64 `json:"fps"`
	Background string  `json:"background,omitempty"`
	Hologram   bool    `json:"hologram"`
	Mirror     bool    `json:"mirror"`
	Viewers    int     `json:"viewers"` // Connected preview clients
}

// PingData carries a ping.
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData answers a ping.
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
