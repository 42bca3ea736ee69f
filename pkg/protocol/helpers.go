package protocol

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewConfigMessage creates a config update message. background may be
// nil to select the privacy-blur fallback.
func NewConfigMessage(background *string, hologram, mirror bool) (*Message, error) {
	return NewMessage(TypeConfig, ConfigUpdate{
		Background: background,
		Hologram:   hologram,
		Mirror:     mirror,
	})
}

// NewStateMessage creates a pipeline state snapshot message.
func NewStateMessage(state StateData) (*Message, error) {
	return NewMessage(TypeState, state)
}

// NewPingMessage creates a ping message. The embedded ID mirrors the
// envelope ID so pongs can be correlated.
func NewPingMessage() (*Message, error) {
	id := uuid.NewString()
	ts := time.Now().UnixMilli()
	msg, err := NewMessage(TypePing, PingData{ID: id, Timestamp: ts})
	if err != nil {
		return nil, err
	}
	msg.ID, msg.Timestamp = id, ts
	return msg, nil
}

// NewPongMessage answers a ping.
func NewPongMessage(ping PingData) (*Message, error) {
	now := time.Now().UnixMilli()
	return NewMessage(TypePong, PongData{
		ID:        ping.ID,
		PingTS:    ping.Timestamp,
		PongTS:    now,
		LatencyMs: now - ping.Timestamp,
	})
}
