package protocol

import (
	"testing"
)

func TestNewMessage(t *testing.T) {
	bg := "/home/user/beach.jpg"
	tests := []struct {
		name    string
		msgType MessageType
		data    interface{}
		wantErr bool
	}{
		{
			name:    "config message",
			msgType: TypeConfig,
			data:    ConfigUpdate{Background: &bg, Hologram: true},
			wantErr: false,
		},
		{
			name:    "state message",
			msgType: TypeState,
			data:    StateData{Width: 1280, Height: 720, FPS: 24.5},
			wantErr: false,
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.ID == "" {
				t.Error("NewMessage() ID should be set")
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
		})
	}
}

func TestConfigRoundTrip(t *testing.T) {
	bg := "/backgrounds/office.png"
	msg, err := NewConfigMessage(&bg, false, true)
	if err != nil {
		t.Fatalf("NewConfigMessage() error = %v", err)
	}

	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if parsed.Type != TypeConfig {
		t.Errorf("Type = %v, want %v", parsed.Type, TypeConfig)
	}
	if parsed.ID != msg.ID {
		t.Errorf("ID = %q, want %q", parsed.ID, msg.ID)
	}

	var update ConfigUpdate
	if err := parsed.ParseData(&update); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if update.Background == nil || *update.Background != bg {
		t.Errorf("Background = %v, want %q", update.Background, bg)
	}
	if update.Hologram {
		t.Error("Hologram = true, want false")
	}
	if !update.Mirror {
		t.Error("Mirror = false, want true")
	}
}

func TestConfigAbsentBackground(t *testing.T) {
	msg, err := NewConfigMessage(nil, true, false)
	if err != nil {
		t.Fatalf("NewConfigMessage() error = %v", err)
	}

	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}

	var update ConfigUpdate
	if err := parsed.ParseData(&update); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if update.Background != nil {
		t.Errorf("Background = %q, want nil", *update.Background)
	}
	if !update.Hologram {
		t.Error("Hologram = false, want true")
	}
}

func TestPingPongCorrelation(t *testing.T) {
	ping, err := NewPingMessage()
	if err != nil {
		t.Fatalf("NewPingMessage() error = %v", err)
	}

	var pingData PingData
	if err := ping.ParseData(&pingData); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if pingData.ID != ping.ID {
		t.Errorf("embedded ID = %q, want envelope ID %q", pingData.ID, ping.ID)
	}

	pong, err := NewPongMessage(pingData)
	if err != nil {
		t.Fatalf("NewPongMessage() error = %v", err)
	}
	var pongData PongData
	if err := pong.ParseData(&pongData); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if pongData.ID != ping.ID {
		t.Errorf("pong ID = %q, want %q", pongData.ID, ping.ID)
	}
	if pongData.LatencyMs < 0 {
		t.Errorf("LatencyMs = %d, want >= 0", pongData.LatencyMs)
	}
}

func TestParseMessageInvalid(t *testing.T) {
	if _, err := ParseMessage([]byte("{not json")); err == nil {
		t.Error("ParseMessage() expected error for invalid JSON")
	}
}
