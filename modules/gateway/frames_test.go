package gateway

import (
	"encoding/json"
	"testing"
)

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    string
		wantErr bool
	}{
		{
			name: "join frame",
			data: `{"event":"join","payload":{"username":"alice","roomCode":"bio1"}}`,
			want: EventJoin,
		},
		{
			name: "message frame",
			data: `{"event":"message","payload":{"text":"hello"}}`,
			want: EventMessage,
		},
		{
			name: "frame without payload",
			data: `{"event":"getActiveRooms"}`,
			want: EventGetActiveRooms,
		},
		{
			name:    "malformed json",
			data:    `{"event":`,
			wantErr: true,
		},
		{
			name:    "missing event name",
			data:    `{"payload":{"text":"hello"}}`,
			wantErr: true,
		},
		{
			name:    "empty event name",
			data:    `{"event":"","payload":{}}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := decodeFrame([]byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("decodeFrame: %v", err)
			}
			if frame.Event != tt.want {
				t.Errorf("Event = %q, want %q", frame.Event, tt.want)
			}
		})
	}
}

func TestJoinPayloadDecoding(t *testing.T) {
	frame, err := decodeFrame([]byte(`{"event":"join","payload":{"username":"alice","roomCode":"bio1"}}`))
	if err != nil {
		t.Fatalf("decodeFrame: %v", err)
	}

	var req joinPayload
	if err := json.Unmarshal(frame.Payload, &req); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if req.Username != "alice" || req.RoomCode != "bio1" {
		t.Errorf("payload = %+v, want alice/bio1", req)
	}
}

func TestMessagePayloadIgnoresClientStampedFields(t *testing.T) {
	frame, err := decodeFrame([]byte(`{"event":"message","payload":{"text":"hi","user":"forged","time":"1:00:00 AM","room":"other"}}`))
	if err != nil {
		t.Fatalf("decodeFrame: %v", err)
	}

	var req messagePayload
	if err := json.Unmarshal(frame.Payload, &req); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if req.Text != "hi" {
		t.Errorf("Text = %q, want hi", req.Text)
	}
}

func TestKickPayloadDecoding(t *testing.T) {
	frame, err := decodeFrame([]byte(`{"event":"kickUser","payload":{"roomCode":"bio1","username":"bob"}}`))
	if err != nil {
		t.Fatalf("decodeFrame: %v", err)
	}

	var req kickPayload
	if err := json.Unmarshal(frame.Payload, &req); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if req.RoomCode != "bio1" || req.Username != "bob" {
		t.Errorf("payload = %+v, want bio1/bob", req)
	}
}
