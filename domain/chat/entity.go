package chat

import "encoding/json"

// Session is the live binding between one connection and the identity and
// room it joined with. A connection with no completed join has no session.
type Session struct {
	ConnectionID string `json:"connection_id"`
	Username     string `json:"username"`
	RoomCode     string `json:"room_code"`
	Admin        bool   `json:"admin,omitempty"`
}

// ChatMessage is a relayed message as it appears on the wire. The server
// stamps user, time and room from the sender's session; client-supplied
// values for those fields are never trusted.
type ChatMessage struct {
	User string `json:"user"`
	Text string `json:"text"`
	Time string `json:"time"`
	Room string `json:"room"`
}

// RoomInfo is the public directory snapshot entry for one room.
type RoomInfo struct {
	Name      string `json:"name"`
	UserCount int    `json:"userCount"`
}

// RoomDetail is the admin-facing snapshot entry, including the member list.
type RoomDetail struct {
	ID        string   `json:"id"`
	UserCount int      `json:"userCount"`
	Users     []string `json:"users"`
}

// ServerFrame is an outbound named event with its payload.
type ServerFrame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// ClientFrame is an inbound named event. The payload is decoded by the
// handler for the event, so unknown events are rejected before parsing.
type ClientFrame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
