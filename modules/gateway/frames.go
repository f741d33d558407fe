package gateway

import (
	"encoding/json"
	"errors"

	"github.com/ybro2011/Chat/domain/chat"
)

// Inbound event names of the wire protocol.
const (
	EventJoin           = "join"
	EventMessage        = "message"
	EventLeaveGroup     = "leaveGroup"
	EventKickUser       = "kickUser"
	EventGetActiveRooms = "getActiveRooms"
)

var errEmptyFrame = errors.New("empty frame")

// joinPayload is the body of a join frame.
type joinPayload struct {
	Username string `json:"username"`
	RoomCode string `json:"roomCode"`
}

// messagePayload is the body of a message frame. Clients may also send
// user/room/time fields; they are ignored, the server stamps its own.
type messagePayload struct {
	Text string `json:"text"`
}

// kickPayload is the body of a kickUser frame.
type kickPayload struct {
	RoomCode string `json:"roomCode"`
	Username string `json:"username"`
}

// historyPayload is the body of the roomHistory frame replayed to a joiner.
type historyPayload struct {
	Messages []chat.ChatMessage `json:"messages"`
}

// decodeFrame parses an inbound frame envelope.
func decodeFrame(data []byte) (chat.ClientFrame, error) {
	var frame chat.ClientFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return chat.ClientFrame{}, err
	}
	if frame.Event == "" {
		return chat.ClientFrame{}, errEmptyFrame
	}
	return frame, nil
}
