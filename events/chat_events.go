package events

import (
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/ybro2011/Chat/domain/chat"
)

// UserJoinedEvent is emitted after a member is added to a room.
type UserJoinedEvent struct {
	RoomCode string   `json:"room_code"`
	Username string   `json:"username"`
	Message  string   `json:"message"`
	Time     string   `json:"time"`
	Users    []string `json:"users"`
}

// UserLeftEvent is emitted after a member leaves, disconnects or is kicked,
// but only while the room still has remaining members to notify.
type UserLeftEvent struct {
	RoomCode string   `json:"room_code"`
	Username string   `json:"username"`
	Message  string   `json:"message"`
	Time     string   `json:"time"`
	Users    []string `json:"users"`
}

// MessageRelayedEvent carries a server-stamped chat message for fan-out to
// the members of its room.
type MessageRelayedEvent struct {
	Message chat.ChatMessage `json:"message"`
}

// DirectoryChangedEvent is emitted on every membership change. Rooms is the
// public snapshot pushed to all connections, Detail the admin variant.
type DirectoryChangedEvent struct {
	Rooms  []chat.RoomInfo   `json:"rooms"`
	Detail []chat.RoomDetail `json:"detail"`
}

// UserKickedEvent targets the removed member's connection.
type UserKickedEvent struct {
	ConnectionID string `json:"connection_id"`
	RoomCode     string `json:"room_code"`
	Username     string `json:"username"`
	Message      string `json:"message"`
}

// Event definitions for the relay domain.
var (
	UserJoinedV1 = helper.EventDefinition[UserJoinedEvent](
		"relay",
		"UserJoined",
		"v1",
	)

	UserLeftV1 = helper.EventDefinition[UserLeftEvent](
		"relay",
		"UserLeft",
		"v1",
	)

	MessageRelayedV1 = helper.EventDefinition[MessageRelayedEvent](
		"relay",
		"MessageRelayed",
		"v1",
	)

	DirectoryChangedV1 = helper.EventDefinition[DirectoryChangedEvent](
		"relay",
		"DirectoryChanged",
		"v1",
	)

	UserKickedV1 = helper.EventDefinition[UserKickedEvent](
		"relay",
		"UserKicked",
		"v1",
	)
)
