package rooms

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/ybro2011/Chat/domain/chat"
)

// Service names registered in the service container.
const (
	ServiceJoinRoom     = "join-room"
	ServiceLeaveRoom    = "leave-room"
	ServiceRelayMessage = "relay-message"
	ServiceKickUser     = "kick-user"
	ServiceListRooms    = "list-rooms"
)

// JoinRoomRequest asks to bind a connection to a room under a username.
type JoinRoomRequest struct {
	ConnectionID string `json:"connection_id"`
	Username     string `json:"username"`
	RoomCode     string `json:"room_code"`
}

// JoinRoomResponse reports the outcome; Error carries the client-facing
// message for a rejected join.
type JoinRoomResponse struct {
	Success    bool               `json:"success"`
	Error      string             `json:"error,omitempty"`
	Admin      bool               `json:"admin,omitempty"`
	AdminRooms []chat.RoomDetail  `json:"admin_rooms,omitempty"`
	History    []chat.ChatMessage `json:"history,omitempty"`
}

// LeaveRoomRequest releases a connection's membership and binding.
type LeaveRoomRequest struct {
	ConnectionID string `json:"connection_id"`
}

// LeaveRoomResponse acknowledges the leave.
type LeaveRoomResponse struct {
	Success bool `json:"success"`
}

// RelayMessageRequest fans a message out to the sender's room.
type RelayMessageRequest struct {
	ConnectionID string `json:"connection_id"`
	Text         string `json:"text"`
}

// RelayMessageResponse reports whether the message was relayed; false means
// the sender had no session and the message was dropped.
type RelayMessageResponse struct {
	Delivered bool `json:"delivered"`
}

// KickUserRequest force-removes a member from a room.
type KickUserRequest struct {
	RoomCode string `json:"room_code"`
	Username string `json:"username"`
}

// KickUserResponse reports whether the member was found.
type KickUserResponse struct {
	Found bool `json:"found"`
}

// ListRoomsRequest asks for the public directory snapshot.
type ListRoomsRequest struct{}

// ListRoomsResponse carries the snapshot.
type ListRoomsResponse struct {
	Rooms []chat.RoomInfo `json:"rooms"`
}

// RoomsPort defines the interface for room operations.
type RoomsPort interface {
	Join(ctx context.Context, connectionID, username, roomCode string) (*JoinRoomResponse, error)
	Leave(ctx context.Context, connectionID string) error
	Relay(ctx context.Context, connectionID, text string) (bool, error)
	Kick(ctx context.Context, roomCode, username string) (bool, error)
	ListRooms(ctx context.Context) ([]chat.RoomInfo, error)
}

// RoomsAdapter implements RoomsPort using the service container.
type RoomsAdapter struct {
	container mono.ServiceContainer
}

// NewRoomsAdapter creates a new RoomsAdapter.
func NewRoomsAdapter(container mono.ServiceContainer) RoomsPort {
	if container == nil {
		panic("rooms: ServiceContainer is nil")
	}
	return &RoomsAdapter{container: container}
}

// Join binds a connection to a room.
func (a *RoomsAdapter) Join(ctx context.Context, connectionID, username, roomCode string) (*JoinRoomResponse, error) {
	req := JoinRoomRequest{ConnectionID: connectionID, Username: username, RoomCode: roomCode}
	var resp JoinRoomResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceJoinRoom,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to join room: %w", err)
	}
	return &resp, nil
}

// Leave releases a connection's membership; used for both the explicit
// leave command and the transport disconnect.
func (a *RoomsAdapter) Leave(ctx context.Context, connectionID string) error {
	req := LeaveRoomRequest{ConnectionID: connectionID}
	var resp LeaveRoomResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceLeaveRoom,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return fmt.Errorf("failed to leave room: %w", err)
	}
	return nil
}

// Relay fans a message out to the sender's room.
func (a *RoomsAdapter) Relay(ctx context.Context, connectionID, text string) (bool, error) {
	req := RelayMessageRequest{ConnectionID: connectionID, Text: text}
	var resp RelayMessageResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceRelayMessage,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return false, fmt.Errorf("failed to relay message: %w", err)
	}
	return resp.Delivered, nil
}

// Kick force-removes a member from a room.
func (a *RoomsAdapter) Kick(ctx context.Context, roomCode, username string) (bool, error) {
	req := KickUserRequest{RoomCode: roomCode, Username: username}
	var resp KickUserResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceKickUser,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return false, fmt.Errorf("failed to kick user: %w", err)
	}
	return resp.Found, nil
}

// ListRooms returns the public directory snapshot.
func (a *RoomsAdapter) ListRooms(ctx context.Context) ([]chat.RoomInfo, error) {
	req := ListRoomsRequest{}
	var resp ListRoomsResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceListRooms,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return resp.Rooms, nil
}
