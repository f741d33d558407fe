package broadcast

import (
	"context"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/ybro2011/Chat/domain/chat"
	"github.com/ybro2011/Chat/events"
)

// Outbound event names of the wire protocol.
const (
	FrameUserJoined  = "userJoined"
	FrameUserLeft    = "userLeft"
	FrameMessage     = "message"
	FrameActiveRooms = "activeRooms"
	FrameAdminRooms  = "adminRooms"
	FrameRoomUpdate  = "roomUpdate"
	FrameRoomHistory = "roomHistory"
	FrameKicked      = "kicked"
	FrameError       = "error"
)

// PresencePayload is the body of userJoined and userLeft frames.
type PresencePayload struct {
	Message string   `json:"message"`
	Time    string   `json:"time"`
	Users   []string `json:"users"`
}

// RoomUpdatePayload is the body of the admin roomUpdate frame.
type RoomUpdatePayload struct {
	Rooms []chat.RoomDetail `json:"rooms"`
}

// KickedPayload is the body of the kicked frame.
type KickedPayload struct {
	Message string `json:"message"`
}

// BroadcastModule consumes relay events from the bus and fans the matching
// wire frames out to WebSocket clients through the hub.
type BroadcastModule struct {
	hub       *Hub
	adminRoom string
	cancelHub context.CancelFunc
}

// Compile-time interface checks.
var _ mono.Module = (*BroadcastModule)(nil)
var _ mono.EventConsumerModule = (*BroadcastModule)(nil)
var _ mono.HealthCheckableModule = (*BroadcastModule)(nil)

// NewModule creates a new BroadcastModule. adminRoom is the hub room that
// administrative connections are tracked in; it receives roomUpdate frames.
func NewModule(adminRoom string) *BroadcastModule {
	return &BroadcastModule{
		hub:       NewHub(),
		adminRoom: adminRoom,
	}
}

// Name returns the module name.
func (m *BroadcastModule) Name() string {
	return "broadcast"
}

// Start initializes the module and starts the hub.
func (m *BroadcastModule) Start(_ context.Context) error {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelHub = cancel
	go m.hub.Run(ctx)
	log.Println("[broadcast] Module started - WebSocket hub running")
	return nil
}

// Stop shuts down the module.
func (m *BroadcastModule) Stop(_ context.Context) error {
	clientCount := m.hub.ClientCount()
	if m.cancelHub != nil {
		m.cancelHub()
		m.hub.Wait()
	}
	log.Printf("[broadcast] Module stopped - %d clients were connected", clientCount)
	return nil
}

// Health returns the health status.
func (m *BroadcastModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"connected_clients": m.hub.ClientCount(),
		},
	}
}

// RegisterEventConsumers registers event handlers.
func (m *BroadcastModule) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserJoinedV1, m.handleUserJoined, m,
	); err != nil {
		return fmt.Errorf("failed to register UserJoined consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserLeftV1, m.handleUserLeft, m,
	); err != nil {
		return fmt.Errorf("failed to register UserLeft consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.MessageRelayedV1, m.handleMessageRelayed, m,
	); err != nil {
		return fmt.Errorf("failed to register MessageRelayed consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.DirectoryChangedV1, m.handleDirectoryChanged, m,
	); err != nil {
		return fmt.Errorf("failed to register DirectoryChanged consumer: %w", err)
	}

	if err := helper.RegisterTypedEventConsumer(
		registry, events.UserKickedV1, m.handleUserKicked, m,
	); err != nil {
		return fmt.Errorf("failed to register UserKicked consumer: %w", err)
	}

	log.Println("[broadcast] Registered event consumers: UserJoined, UserLeft, MessageRelayed, DirectoryChanged, UserKicked")
	return nil
}

func (m *BroadcastModule) handleUserJoined(_ context.Context, event events.UserJoinedEvent, _ *mono.Msg) error {
	m.hub.Broadcast(event.RoomCode, chat.ServerFrame{
		Event: FrameUserJoined,
		Payload: PresencePayload{
			Message: event.Message,
			Time:    event.Time,
			Users:   event.Users,
		},
	})
	return nil
}

func (m *BroadcastModule) handleUserLeft(_ context.Context, event events.UserLeftEvent, _ *mono.Msg) error {
	m.hub.Broadcast(event.RoomCode, chat.ServerFrame{
		Event: FrameUserLeft,
		Payload: PresencePayload{
			Message: event.Message,
			Time:    event.Time,
			Users:   event.Users,
		},
	})
	return nil
}

func (m *BroadcastModule) handleMessageRelayed(_ context.Context, event events.MessageRelayedEvent, _ *mono.Msg) error {
	m.hub.Broadcast(event.Message.Room, chat.ServerFrame{
		Event:   FrameMessage,
		Payload: event.Message,
	})
	return nil
}

func (m *BroadcastModule) handleDirectoryChanged(_ context.Context, event events.DirectoryChangedEvent, _ *mono.Msg) error {
	// Rooms are globally visible even to non-members.
	m.hub.Broadcast("", chat.ServerFrame{
		Event:   FrameActiveRooms,
		Payload: event.Rooms,
	})
	m.hub.Broadcast(m.adminRoom, chat.ServerFrame{
		Event:   FrameRoomUpdate,
		Payload: RoomUpdatePayload{Rooms: event.Detail},
	})
	return nil
}

func (m *BroadcastModule) handleUserKicked(_ context.Context, event events.UserKickedEvent, _ *mono.Msg) error {
	log.Printf("[broadcast] Kicking %s from room %s", event.Username, event.RoomCode)

	m.hub.SendTo(event.ConnectionID, chat.ServerFrame{
		Event:   FrameKicked,
		Payload: KickedPayload{Message: event.Message},
	})
	// Stop room traffic to the kicked connection before the departure
	// notice goes out to the remaining members.
	m.hub.LeaveRoom(event.ConnectionID)
	return nil
}

// GetHub returns the WebSocket hub for the gateway module to use.
func (m *BroadcastModule) GetHub() *Hub {
	return m.hub
}
