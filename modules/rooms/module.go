package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"

	"github.com/ybro2011/Chat/events"
)

// Module exposes the room/session service over the service container and
// declares the events it emits.
type Module struct {
	service *Service
	logger  *slog.Logger
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
)

// NewModule creates the rooms module with its own service instance.
func NewModule(opts Options) *Module {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Module{
		service: NewService(opts),
		logger:  logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "rooms"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.service.SetEventBus(bus)
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.UserJoinedV1.ToBase(),
		events.UserLeftV1.ToBase(),
		events.MessageRelayedV1.ToBase(),
		events.DirectoryChangedV1.ToBase(),
		events.UserKickedV1.ToBase(),
	}
}

// RegisterServices registers the request-reply services used by the gateway.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceJoinRoom, json.Unmarshal, json.Marshal, m.handleJoinRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceJoinRoom, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceLeaveRoom, json.Unmarshal, json.Marshal, m.handleLeaveRoom,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceLeaveRoom, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceRelayMessage, json.Unmarshal, json.Marshal, m.handleRelayMessage,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceRelayMessage, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceKickUser, json.Unmarshal, json.Marshal, m.handleKickUser,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceKickUser, err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListRooms, json.Unmarshal, json.Marshal, m.handleListRooms,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListRooms, err)
	}

	m.logger.Info("registered room services",
		"services", []string{ServiceJoinRoom, ServiceLeaveRoom, ServiceRelayMessage, ServiceKickUser, ServiceListRooms})
	return nil
}

func (m *Module) handleJoinRoom(_ context.Context, req JoinRoomRequest, _ *mono.Msg) (JoinRoomResponse, error) {
	result, err := m.service.Join(req.ConnectionID, req.Username, req.RoomCode)
	if err != nil {
		return JoinRoomResponse{Error: joinErrorMessage(err)}, nil
	}
	return JoinRoomResponse{
		Success:    true,
		Admin:      result.Admin,
		AdminRooms: result.AdminRooms,
		History:    result.History,
	}, nil
}

func (m *Module) handleLeaveRoom(_ context.Context, req LeaveRoomRequest, _ *mono.Msg) (LeaveRoomResponse, error) {
	m.service.Leave(req.ConnectionID)
	return LeaveRoomResponse{Success: true}, nil
}

func (m *Module) handleRelayMessage(_ context.Context, req RelayMessageRequest, _ *mono.Msg) (RelayMessageResponse, error) {
	_, delivered := m.service.Relay(req.ConnectionID, req.Text)
	return RelayMessageResponse{Delivered: delivered}, nil
}

func (m *Module) handleKickUser(_ context.Context, req KickUserRequest, _ *mono.Msg) (KickUserResponse, error) {
	found := m.service.Kick(req.RoomCode, req.Username)
	return KickUserResponse{Found: found}, nil
}

func (m *Module) handleListRooms(_ context.Context, _ ListRoomsRequest, _ *mono.Msg) (ListRoomsResponse, error) {
	return ListRoomsResponse{Rooms: m.service.Snapshot()}, nil
}

// joinErrorMessage maps join failures to the client-facing error text.
func joinErrorMessage(err error) string {
	if errors.Is(err, ErrDuplicateIdentity) {
		return "Username is already taken. Please choose another one."
	}
	return err.Error()
}

// Start initializes the module.
func (m *Module) Start(_ context.Context) error {
	m.logger.Info("rooms module started")
	return nil
}

// Stop shuts down the module.
func (m *Module) Stop(_ context.Context) error {
	m.logger.Info("rooms module stopped")
	return nil
}

// Service returns the room service, for in-process callers and tests.
func (m *Module) Service() *Service {
	return m.service
}
