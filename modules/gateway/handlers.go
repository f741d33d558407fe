package gateway

import (
	"context"
	"encoding/json"

	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"

	"github.com/ybro2011/Chat/domain/chat"
	"github.com/ybro2011/Chat/modules/broadcast"
)

// handleSocket runs the per-connection event loop. Each connection gets an
// opaque identifier; identity only exists after a completed join and lives
// in the Connection Registry, never on the connection itself.
func (m *Module) handleSocket(c *websocket.Conn) {
	connID := uuid.New().String()
	client := &broadcast.Client{
		ID:   connID,
		Conn: c,
	}

	m.hub.Register(client)
	defer func() {
		// Disconnect cleanup mirrors an explicit leave: the rooms
		// service releases membership and identity even though this
		// connection can no longer receive a response.
		if err := m.rooms.Leave(context.Background(), connID); err != nil {
			m.logger.Error("disconnect cleanup failed", "connection", connID, "error", err)
		}
		m.hub.Unregister(client)
		m.logger.Info("socket disconnected", "connection", connID)
	}()

	m.logger.Info("socket connected", "connection", connID)

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				m.logger.Error("socket read error", "connection", connID, "error", err)
			}
			break
		}

		frame, err := decodeFrame(data)
		if err != nil {
			m.sendError(c, "Invalid frame format")
			continue
		}

		switch frame.Event {
		case EventJoin:
			m.handleJoin(c, client, frame.Payload)
		case EventMessage:
			m.handleMessage(connID, frame.Payload)
		case EventLeaveGroup:
			m.handleLeaveGroup(connID)
		case EventKickUser:
			m.handleKickUser(c, frame.Payload)
		case EventGetActiveRooms:
			m.handleGetActiveRooms(c)
		default:
			m.sendError(c, "Unknown event: "+frame.Event)
		}
	}
}

func (m *Module) handleJoin(c *websocket.Conn, client *broadcast.Client, payload json.RawMessage) {
	var req joinPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		m.sendError(c, "Invalid join payload")
		return
	}

	// Enter the hub room before the join completes so the member's own
	// notifications are delivered; rolled back to the previous room if
	// the join is rejected.
	prevRoom := client.RoomID
	m.hub.JoinRoom(client.ID, req.RoomCode)

	resp, err := m.rooms.Join(context.Background(), client.ID, req.Username, req.RoomCode)
	if err != nil {
		m.rollbackRoom(client.ID, prevRoom)
		m.logger.Error("join failed", "connection", client.ID, "error", err)
		m.sendError(c, "Failed to join room")
		return
	}
	if !resp.Success {
		m.rollbackRoom(client.ID, prevRoom)
		m.sendError(c, resp.Error)
		return
	}

	if resp.Admin {
		m.sendFrame(c, broadcast.FrameAdminRooms, resp.AdminRooms)
		return
	}
	if len(resp.History) > 0 {
		m.sendFrame(c, broadcast.FrameRoomHistory, historyPayload{Messages: resp.History})
	}
}

// rollbackRoom returns a connection to the hub room it was in before an
// optimistic join.
func (m *Module) rollbackRoom(clientID, prevRoom string) {
	if prevRoom == "" {
		m.hub.LeaveRoom(clientID)
		return
	}
	m.hub.JoinRoom(clientID, prevRoom)
}

func (m *Module) handleMessage(connID string, payload json.RawMessage) {
	var req messagePayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return
	}

	// No session means no room to relay to: the message is dropped
	// without an error frame.
	delivered, err := m.rooms.Relay(context.Background(), connID, req.Text)
	if err != nil {
		m.logger.Error("relay failed", "connection", connID, "error", err)
		return
	}
	if !delivered {
		m.logger.Debug("message dropped", "connection", connID)
	}
}

func (m *Module) handleLeaveGroup(connID string) {
	if err := m.rooms.Leave(context.Background(), connID); err != nil {
		m.logger.Error("leave failed", "connection", connID, "error", err)
		return
	}
	m.hub.LeaveRoom(connID)
}

func (m *Module) handleKickUser(c *websocket.Conn, payload json.RawMessage) {
	var req kickPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		m.sendError(c, "Invalid kick payload")
		return
	}

	found, err := m.rooms.Kick(context.Background(), req.RoomCode, req.Username)
	if err != nil {
		m.logger.Error("kick failed", "room", req.RoomCode, "username", req.Username, "error", err)
		return
	}
	if !found {
		// Unknown target is a silent no-op on the wire.
		m.logger.Info("kick target not found", "room", req.RoomCode, "username", req.Username)
	}
}

func (m *Module) handleGetActiveRooms(c *websocket.Conn) {
	roomList, err := m.rooms.ListRooms(context.Background())
	if err != nil {
		m.sendError(c, "Failed to list rooms")
		return
	}
	m.sendFrame(c, broadcast.FrameActiveRooms, roomList)
}

func (m *Module) sendFrame(c *websocket.Conn, event string, payload any) {
	if err := c.WriteJSON(chat.ServerFrame{Event: event, Payload: payload}); err != nil {
		m.logger.Error("failed to send frame", "event", event, "error", err)
	}
}

func (m *Module) sendError(c *websocket.Conn, message string) {
	m.sendFrame(c, broadcast.FrameError, map[string]string{"message": message})
}
