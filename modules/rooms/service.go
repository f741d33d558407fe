package rooms

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-monolith/mono"

	"github.com/ybro2011/Chat/domain/chat"
	"github.com/ybro2011/Chat/events"
)

// timeLayout reproduces the human-readable timestamps of the wire protocol.
const timeLayout = "3:04:05 PM"

// Options configures a Service.
type Options struct {
	// AdminRoomCode is the room code that marks the administrative surface.
	// Joining it binds an admin session instead of joining a chat room.
	AdminRoomCode string

	// UniqueUsernames enforces global username uniqueness at join time.
	UniqueUsernames bool

	// HistoryLimit caps the retained messages per room.
	HistoryLimit int

	Logger *slog.Logger
}

// Service is the room/session state machine: it owns the Room Directory and
// Connection Registry, orchestrates join/leave/disconnect, relays messages
// and handles moderation. One instance is constructed per process and every
// operation runs to completion under its lock.
type Service struct {
	mu     sync.Mutex
	dir    *Directory
	reg    *Registry
	bus    mono.EventBus
	logger *slog.Logger
	opts   Options
	now    func() time.Time
}

// NewService creates a service with empty state.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		dir:    NewDirectory(opts.HistoryLimit),
		reg:    NewRegistry(),
		logger: logger,
		opts:   opts,
		now:    time.Now,
	}
}

// SetEventBus wires the event bus used for outbound notifications. Without a
// bus the service still mutates state but emits nothing; tests rely on this.
func (s *Service) SetEventBus(bus mono.EventBus) {
	s.bus = bus
}

// JoinResult tells the caller what to deliver to the joining connection.
type JoinResult struct {
	// Admin is set when the join targeted the administrative surface; the
	// connection was not added to any chat room.
	Admin bool

	// AdminRooms is the detail snapshot for an admin join.
	AdminRooms []chat.RoomDetail

	// History is the room's retained messages, replayed to the joiner.
	History []chat.ChatMessage
}

// Join validates the identity, binds the connection and adds it to the room,
// creating the room on first join. A connection that is already joined is
// moved: its previous membership is released first. Room members are
// notified and the directory broadcast to everyone. A rejected join leaves
// all state untouched, including the requester's current membership.
func (s *Service) Join(connectionID, username, roomCode string) (*JoinResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := validateJoin(username, roomCode); err != nil {
		return nil, err
	}

	// Conflicts are checked before the requester's current membership is
	// released. The connection's own binding is never a conflict, so a
	// rebind under the same name still works. Without global uniqueness,
	// names are still unique within a room: the member set holds one
	// entry per name, so a second binding would alias the first.
	if s.opts.UniqueUsernames {
		if owner, ok := s.reg.Owner(username); ok && owner != connectionID {
			return nil, fmt.Errorf("join %q as %q: %w", roomCode, username, ErrDuplicateIdentity)
		}
	} else if s.dir.HasMember(roomCode, username) && !s.holdsBinding(connectionID, username, roomCode) {
		return nil, fmt.Errorf("join %q as %q: %w", roomCode, username, ErrDuplicateIdentity)
	}

	// The join is accepted; a duplicate join by the same connection
	// rebinds rather than duplicates, so release any current membership.
	s.leaveLocked(connectionID, false)

	if roomCode == s.opts.AdminRoomCode {
		s.reg.Bind(chat.Session{
			ConnectionID: connectionID,
			Username:     username,
			RoomCode:     roomCode,
			Admin:        true,
		})
		s.logger.Info("admin joined", "connection", connectionID, "username", username)
		return &JoinResult{Admin: true, AdminRooms: s.dir.Detail()}, nil
	}

	s.dir.AddMember(roomCode, username)
	s.reg.Bind(chat.Session{
		ConnectionID: connectionID,
		Username:     username,
		RoomCode:     roomCode,
	})

	s.emitUserJoined(events.UserJoinedEvent{
		RoomCode: roomCode,
		Username: username,
		Message:  username + " has joined the chat",
		Time:     s.timestamp(),
		Users:    s.dir.Members(roomCode),
	})
	s.emitDirectory()

	s.logger.Info("user joined room", "connection", connectionID, "username", username, "room", roomCode)
	return &JoinResult{History: s.dir.History(roomCode)}, nil
}

// Leave releases the connection's membership and binding. It serves both the
// explicit leaveGroup command and the transport disconnect; a connection
// with no session is ignored.
func (s *Service) Leave(connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leaveLocked(connectionID, true)
}

// leaveLocked removes the member from its room, deletes the room when
// emptied, releases the username and unbinds the connection. Remaining room
// members are notified unless the room was just deleted.
func (s *Service) leaveLocked(connectionID string, logExit bool) {
	sess, ok := s.reg.Unbind(connectionID)
	if !ok {
		return
	}
	if sess.Admin {
		if logExit {
			s.logger.Info("admin left", "connection", connectionID, "username", sess.Username)
		}
		return
	}

	if s.dir.RemoveMember(sess.RoomCode, sess.Username) {
		s.emitUserLeft(events.UserLeftEvent{
			RoomCode: sess.RoomCode,
			Username: sess.Username,
			Message:  sess.Username + " has left the chat",
			Time:     s.timestamp(),
			Users:    s.dir.Members(sess.RoomCode),
		})
	}
	s.emitDirectory()

	if logExit {
		s.logger.Info("user left room", "connection", connectionID, "username", sess.Username, "room", sess.RoomCode)
	}
}

// Relay stamps a message with the sender's bound identity and room plus a
// server timestamp and fans it out to the room, sender included. Messages
// from connections with no session are dropped.
func (s *Service) Relay(connectionID, text string) (*chat.ChatMessage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.reg.Lookup(connectionID)
	if !ok || sess.Admin {
		return nil, false
	}
	if text == "" || len(text) > MaxMessageLength {
		return nil, false
	}

	msg := chat.ChatMessage{
		User: sess.Username,
		Text: text,
		Time: s.timestamp(),
		Room: sess.RoomCode,
	}
	s.dir.AddMessage(msg)
	s.emitMessage(events.MessageRelayedEvent{Message: msg})
	return &msg, true
}

// Kick force-removes a named member from a room. The target connection is
// told it was kicked and logged out, remaining members get a departure
// notice with kick wording, and the directory is rebroadcast. Reports
// whether the member was found; an unknown target mutates nothing.
func (s *Service) Kick(roomCode, username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.dir.HasMember(roomCode, username) {
		return false
	}

	if connID, ok := s.reg.OwnerInRoom(username, roomCode); ok {
		s.emitUserKicked(events.UserKickedEvent{
			ConnectionID: connID,
			RoomCode:     roomCode,
			Username:     username,
			Message:      "You have been kicked from the room",
		})
		s.reg.Unbind(connID)
	}

	if s.dir.RemoveMember(roomCode, username) {
		s.emitUserLeft(events.UserLeftEvent{
			RoomCode: roomCode,
			Username: username,
			Message:  username + " has been kicked from the chat",
			Time:     s.timestamp(),
			Users:    s.dir.Members(roomCode),
		})
	}
	s.emitDirectory()

	s.logger.Info("user kicked", "username", username, "room", roomCode)
	return true
}

// Snapshot returns the public directory view.
func (s *Service) Snapshot() []chat.RoomInfo {
	return s.dir.Snapshot()
}

// AdminSnapshot returns the directory view with member detail.
func (s *Service) AdminSnapshot() []chat.RoomDetail {
	return s.dir.Detail()
}

// SessionCount returns the number of bound sessions.
func (s *Service) SessionCount() int {
	return s.reg.Count()
}

// holdsBinding reports whether the connection itself occupies this
// username in this room.
func (s *Service) holdsBinding(connectionID, username, roomCode string) bool {
	sess, ok := s.reg.Lookup(connectionID)
	return ok && sess.Username == username && sess.RoomCode == roomCode
}

func (s *Service) timestamp() string {
	return s.now().Format(timeLayout)
}

func validateJoin(username, roomCode string) error {
	switch {
	case username == "":
		return ErrUsernameEmpty
	case len(username) > MaxUsernameLength:
		return ErrUsernameTooLong
	case roomCode == "":
		return ErrRoomCodeEmpty
	case len(roomCode) > MaxRoomCodeLength:
		return ErrRoomCodeTooLong
	}
	return nil
}

func (s *Service) emitUserJoined(ev events.UserJoinedEvent) {
	if s.bus == nil {
		return
	}
	if err := events.UserJoinedV1.Publish(s.bus, ev, nil); err != nil {
		s.logger.Warn("publish UserJoined", "error", err)
	}
}

func (s *Service) emitUserLeft(ev events.UserLeftEvent) {
	if s.bus == nil {
		return
	}
	if err := events.UserLeftV1.Publish(s.bus, ev, nil); err != nil {
		s.logger.Warn("publish UserLeft", "error", err)
	}
}

func (s *Service) emitMessage(ev events.MessageRelayedEvent) {
	if s.bus == nil {
		return
	}
	if err := events.MessageRelayedV1.Publish(s.bus, ev, nil); err != nil {
		s.logger.Warn("publish MessageRelayed", "error", err)
	}
}

func (s *Service) emitUserKicked(ev events.UserKickedEvent) {
	if s.bus == nil {
		return
	}
	if err := events.UserKickedV1.Publish(s.bus, ev, nil); err != nil {
		s.logger.Warn("publish UserKicked", "error", err)
	}
}

func (s *Service) emitDirectory() {
	if s.bus == nil {
		return
	}
	ev := events.DirectoryChangedEvent{Rooms: s.dir.Snapshot(), Detail: s.dir.Detail()}
	if err := events.DirectoryChangedV1.Publish(s.bus, ev, nil); err != nil {
		s.logger.Warn("publish DirectoryChanged", "error", err)
	}
}
