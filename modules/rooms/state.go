package rooms

import (
	"errors"
	"sort"
	"sync"

	"github.com/ybro2011/Chat/domain/chat"
)

// Validation constants
const (
	MaxUsernameLength = 50
	MaxRoomCodeLength = 100
	MaxMessageLength  = 5000
)

// Validation and lifecycle errors
var (
	ErrUsernameEmpty     = errors.New("username cannot be empty")
	ErrUsernameTooLong   = errors.New("username exceeds maximum length")
	ErrRoomCodeEmpty     = errors.New("room code cannot be empty")
	ErrRoomCodeTooLong   = errors.New("room code exceeds maximum length")
	ErrDuplicateIdentity = errors.New("username is already taken")
)

// Directory maps room codes to member sets. A room exists here if and only
// if its member set is non-empty: rooms are created on first join and
// deleted the moment the last member is removed. It also keeps the capped
// per-room message history.
type Directory struct {
	mu         sync.RWMutex
	members    map[string]map[string]bool // room code -> set of usernames
	history    map[string][]chat.ChatMessage
	maxHistory int
}

// NewDirectory creates an empty directory.
func NewDirectory(maxHistory int) *Directory {
	if maxHistory <= 0 {
		maxHistory = 100
	}
	return &Directory{
		members:    make(map[string]map[string]bool),
		history:    make(map[string][]chat.ChatMessage),
		maxHistory: maxHistory,
	}
}

// AddMember inserts a username into the room's member set, creating the
// room if it does not exist. Adding an existing member is a no-op.
func (d *Directory) AddMember(code, username string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	set, ok := d.members[code]
	if !ok {
		set = make(map[string]bool)
		d.members[code] = set
	}
	set[username] = true
}

// RemoveMember removes a username from the room's member set. If the set
// becomes empty the room and its history are deleted. Returns whether the
// room still exists, so callers can skip notifications to an empty room.
func (d *Directory) RemoveMember(code, username string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	set, ok := d.members[code]
	if !ok {
		return false
	}
	delete(set, username)
	if len(set) == 0 {
		delete(d.members, code)
		delete(d.history, code)
		return false
	}
	return true
}

// HasMember reports whether the username is a member of the room.
func (d *Directory) HasMember(code, username string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.members[code][username]
}

// HasRoom reports whether the room exists.
func (d *Directory) HasRoom(code string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.members[code]
	return ok
}

// Members returns the room's member usernames, sorted.
func (d *Directory) Members(code string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return sortedMembers(d.members[code])
}

// Snapshot returns the public view of all rooms, ordered by room code.
func (d *Directory) Snapshot() []chat.RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rooms := make([]chat.RoomInfo, 0, len(d.members))
	for code, set := range d.members {
		rooms = append(rooms, chat.RoomInfo{Name: code, UserCount: len(set)})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Name < rooms[j].Name })
	return rooms
}

// Detail returns the admin view of all rooms, ordered by room code.
func (d *Directory) Detail() []chat.RoomDetail {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rooms := make([]chat.RoomDetail, 0, len(d.members))
	for code, set := range d.members {
		rooms = append(rooms, chat.RoomDetail{
			ID:        code,
			UserCount: len(set),
			Users:     sortedMembers(set),
		})
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms
}

// AddMessage appends a message to its room's history, trimming to the cap.
// Messages for rooms not in the directory are dropped.
func (d *Directory) AddMessage(msg chat.ChatMessage) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.members[msg.Room]; !ok {
		return
	}
	msgs := append(d.history[msg.Room], msg)
	if len(msgs) > d.maxHistory {
		msgs = msgs[len(msgs)-d.maxHistory:]
	}
	d.history[msg.Room] = msgs
}

// History returns a copy of the room's retained messages.
func (d *Directory) History(code string) []chat.ChatMessage {
	d.mu.RLock()
	defer d.mu.RUnlock()

	msgs, ok := d.history[code]
	if !ok || len(msgs) == 0 {
		return nil
	}
	out := make([]chat.ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}

// RoomCount returns the number of active rooms.
func (d *Directory) RoomCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.members)
}

func sortedMembers(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	users := make([]string, 0, len(set))
	for u := range set {
		users = append(users, u)
	}
	sort.Strings(users)
	return users
}

// Registry maps connection identifiers to sessions. It is the only owner of
// connection state: handlers look sessions up here on every event instead of
// stashing identity on the transport connection. It also tracks which
// connection currently holds each username.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]chat.Session // connection id -> session
	owners   map[string]string       // username -> connection id
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]chat.Session),
		owners:   make(map[string]string),
	}
}

// Bind records a session, overwriting any prior binding for the connection.
// A connection is in at most one room at a time.
func (r *Registry) Bind(sess chat.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.sessions[sess.ConnectionID]; ok {
		if r.owners[prev.Username] == sess.ConnectionID {
			delete(r.owners, prev.Username)
		}
	}
	r.sessions[sess.ConnectionID] = sess
	r.owners[sess.Username] = sess.ConnectionID
}

// Lookup returns the session bound to the connection, if any.
func (r *Registry) Lookup(connectionID string) (chat.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[connectionID]
	return sess, ok
}

// Unbind clears the connection's binding and releases its username.
// Idempotent; returns the removed session when there was one.
func (r *Registry) Unbind(connectionID string) (chat.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.sessions[connectionID]
	if !ok {
		return chat.Session{}, false
	}
	delete(r.sessions, connectionID)
	if r.owners[sess.Username] == connectionID {
		delete(r.owners, sess.Username)
	}
	return sess, true
}

// Owner returns the connection currently holding the username.
func (r *Registry) Owner(username string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.owners[username]
	return id, ok
}

// OwnerInRoom returns the connection bound to this username in this room.
// Unlike Owner it resolves correctly when the same username is bound in
// several rooms.
func (r *Registry) OwnerInRoom(username, roomCode string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, sess := range r.sessions {
		if sess.Username == username && sess.RoomCode == roomCode {
			return id, true
		}
	}
	return "", false
}

// UsernameActive reports whether any session holds the username.
func (r *Registry) UsernameActive(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.owners[username]
	return ok
}

// Count returns the number of bound sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
