package rooms

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(opts Options) *Service {
	opts.Logger = slog.New(slog.DiscardHandler)
	return NewService(opts)
}

func TestServiceJoinTwoUsers(t *testing.T) {
	svc := newTestService(Options{AdminRoomCode: "main", UniqueUsernames: true})

	res, err := svc.Join("c1", "alice", "bio1")
	require.NoError(t, err)
	assert.False(t, res.Admin)
	assert.Empty(t, res.History)

	_, err = svc.Join("c2", "bob", "bio1")
	require.NoError(t, err)

	snapshot := svc.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "bio1", snapshot[0].Name)
	assert.Equal(t, 2, snapshot[0].UserCount)

	detail := svc.AdminSnapshot()
	require.Len(t, detail, 1)
	assert.Equal(t, []string{"alice", "bob"}, detail[0].Users)
	assert.Equal(t, 2, svc.SessionCount())
}

func TestServiceJoinDuplicateIdentity(t *testing.T) {
	svc := newTestService(Options{AdminRoomCode: "main", UniqueUsernames: true})

	_, err := svc.Join("c1", "alice", "bio1")
	require.NoError(t, err)

	_, err = svc.Join("c2", "alice", "chem2")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDuplicateIdentity))

	// Rejected join must leave no trace.
	snapshot := svc.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "bio1", snapshot[0].Name)
	assert.Equal(t, 1, svc.SessionCount())
}

func TestServiceJoinValidation(t *testing.T) {
	svc := newTestService(Options{AdminRoomCode: "main"})

	tests := []struct {
		name     string
		username string
		roomCode string
		wantErr  error
	}{
		{"empty username", "", "bio1", ErrUsernameEmpty},
		{"username too long", strings.Repeat("a", MaxUsernameLength+1), "bio1", ErrUsernameTooLong},
		{"empty room code", "alice", "", ErrRoomCodeEmpty},
		{"room code too long", "alice", strings.Repeat("r", MaxRoomCodeLength+1), ErrRoomCodeTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Join("c1", tt.username, tt.roomCode)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Equal(t, 0, svc.SessionCount())
}

func TestServiceRejectedRejoinKeepsCurrentState(t *testing.T) {
	svc := newTestService(Options{AdminRoomCode: "main", UniqueUsernames: true})

	_, err := svc.Join("c1", "alice", "bio1")
	require.NoError(t, err)
	_, err = svc.Join("c2", "bob", "chem2")
	require.NoError(t, err)

	// The rejected rejoin must not tear down c1's existing session.
	_, err = svc.Join("c1", "bob", "chem2")
	require.ErrorIs(t, err, ErrDuplicateIdentity)

	assert.Equal(t, 2, svc.SessionCount())
	detail := svc.AdminSnapshot()
	require.Len(t, detail, 2)
	assert.Equal(t, "bio1", detail[0].ID)
	assert.Equal(t, []string{"alice"}, detail[0].Users)
	assert.Equal(t, "chem2", detail[1].ID)
	assert.Equal(t, []string{"bob"}, detail[1].Users)

	msg, delivered := svc.Relay("c1", "still here")
	require.True(t, delivered)
	assert.Equal(t, "alice", msg.User)
	assert.Equal(t, "bio1", msg.Room)
}

func TestServiceJoinSameNameInRoomWithoutGlobalUniqueness(t *testing.T) {
	svc := newTestService(Options{AdminRoomCode: "main", UniqueUsernames: false})

	_, err := svc.Join("c1", "alice", "bio1")
	require.NoError(t, err)

	// The name may be reused across rooms but not inside one room.
	_, err = svc.Join("c2", "alice", "chem2")
	require.NoError(t, err)
	_, err = svc.Join("c3", "alice", "bio1")
	require.ErrorIs(t, err, ErrDuplicateIdentity)

	// Rebinding under the occupied name is still allowed for the holder.
	_, err = svc.Join("c1", "alice", "bio1")
	require.NoError(t, err)

	// Each room keeps its own member: one leaving does not evict the other.
	svc.Leave("c1")
	snapshot := svc.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "chem2", snapshot[0].Name)
	_, delivered := svc.Relay("c2", "hi")
	assert.True(t, delivered)
}

func TestServiceKickTargetsRoomBinding(t *testing.T) {
	svc := newTestService(Options{AdminRoomCode: "main", UniqueUsernames: false})

	_, err := svc.Join("c1", "alice", "bio1")
	require.NoError(t, err)
	_, err = svc.Join("c2", "alice", "chem2")
	require.NoError(t, err)

	require.True(t, svc.Kick("bio1", "alice"))

	// Only the bio1 binding is gone.
	assert.Equal(t, 1, svc.SessionCount())
	snapshot := svc.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "chem2", snapshot[0].Name)
	_, delivered := svc.Relay("c2", "hi")
	assert.True(t, delivered)
	_, delivered = svc.Relay("c1", "gone")
	assert.False(t, delivered)
}

func TestServiceRejoinMovesConnection(t *testing.T) {
	svc := newTestService(Options{AdminRoomCode: "main", UniqueUsernames: true})

	_, err := svc.Join("c1", "alice", "bio1")
	require.NoError(t, err)

	_, err = svc.Join("c1", "alice", "chem2")
	require.NoError(t, err)

	snapshot := svc.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "chem2", snapshot[0].Name)
	assert.Equal(t, 1, svc.SessionCount())
}

func TestServiceRelay(t *testing.T) {
	svc := newTestService(Options{AdminRoomCode: "main"})

	_, err := svc.Join("c1", "alice", "bio1")
	require.NoError(t, err)

	msg, delivered := svc.Relay("c1", "hello room")
	require.True(t, delivered)
	assert.Equal(t, "alice", msg.User)
	assert.Equal(t, "bio1", msg.Room)
	assert.Equal(t, "hello room", msg.Text)
	assert.NotEmpty(t, msg.Time)
}

func TestServiceRelayDrops(t *testing.T) {
	svc := newTestService(Options{AdminRoomCode: "main"})

	_, err := svc.Join("c1", "alice", "bio1")
	require.NoError(t, err)

	tests := []struct {
		name   string
		connID string
		text   string
	}{
		{"no session", "ghost", "hello"},
		{"empty text", "c1", ""},
		{"oversized text", "c1", strings.Repeat("x", MaxMessageLength+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, delivered := svc.Relay(tt.connID, tt.text)
			assert.False(t, delivered)
			assert.Nil(t, msg)
		})
	}
}

func TestServiceRelayFromAdminDropped(t *testing.T) {
	svc := newTestService(Options{AdminRoomCode: "main"})

	_, err := svc.Join("c1", "teacher", "main")
	require.NoError(t, err)

	_, delivered := svc.Relay("c1", "hello")
	assert.False(t, delivered)
}

func TestServiceLeaveDeletesEmptyRoomAndReleasesUsername(t *testing.T) {
	svc := newTestService(Options{AdminRoomCode: "main", UniqueUsernames: true})

	_, err := svc.Join("c1", "alice", "bio1")
	require.NoError(t, err)

	svc.Leave("c1")
	assert.Empty(t, svc.Snapshot())
	assert.Equal(t, 0, svc.SessionCount())

	// Released username is immediately reusable.
	_, err = svc.Join("c2", "alice", "bio1")
	require.NoError(t, err)
}

func TestServiceLeaveUnknownConnection(t *testing.T) {
	svc := newTestService(Options{AdminRoomCode: "main"})

	_, err := svc.Join("c1", "alice", "bio1")
	require.NoError(t, err)

	svc.Leave("ghost")
	assert.Len(t, svc.Snapshot(), 1)
	assert.Equal(t, 1, svc.SessionCount())
}

func TestServiceKick(t *testing.T) {
	svc := newTestService(Options{AdminRoomCode: "main", UniqueUsernames: true})

	_, err := svc.Join("c1", "alice", "bio1")
	require.NoError(t, err)
	_, err = svc.Join("c2", "bob", "bio1")
	require.NoError(t, err)

	require.True(t, svc.Kick("bio1", "bob"))

	detail := svc.AdminSnapshot()
	require.Len(t, detail, 1)
	assert.Equal(t, []string{"alice"}, detail[0].Users)

	// Kicked connection lost its session and its username is free again.
	assert.Equal(t, 1, svc.SessionCount())
	_, err = svc.Join("c3", "bob", "chem2")
	require.NoError(t, err)
}

func TestServiceKickUnknownTarget(t *testing.T) {
	svc := newTestService(Options{AdminRoomCode: "main"})

	_, err := svc.Join("c1", "alice", "bio1")
	require.NoError(t, err)

	assert.False(t, svc.Kick("bio1", "ghost"))
	assert.False(t, svc.Kick("nope", "alice"))

	detail := svc.AdminSnapshot()
	require.Len(t, detail, 1)
	assert.Equal(t, []string{"alice"}, detail[0].Users)
	assert.Equal(t, 1, svc.SessionCount())
}

func TestServiceKickLastMemberDeletesRoom(t *testing.T) {
	svc := newTestService(Options{AdminRoomCode: "main"})

	_, err := svc.Join("c1", "alice", "bio1")
	require.NoError(t, err)

	require.True(t, svc.Kick("bio1", "alice"))
	assert.Empty(t, svc.Snapshot())
	assert.Equal(t, 0, svc.SessionCount())
}

func TestServiceAdminJoin(t *testing.T) {
	svc := newTestService(Options{AdminRoomCode: "main", UniqueUsernames: true})

	_, err := svc.Join("c1", "alice", "bio1")
	require.NoError(t, err)

	res, err := svc.Join("c9", "teacher", "main")
	require.NoError(t, err)
	assert.True(t, res.Admin)
	require.Len(t, res.AdminRooms, 1)
	assert.Equal(t, "bio1", res.AdminRooms[0].ID)

	// The admin surface is not a chat room.
	snapshot := svc.Snapshot()
	require.Len(t, snapshot, 1)
	assert.Equal(t, "bio1", snapshot[0].Name)
	assert.Equal(t, 1, snapshot[0].UserCount)
	assert.Equal(t, 2, svc.SessionCount())
}

func TestServiceHistoryReplayedToJoiner(t *testing.T) {
	svc := newTestService(Options{AdminRoomCode: "main", HistoryLimit: 5})

	_, err := svc.Join("c1", "alice", "bio1")
	require.NoError(t, err)

	_, delivered := svc.Relay("c1", "first")
	require.True(t, delivered)
	_, delivered = svc.Relay("c1", "second")
	require.True(t, delivered)

	res, err := svc.Join("c2", "bob", "bio1")
	require.NoError(t, err)
	require.Len(t, res.History, 2)
	assert.Equal(t, "first", res.History[0].Text)
	assert.Equal(t, "second", res.History[1].Text)
	fresh, err := svc.Join("c3", "carol", "fresh")
	require.NoError(t, err)
	assert.Empty(t, fresh.History)
}
