package broadcast

import "testing"

// Tests drive the handlers directly instead of going through Run, so no
// goroutine or real connection is needed.

func TestHubRegisterUnregister(t *testing.T) {
	h := NewHub()

	c := &Client{ID: "c1"}
	h.handleRegister(c)
	if got := h.ClientCount(); got != 1 {
		t.Fatalf("ClientCount = %d, want 1", got)
	}
	if h.GetClient("c1") != c {
		t.Fatal("GetClient should return the registered client")
	}

	h.handleUnregister(c)
	if got := h.ClientCount(); got != 0 {
		t.Fatalf("ClientCount after unregister = %d, want 0", got)
	}
	if h.GetClient("c1") != nil {
		t.Fatal("unregistered client should be gone")
	}
}

func TestHubRegisterWithRoom(t *testing.T) {
	h := NewHub()

	h.handleRegister(&Client{ID: "c1", RoomID: "bio1"})
	if got := h.RoomClientCount("bio1"); got != 1 {
		t.Fatalf("RoomClientCount = %d, want 1", got)
	}
}

func TestHubJoinRoomMovesClient(t *testing.T) {
	h := NewHub()
	h.handleRegister(&Client{ID: "c1"})

	h.JoinRoom("c1", "bio1")
	if got := h.RoomClientCount("bio1"); got != 1 {
		t.Fatalf("RoomClientCount(bio1) = %d, want 1", got)
	}

	h.JoinRoom("c1", "chem2")
	if got := h.RoomClientCount("bio1"); got != 0 {
		t.Errorf("RoomClientCount(bio1) after move = %d, want 0", got)
	}
	if got := h.RoomClientCount("chem2"); got != 1 {
		t.Errorf("RoomClientCount(chem2) = %d, want 1", got)
	}
	if got := h.GetClient("c1").RoomID; got != "chem2" {
		t.Errorf("client RoomID = %q, want chem2", got)
	}
}

func TestHubJoinRoomUnknownClient(t *testing.T) {
	h := NewHub()

	h.JoinRoom("ghost", "bio1")
	if got := h.RoomClientCount("bio1"); got != 0 {
		t.Errorf("RoomClientCount = %d, want 0", got)
	}
}

func TestHubLeaveRoom(t *testing.T) {
	h := NewHub()
	h.handleRegister(&Client{ID: "c1"})
	h.handleRegister(&Client{ID: "c2"})
	h.JoinRoom("c1", "bio1")
	h.JoinRoom("c2", "bio1")

	h.LeaveRoom("c1")
	if got := h.RoomClientCount("bio1"); got != 1 {
		t.Fatalf("RoomClientCount = %d, want 1", got)
	}
	if got := h.GetClient("c1").RoomID; got != "" {
		t.Errorf("client RoomID = %q, want empty", got)
	}

	// Room set is deleted when the last client leaves.
	h.LeaveRoom("c2")
	h.mu.RLock()
	_, exists := h.rooms["bio1"]
	h.mu.RUnlock()
	if exists {
		t.Error("empty room should be removed from the hub")
	}

	// Leaving again or with no room is a no-op.
	h.LeaveRoom("c2")
	h.LeaveRoom("ghost")
}

func TestHubUnregisterRemovesRoomMembership(t *testing.T) {
	h := NewHub()
	c := &Client{ID: "c1"}
	h.handleRegister(c)
	h.JoinRoom("c1", "bio1")

	h.handleUnregister(c)
	if got := h.RoomClientCount("bio1"); got != 0 {
		t.Errorf("RoomClientCount after unregister = %d, want 0", got)
	}
}
