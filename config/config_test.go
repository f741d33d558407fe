package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "3000" {
		t.Errorf("Port = %q, want 3000", cfg.Port)
	}
	if cfg.AdminRoomCode != "main" {
		t.Errorf("AdminRoomCode = %q, want main", cfg.AdminRoomCode)
	}
	if !cfg.UniqueUsernames {
		t.Error("UniqueUsernames should default to true")
	}
	if cfg.HistoryLimit != 100 {
		t.Errorf("HistoryLimit = %d, want 100", cfg.HistoryLimit)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 30s", cfg.ShutdownTimeout)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("ADMIN_ROOM_CODE", "staff")
	t.Setenv("UNIQUE_USERNAMES", "false")
	t.Setenv("HISTORY_LIMIT", "25")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.AdminRoomCode != "staff" {
		t.Errorf("AdminRoomCode = %q, want staff", cfg.AdminRoomCode)
	}
	if cfg.UniqueUsernames {
		t.Error("UniqueUsernames should be overridable to false")
	}
	if cfg.HistoryLimit != 25 {
		t.Errorf("HistoryLimit = %d, want 25", cfg.HistoryLimit)
	}
}
