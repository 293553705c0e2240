package id

import (
	"strings"
	"testing"
)

func TestNewLocalSessionID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		got := NewLocalSessionID()
		if !strings.HasPrefix(got, LocalSessionPrefix+"_") {
			t.Fatalf("expected %q prefix, got %s", LocalSessionPrefix, got)
		}
		if IsBackend(got) {
			t.Fatalf("local id %s classified as backend id", got)
		}
		if seen[got] {
			t.Fatalf("duplicate id generated: %s", got)
		}
		seen[got] = true
	}
}

func TestNewMessageID(t *testing.T) {
	got := NewMessageID()
	if !strings.HasPrefix(got, MessagePrefix+"_") {
		t.Errorf("expected %q prefix, got %s", MessagePrefix, got)
	}
	if got == NewMessageID() {
		t.Error("message ids should be unique")
	}
}

func TestIsBackend(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"1", true},
		{"42", true},
		{"007", true},
		{"", false},
		{"local_01HZX", false},
		{"msg_4f2c", false},
		{"12a", false},
		{"-1", false},
		{"1.5", false},
	}

	for _, tt := range tests {
		if got := IsBackend(tt.id); got != tt.want {
			t.Errorf("IsBackend(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
