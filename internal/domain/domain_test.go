package domain

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNewUser(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		username string
		wantName string
		wantErr  error
	}{
		{name: "id and name", id: "alice", username: "Alice", wantName: "Alice"},
		{name: "name falls back to id", id: "bob", username: "  ", wantName: "bob"},
		{name: "empty id", id: " ", wantErr: ErrUserIDEmpty},
		{name: "long id", id: strings.Repeat("x", MaxUserIDLen+1), wantErr: ErrUserIDTooLong},
		{name: "long name", id: "carol", username: strings.Repeat("y", MaxUsernameLen+1), wantErr: ErrUsernameTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewUser(tt.id, tt.username)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if u.Username != tt.wantName {
				t.Errorf("username = %q, want %q", u.Username, tt.wantName)
			}
		})
	}
}

func TestParseRoomID(t *testing.T) {
	if _, err := ParseRoomID(""); !errors.Is(err, ErrRoomIDEmpty) {
		t.Errorf("empty: err = %v", err)
	}
	if _, err := ParseRoomID(strings.Repeat("r", MaxRoomIDLen+1)); !errors.Is(err, ErrRoomIDTooLong) {
		t.Errorf("long: err = %v", err)
	}
	id, err := ParseRoomID(" r1 ")
	if err != nil || id != "r1" {
		t.Errorf("got %q, %v", id, err)
	}
}

func TestNewErrorEventHidesCause(t *testing.T) {
	err := fmt.Errorf("%w: dial tcp 10.0.0.1:5432: connection refused", ErrPersistence)
	ev := NewErrorEvent(err)
	if ev.Code != CodePersistence {
		t.Errorf("code = %s", ev.Code)
	}
	if strings.Contains(ev.Message, "10.0.0.1") {
		t.Errorf("message leaks cause: %s", ev.Message)
	}

	ev = NewErrorEvent(errors.New("boom"))
	if ev.Code != CodeInternal || ev.Message != "internal error" {
		t.Errorf("unknown error mapped to %+v", ev)
	}
}
