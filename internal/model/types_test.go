package model

import (
	"errors"
	"testing"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		role    Role
		wantErr bool
	}{
		{RoleUser, false},
		{RoleModel, false},
		{"assistant", true},
		{"", true},
	}

	for _, tt := range tests {
		msg, err := NewMessage(tt.role, "hi")
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidRole) {
				t.Errorf("NewMessage(%q) err = %v; want ErrInvalidRole", tt.role, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("NewMessage(%q) unexpected error: %v", tt.role, err)
		}
		if msg.Role != tt.role || msg.Content != "hi" {
			t.Errorf("NewMessage(%q) = %+v", tt.role, msg)
		}
	}
}

func TestActionTypeValid(t *testing.T) {
	for _, at := range []ActionType{ActionCreate, ActionUpdate, ActionDelete} {
		if !at.Valid() {
			t.Errorf("%s should be valid", at)
		}
	}
	for _, at := range []ActionType{"create", "RENAME", ""} {
		if at.Valid() {
			t.Errorf("%q should be invalid", at)
		}
	}
}
