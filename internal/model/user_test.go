package model

import (
	"strings"
	"testing"
)

func TestRoleAtLeastHierarchy(t *testing.T) {
	// Ordered from least to most privileged.
	ranked := []string{RoleUser, RoleManager, RoleAdmin}

	for i, role := range ranked {
		for j, minimum := range ranked {
			want := i >= j
			if got := RoleAtLeast(role, minimum); got != want {
				t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", role, minimum, got, want)
			}
		}
	}
}

func TestRoleAtLeastUnknown(t *testing.T) {
	tests := []struct {
		role, minimum string
	}{
		{"unknown", RoleUser},
		{RoleAdmin, "unknown"},
		{"", ""},
		{"Manager", RoleManager},
	}

	for _, tt := range tests {
		if RoleAtLeast(tt.role, tt.minimum) {
			t.Errorf("RoleAtLeast(%q, %q) = true, want false", tt.role, tt.minimum)
		}
	}
}

func TestValidRole(t *testing.T) {
	for _, role := range []string{RoleAdmin, RoleManager, RoleUser} {
		if !ValidRole(role) {
			t.Errorf("expected %q to be valid", role)
		}
	}
	for _, role := range []string{"", "owner", "ADMIN"} {
		if ValidRole(role) {
			t.Errorf("expected %q to be invalid", role)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		wantErr  bool
	}{
		{"", true},
		{strings.Repeat("x", MinPasswordLength-1), true},
		{strings.Repeat("x", MinPasswordLength), false},
		{"correct horse battery", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidatePassword(%q) error = %v, wantErr %v", tt.password, err, tt.wantErr)
		}
	}
}
