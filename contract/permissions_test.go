package contract

import "testing"

func TestParsePermissions(t *testing.T) {
	perms, err := ParsePermissions([]string{"REVOKE", "ENDORSE", "REVOKE", " ISSUE "})
	if err != nil {
		t.Fatalf("ParsePermissions: %v", err)
	}
	want := []Permission{PermissionEndorse, PermissionIssue, PermissionRevoke}
	if len(perms) != len(want) {
		t.Fatalf("got %v, want %v", perms, want)
	}
	for i := range want {
		if perms[i] != want[i] {
			t.Fatalf("got %v, want %v", perms, want)
		}
	}
}

func TestParsePermissionsRejects(t *testing.T) {
	tests := map[string][]string{
		"empty":          {},
		"nil":            nil,
		"unknown tag":    {"ISSUE", "DELETE"},
		"wrong case":     {"Issue"},
		"blank tag":      {""},
		"too many items": {"ISSUE", "ISSUE", "ISSUE", "ISSUE", "ISSUE", "ISSUE", "ISSUE", "ISSUE", "ISSUE", "ISSUE", "ISSUE"},
	}
	for name, tags := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParsePermissions(tags)
			expectCode(t, err, CodeInvalidPermission)
		})
	}
}

func TestHasPermission(t *testing.T) {
	granted := []string{"ENDORSE", "ISSUE"}
	if !hasPermission(granted, PermissionIssue) || hasPermission(granted, PermissionRevoke) {
		t.Fatalf("hasPermission mismatch for %v", granted)
	}
}
