package contract

import (
	"sort"
	"strings"
)

// Permission is an action a delegate may be granted on an institution's behalf.
type Permission string

const (
	PermissionIssue   Permission = "ISSUE"
	PermissionRevoke  Permission = "REVOKE"
	PermissionEndorse Permission = "ENDORSE"
)

// ValidPermissions defines the closed permission vocabulary.
var ValidPermissions = map[Permission]bool{
	PermissionIssue:   true,
	PermissionRevoke:  true,
	PermissionEndorse: true,
}

func listOfValidPermissions() []string {
	keys := make([]string, 0, len(ValidPermissions))
	for p := range ValidPermissions {
		keys = append(keys, string(p))
	}
	sort.Strings(keys)
	return keys
}

// ParsePermissions validates raw tags and returns them sorted and de-duplicated.
// Tags are case-sensitive; an empty set is rejected since such a grant could never authorize anything.
func ParsePermissions(tags []string) ([]Permission, error) {
	if len(tags) == 0 {
		return nil, newLedgerError(CodeInvalidPermission, "permissions cannot be empty. Valid permissions are: %v", listOfValidPermissions())
	}
	if len(tags) > maxPermissionTags {
		return nil, newLedgerError(CodeInvalidPermission, "permissions list has %d items, exceeding maximum of %d", len(tags), maxPermissionTags)
	}
	seen := make(map[Permission]bool, len(tags))
	for _, tag := range tags {
		p := Permission(strings.TrimSpace(tag))
		if !ValidPermissions[p] {
			return nil, newLedgerError(CodeInvalidPermission, "invalid permission: '%s'. Valid permissions are: %v", tag, listOfValidPermissions())
		}
		seen[p] = true
	}
	out := make([]Permission, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func permissionStrings(perms []Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

func hasPermission(granted []string, action Permission) bool {
	for _, p := range granted {
		if Permission(p) == action {
			return true
		}
	}
	return false
}
