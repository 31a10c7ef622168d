package auth

import (
	"context"
	"testing"
)

func TestRolePermissionsSubset(t *testing.T) {
	allowed := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		allowed[perm] = struct{}{}
	}

	for role, perms := range RolePermissions {
		if len(perms) == 0 {
			t.Fatalf("role %s has no permissions", role)
		}
		for _, perm := range perms {
			if _, ok := allowed[perm]; !ok {
				t.Fatalf("role %s has unknown permission %s", role, perm)
			}
		}
	}
}

func TestDefaultPermissionsUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		if _, ok := seen[perm]; ok {
			t.Fatalf("duplicate permission %s", perm)
		}
		seen[perm] = struct{}{}
	}
}

func TestPermissionTable(t *testing.T) {
	table := DefaultPermissionTable()
	ok, err := table.HasPermission(context.Background(), RoleHR, PermReviewsManage)
	if err != nil || !ok {
		t.Fatalf("expected hr to manage reviews, got %v %v", ok, err)
	}
	ok, _ = table.HasPermission(context.Background(), RoleEmployee, PermReviewsManage)
	if ok {
		t.Fatal("employee must not manage reviews")
	}
	ok, _ = table.HasPermission(context.Background(), "guest", PermOrgRead)
	if ok {
		t.Fatal("unknown role must have no permissions")
	}
}
