package rbac

import (
	"context"
	"testing"
)

func TestCheckerHas(t *testing.T) {
	c := NewChecker(nil)

	cases := []struct {
		role, perm string
		want       bool
	}{
		{"admin", "enrollment:transition", true}, // wildcard
		{"admin", "anything:at-all", true},
		{"staff", "enrollment:transition", true},
		{"staff", "session:answer", false},
		{"student", "session:answer", true},
		{"student", "enrollment:transition", false},
		{"candidate", "enrollment:create", true},
		{"candidate", "result:view-all", false},
		{"", "enrollment:create", false},
		{"ghost", "enrollment:create", false},
	}
	for _, tc := range cases {
		if got := c.Has(tc.role, tc.perm); got != tc.want {
			t.Errorf("Has(%q, %q) = %v, want %v", tc.role, tc.perm, got, tc.want)
		}
	}
}

func TestCheckerAny(t *testing.T) {
	c := NewChecker(nil)
	if !c.Any("student", "result:view-all", "result:view-own") {
		t.Error("student should hold result:view-own")
	}
	if c.Any("candidate", "result:view-all", "result:view-own") {
		t.Error("candidate holds no result permission")
	}
}

func TestPrefixPatterns(t *testing.T) {
	c := NewChecker(map[string][]string{"auditor": {"result:*"}})
	if !c.Has("auditor", "result:view-all") {
		t.Error("prefix pattern should match")
	}
	if c.Has("auditor", "enrollment:view") {
		t.Error("prefix pattern leaked across resource")
	}
}

func TestContextCarriesRoleAndSubject(t *testing.T) {
	ctx := WithSubject(WithRole(context.Background(), "staff"), "enr-42")
	if got := RoleFromContext(ctx); got != "staff" {
		t.Errorf("role = %q", got)
	}
	if got := SubjectFromContext(ctx); got != "enr-42" {
		t.Errorf("subject = %q", got)
	}
	if got := RoleFromContext(context.Background()); got != "" {
		t.Errorf("empty context role = %q", got)
	}
}
