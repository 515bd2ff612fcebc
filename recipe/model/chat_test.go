package model

import "testing"

func TestRoleConstants_AreDistinct(t *testing.T) {
	roles := []string{RoleSystem, RoleUser, RoleAssistant}
	seen := make(map[string]bool, len(roles))
	for _, r := range roles {
		if seen[r] {
			t.Fatalf("role %q is not distinct from the others: %v", r, roles)
		}
		seen[r] = true
	}
}

func TestChatOut_ZeroValueHasNoToolCalls(t *testing.T) {
	var out ChatOut
	if out.Text != "" {
		t.Errorf("Text = %q, want empty", out.Text)
	}
	if len(out.ToolCalls) != 0 {
		t.Errorf("ToolCalls = %v, want empty", out.ToolCalls)
	}
}
