package authz

import "testing"

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern, required string
		want              bool
	}{
		{"*", "voiceprint:read", true},
		{"*:*", "voiceprint:delete", true},
		{"voiceprint:*", "voiceprint:write", true},
		{"*:read", "voiceprint:read", true},
		{"*:read", "voiceprint:write", false},
		{"voiceprint:read", "voiceprint:read", true},
		{"voiceprint:read", "voiceprint:readall", false},
		{"voiceprint", "voiceprint:read", false},
		{"admin", "admin", true},
	}
	for _, tt := range tests {
		if got := MatchPattern(tt.pattern, tt.required); got != tt.want {
			t.Errorf("MatchPattern(%q, %q) = %v, want %v", tt.pattern, tt.required, got, tt.want)
		}
	}
}

func TestCanActOn(t *testing.T) {
	checker := NewMapChecker(map[string][]string{
		"ops":     {"voiceprint:*"},
		"auditor": {"voiceprint:read"},
	})
	tests := []struct {
		name                      string
		subject, owner, permission string
		want                      bool
	}{
		{"self", "alice", "alice", VoicePrintDelete, true},
		{"api key caller", "", "alice", VoicePrintDelete, true},
		{"stranger", "bob", "alice", VoicePrintRead, false},
		{"auditor reads", "auditor", "alice", VoicePrintRead, true},
		{"auditor cannot delete", "auditor", "alice", VoicePrintDelete, false},
		{"ops verifies", "ops", "alice", VoicePrintVerify, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanActOn(checker, tt.subject, tt.owner, tt.permission); got != tt.want {
				t.Errorf("CanActOn = %v, want %v", got, tt.want)
			}
		})
	}
	if CanActOn(nil, "bob", "alice", VoicePrintRead) {
		t.Error("nil checker must only allow self")
	}
}
