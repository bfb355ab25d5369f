package authz

import "strings"

// MatchPattern reports whether pattern grants required. Both are
// "resource:action"; either half may be "*" and a bare "*" matches all.
// Values without a separator compare as plain names.
func MatchPattern(pattern, required string) bool {
	if pattern == required || pattern == "*" || pattern == "*:*" {
		return true
	}
	patRes, patAct, patOK := strings.Cut(pattern, ":")
	reqRes, reqAct, reqOK := strings.Cut(required, ":")
	if !patOK || !reqOK {
		return false
	}
	return matchPart(patRes, reqRes) && matchPart(patAct, reqAct)
}

// MatchAny reports whether any pattern grants required.
func MatchAny(patterns []string, required string) bool {
	for _, p := range patterns {
		if MatchPattern(p, required) {
			return true
		}
	}
	return false
}

func matchPart(pattern, value string) bool {
	return pattern == "*" || pattern == value
}
