// Package authz decides what an authenticated caller may do to an identity
// other than its own.
//
// Permissions are "resource:action" patterns with "*" wildcards:
//
//	checker := authz.NewMapChecker(map[string][]string{
//	    "ops-admin": {"voiceprint:*"},
//	    "auditor":   {"voiceprint:read"},
//	})
//	checker.HasPermission("auditor", authz.VoicePrintRead) // true
package authz
