package authz

// Voiceprint permissions checked when a caller acts on another user id.
const (
	VoicePrintRead   = "voiceprint:read"
	VoicePrintWrite  = "voiceprint:write"
	VoicePrintDelete = "voiceprint:delete"
	// VoicePrintVerify lets a caller verify audio against another user's
	// voiceprint during transcription.
	VoicePrintVerify = "voiceprint:verify"
)

// Checker reports whether subject holds permission.
type Checker interface {
	HasPermission(subject, permission string) bool
}

// CheckerFunc adapts a function to Checker.
type CheckerFunc func(subject, permission string) bool

func (f CheckerFunc) HasPermission(subject, permission string) bool {
	return f(subject, permission)
}

// MapChecker grants static permission patterns per subject.
type MapChecker struct {
	permissions map[string][]string
}

// NewMapChecker creates a MapChecker. A nil map grants nothing.
func NewMapChecker(permissions map[string][]string) *MapChecker {
	return &MapChecker{permissions: permissions}
}

func (c *MapChecker) HasPermission(subject, required string) bool {
	return MatchAny(c.permissions[subject], required)
}

// CanActOn reports whether subject may perform permission on owner's data.
// Every subject may act on itself. An empty subject is a service caller
// authenticated by API key and is trusted with any owner.
func CanActOn(c Checker, subject, owner, permission string) bool {
	if subject == "" || subject == owner {
		return true
	}
	return c != nil && c.HasPermission(subject, permission)
}
