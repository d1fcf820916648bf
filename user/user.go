// Package user holds the chat identity model: a User is keyed by the
// fingerprint of the SSH public key used to authenticate, per spec.md §3.
package user

import (
	"time"
)

// TimestampMode controls how the renderer prefixes chat lines for a user.
type TimestampMode string

const (
	TimestampOff      TimestampMode = "off"
	TimestampTime     TimestampMode = "time"
	TimestampDateTime TimestampMode = "datetime"
)

// Preferences are the per-user rendering and behavior settings a session
// controls via /theme, /timestamp, /quiet and the CHATD_* env vars.
type Preferences struct {
	Theme     string
	Timestamp TimestampMode
	Quiet     bool
	Bell      bool
}

// DefaultPreferences matches what a brand new session gets before any
// environment variable or command changes it.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:     "colors",
		Timestamp: TimestampTime,
		Quiet:     false,
		Bell:      true,
	}
}

// User is the identity and preference record for one connected person.
// Exactly one User exists per live Session; it is discarded on disconnect
// per spec.md's no-persistence non-goal.
type User struct {
	Fingerprint string
	Name        string
	JoinedAt    time.Time
	Preferences Preferences
	ReplyTo     string // fingerprint of the last private-message sender
	Ignored     map[string]struct{}
	Muted       bool
	IsOp        bool

	Away     bool
	AwayText string
}

// New creates a User for a freshly authenticated connection. Name is the
// raw SSH login name before room-level uniquification.
func New(fingerprint, name string, isOp bool) *User {
	return &User{
		Fingerprint: fingerprint,
		Name:        name,
		JoinedAt:    time.Now(),
		Preferences: DefaultPreferences(),
		Ignored:     make(map[string]struct{}),
		IsOp:        isOp,
	}
}

// Ignores reports whether u currently ignores messages from fp.
func (u *User) Ignores(fp string) bool {
	_, ok := u.Ignored[fp]
	return ok
}

// Ignore adds fp to u's ignore set.
func (u *User) Ignore(fp string) {
	u.Ignored[fp] = struct{}{}
}

// Unignore removes fp from u's ignore set.
func (u *User) Unignore(fp string) {
	delete(u.Ignored, fp)
}

// IgnoredFingerprints returns the ignore set as a slice in unspecified
// order; callers resolve display names via the room.
func (u *User) IgnoredFingerprints() []string {
	out := make([]string, 0, len(u.Ignored))
	for fp := range u.Ignored {
		out = append(out, fp)
	}
	return out
}
