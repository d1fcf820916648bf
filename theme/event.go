package theme

import (
	"fmt"
	"time"

	"chatd/term"
	"chatd/user"
)

// EventKind tags the variant of a MessageEvent, per spec.md §3.
type EventKind int

const (
	Public EventKind = iota
	Emote
	Private
	System
	Announce
	ErrorEvent
)

// MessageEvent is the tagged variant fanned out by the room engine and
// consumed by each session's output task.
type MessageEvent struct {
	Kind EventKind
	From string // display name of sender, where applicable
	To   string // display name of recipient, for Private/ErrorEvent
	Text string
	TS   time.Time

	// FromFingerprint is used for stable per-user coloring; empty for
	// System/Announce events which have no single author.
	FromFingerprint string
}

// Render formats ev as the bytes to write to a PTY for a viewer with the
// given theme and timestamp/quiet preferences. It always ends in CRLF.
// Quiet-mode filtering (suppressing Announce and optionally Public/Emote)
// is applied by the caller before Render is invoked, per spec.md §4.5;
// Render itself is a pure function of (event, theme, prefs) so it can be
// round-tripped in tests without a PTY.
func Render(ev MessageEvent, th *Theme, prefs user.Preferences) string {
	ts := formatTimestamp(ev.TS, prefs.Timestamp)
	if ts != "" {
		ts = th.Style(RoleTimestamp, ts) + " "
	}

	var body string
	switch ev.Kind {
	case Public:
		body = fmt.Sprintf("%s: %s", th.UsernameColor(ev.FromFingerprint, ev.From), ev.Text)
	case Emote:
		body = th.Style(RoleEmote, fmt.Sprintf("* %s %s", ev.From, ev.Text))
	case Private:
		label := fmt.Sprintf("[%s -> %s]", ev.From, ev.To)
		body = th.Style(RolePrivate, label) + " " + ev.Text
	case System:
		body = th.Style(RoleSystem, "-- "+ev.Text)
	case Announce:
		body = th.Style(RoleAnnounce, "* "+ev.Text)
	case ErrorEvent:
		body = th.Style(RoleError, "error: "+ev.Text)
	default:
		body = ev.Text
	}

	return ts + body + term.CRLF
}

func formatTimestamp(ts time.Time, mode user.TimestampMode) string {
	switch mode {
	case user.TimestampTime:
		return ts.Format("15:04:05")
	case user.TimestampDateTime:
		return ts.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

// IsHistoryEligible reports whether ev belongs in the history ring, per
// spec.md invariant 3 (history only contains Public and Emote events).
func (ev MessageEvent) IsHistoryEligible() bool {
	return ev.Kind == Public || ev.Kind == Emote
}
