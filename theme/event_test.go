package theme

import (
	"strings"
	"testing"
	"time"

	"chatd/user"
)

func stripANSI(s string) string {
	var b strings.Builder
	inEsc := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inEsc {
			if c == 'm' {
				inEsc = false
			}
			continue
		}
		if c == 0x1b {
			inEsc = true
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func TestRenderDeterministic(t *testing.T) {
	th := Lookup("colors")
	ev := MessageEvent{Kind: Public, From: "alice", FromFingerprint: "fpA", Text: "hello", TS: time.Unix(0, 0)}
	prefs := user.DefaultPreferences()
	a := Render(ev, th, prefs)
	b := Render(ev, th, prefs)
	if a != b {
		t.Fatalf("Render is not deterministic: %q != %q", a, b)
	}
}

func TestRenderRoundTripsPayload(t *testing.T) {
	th := Lookup("mono")
	prefs := user.Preferences{Timestamp: user.TimestampOff}
	cases := []MessageEvent{
		{Kind: Public, From: "alice", Text: "hello world"},
		{Kind: Emote, From: "bob", Text: "waves"},
		{Kind: Private, From: "alice", To: "bob", Text: "psst"},
		{Kind: System, Text: "replaced by new connection"},
		{Kind: Announce, Text: "alice joined"},
		{Kind: ErrorEvent, Text: "rate limit exceeded"},
	}
	for _, ev := range cases {
		out := stripANSI(Render(ev, th, prefs))
		if !strings.Contains(out, ev.Text) {
			t.Errorf("rendered output %q does not contain payload %q", out, ev.Text)
		}
		if ev.From != "" && !strings.Contains(out, ev.From) {
			t.Errorf("rendered output %q does not contain sender %q", out, ev.From)
		}
	}
}

func TestHistoryEligibility(t *testing.T) {
	if !(MessageEvent{Kind: Public}).IsHistoryEligible() {
		t.Error("Public should be history-eligible")
	}
	if !(MessageEvent{Kind: Emote}).IsHistoryEligible() {
		t.Error("Emote should be history-eligible")
	}
	if (MessageEvent{Kind: System}).IsHistoryEligible() {
		t.Error("System should not be history-eligible")
	}
	if (MessageEvent{Kind: Announce}).IsHistoryEligible() {
		t.Error("Announce should not be history-eligible")
	}
}

func TestTimestampModes(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if got := formatTimestamp(ts, user.TimestampOff); got != "" {
		t.Errorf("off mode = %q, want empty", got)
	}
	if got := formatTimestamp(ts, user.TimestampTime); got != "03:04:05" {
		t.Errorf("time mode = %q, want 03:04:05", got)
	}
	if got := formatTimestamp(ts, user.TimestampDateTime); got != "2026-01-02 03:04:05" {
		t.Errorf("datetime mode = %q, want 2026-01-02 03:04:05", got)
	}
}
