package editor

import (
	"testing"

	"chatd/term"
)

func feedRunes(e *Editor, s string) {
	for _, r := range s {
		e.Feed(term.Event{Type: term.KeyRune, Rune: r})
	}
}

func TestInsertAndSubmit(t *testing.T) {
	e := New(nil)
	feedRunes(e, "hello")
	res := e.Feed(term.Event{Type: term.KeyEnter})
	if res.Result != Submit || res.Line != "hello" {
		t.Fatalf("got %+v", res)
	}
	if e.Buffer() != "" {
		t.Fatalf("buffer should clear after submit, got %q", e.Buffer())
	}
}

func TestBackspaceAndCursorMotion(t *testing.T) {
	e := New(nil)
	feedRunes(e, "abc")
	e.Feed(term.Event{Type: term.KeyArrowLeft})
	e.Feed(term.Event{Type: term.KeyBackspace})
	if e.Buffer() != "ac" {
		t.Fatalf("got %q", e.Buffer())
	}
	if e.Cursor() != 1 {
		t.Fatalf("cursor = %d, want 1", e.Cursor())
	}
}

func TestCtrlAEKillLine(t *testing.T) {
	e := New(nil)
	feedRunes(e, "hello world")
	e.Feed(term.Event{Type: term.KeyCtrl, Ctrl: 'A'})
	if e.Cursor() != 0 {
		t.Fatalf("Ctrl-A cursor = %d", e.Cursor())
	}
	e.Feed(term.Event{Type: term.KeyCtrl, Ctrl: 'K'})
	if e.Buffer() != "" {
		t.Fatalf("Ctrl-K should kill to end of line, got %q", e.Buffer())
	}
}

func TestCtrlUKillsToStart(t *testing.T) {
	e := New(nil)
	feedRunes(e, "hello")
	e.Feed(term.Event{Type: term.KeyCtrl, Ctrl: 'U'})
	if e.Buffer() != "" {
		t.Fatalf("Ctrl-U should kill whole buffer when cursor at end, got %q", e.Buffer())
	}
}

func TestCtrlWKillsWord(t *testing.T) {
	e := New(nil)
	feedRunes(e, "hello world")
	e.Feed(term.Event{Type: term.KeyCtrl, Ctrl: 'W'})
	if e.Buffer() != "hello " {
		t.Fatalf("got %q", e.Buffer())
	}
}

func TestHistoryNavigationRestoresUnsubmittedEdit(t *testing.T) {
	e := New(nil)
	feedRunes(e, "first")
	e.Feed(term.Event{Type: term.KeyEnter})
	feedRunes(e, "second")
	e.Feed(term.Event{Type: term.KeyEnter})

	feedRunes(e, "unsent")
	e.Feed(term.Event{Type: term.KeyArrowUp})
	if e.Buffer() != "second" {
		t.Fatalf("got %q", e.Buffer())
	}
	e.Feed(term.Event{Type: term.KeyArrowUp})
	if e.Buffer() != "first" {
		t.Fatalf("got %q", e.Buffer())
	}
	e.Feed(term.Event{Type: term.KeyArrowDown})
	e.Feed(term.Event{Type: term.KeyArrowDown})
	if e.Buffer() != "unsent" {
		t.Fatalf("navigating back past the newest entry should restore the in-progress edit, got %q", e.Buffer())
	}
}

func TestHistoryDeduplicatesConsecutiveRepeats(t *testing.T) {
	e := New(nil)
	feedRunes(e, "ping")
	e.Feed(term.Event{Type: term.KeyEnter})
	feedRunes(e, "ping")
	e.Feed(term.Event{Type: term.KeyEnter})
	if len(e.history) != 1 {
		t.Fatalf("want 1 history entry after consecutive repeat, got %d", len(e.history))
	}
}

func TestCompleteSingleCandidateInserts(t *testing.T) {
	e := New(func(buffer string, cursor int) ([]string, int) {
		return []string{"alice"}, 1
	})
	feedRunes(e, "/")
	e.Feed(term.Event{Type: term.KeyTab})
	if e.Buffer() != "/alice" {
		t.Fatalf("got %q", e.Buffer())
	}
}

func TestCompleteMultipleCandidatesInsertsCommonPrefix(t *testing.T) {
	e := New(func(buffer string, cursor int) ([]string, int) {
		return []string{"alice", "alina"}, 1
	})
	feedRunes(e, "/")
	e.Feed(term.Event{Type: term.KeyTab})
	if e.Buffer() != "/ali" {
		t.Fatalf("got %q", e.Buffer())
	}
}

func TestGraphemeAwareDeletion(t *testing.T) {
	e := New(nil)
	// family emoji ZWJ sequence is one grapheme cluster, one backspace
	// must remove it whole, not desync into an invalid half-sequence.
	e.setBuffer("a\U0001F468‍\U0001F469‍\U0001F467b")
	e.cursor = len(e.graphemes)
	e.Feed(term.Event{Type: term.KeyBackspace})
	if e.Buffer() != "a\U0001F468‍\U0001F469‍\U0001F467" {
		t.Fatalf("got %q", e.Buffer())
	}
	e.Feed(term.Event{Type: term.KeyBackspace})
	if e.Buffer() != "a" {
		t.Fatalf("one backspace should remove the whole cluster, got %q", e.Buffer())
	}
}

func TestEscapeCancelsAndClears(t *testing.T) {
	e := New(nil)
	feedRunes(e, "abc")
	res := e.Feed(term.Event{Type: term.KeyEscape})
	if res.Result != Cancel {
		t.Fatalf("got %+v", res)
	}
	if e.Buffer() != "" {
		t.Fatalf("escape should clear buffer, got %q", e.Buffer())
	}
}
