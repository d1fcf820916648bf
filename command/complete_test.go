package command

import (
	"reflect"
	"testing"

	"chatd/room"
)

func TestCompleteCommandNameSingleMatchAppendsSpace(t *testing.T) {
	rm := room.New()
	r := NewDefaultRegistry(rm)
	joinTestUser(t, rm, "fpA", "alice", true)
	ctx, _ := newTestCtx("fpA", rm)

	cands, from := r.Complete(ctx, "/opl")
	if len(cands) != 1 || cands[0] != "oplist " {
		t.Fatalf("Complete(%q) = %v, want a single %q", "/opl", cands, "oplist ")
	}
	if from != 1 {
		t.Fatalf("replaceFrom = %d, want 1", from)
	}
}

func TestCompleteCommandNameMultipleMatchesNoTrailingSpace(t *testing.T) {
	rm := room.New()
	r := NewDefaultRegistry(rm)
	joinTestUser(t, rm, "fpA", "alice", true)
	ctx, _ := newTestCtx("fpA", rm)

	// "wh" matches both /whois and /whitelist.
	cands, _ := r.Complete(ctx, "/wh")
	if len(cands) < 2 {
		t.Fatalf("Complete(%q) = %v, want multiple ambiguous candidates", "/wh", cands)
	}
	for _, c := range cands {
		if c != "whois" && c != "whitelist" {
			t.Fatalf("unexpected candidate %q", c)
		}
	}
}

func TestCompleteSubcommandSingleMatchAppendsSpace(t *testing.T) {
	rm := room.New()
	r := NewDefaultRegistry(rm)
	joinTestUser(t, rm, "fpA", "alice", true)
	ctx, _ := newTestCtx("fpA", rm)

	cands, _ := r.Complete(ctx, "/oplist rem")
	if !reflect.DeepEqual(cands, []string{"remove "}) {
		t.Fatalf("Complete(%q) = %v, want [%q]", "/oplist rem", cands, "remove ")
	}
}

func TestCompleteSubcommandThenArgDelegatesToUserCompleter(t *testing.T) {
	rm := room.New()
	r := NewDefaultRegistry(rm)
	joinTestUser(t, rm, "fpA", "alice", true)
	joinTestUser(t, rm, "fpB", "bob", false)
	ctx, _ := newTestCtx("fpA", rm)

	cands, _ := r.Complete(ctx, "/oplist add bo")
	if !reflect.DeepEqual(cands, []string{"bob"}) {
		t.Fatalf("Complete(%q) = %v, want [bob]", "/oplist add bo", cands)
	}
}

func TestCompleteUnknownCommandNoCandidates(t *testing.T) {
	rm := room.New()
	r := NewDefaultRegistry(rm)
	joinTestUser(t, rm, "fpA", "alice", false)
	ctx, _ := newTestCtx("fpA", rm)

	cands, _ := r.Complete(ctx, "/frobnicate arg")
	if cands != nil {
		t.Fatalf("Complete of an unknown command = %v, want nil", cands)
	}
}

func TestCompleteNotACommandReturnsNil(t *testing.T) {
	rm := room.New()
	r := NewDefaultRegistry(rm)
	joinTestUser(t, rm, "fpA", "alice", false)
	ctx, _ := newTestCtx("fpA", rm)

	cands, from := r.Complete(ctx, "hello")
	if cands != nil || from != 0 {
		t.Fatalf("Complete(%q) = %v, %d; want nil, 0", "hello", cands, from)
	}
}

func TestCommonPrefix(t *testing.T) {
	if got := CommonPrefix([]string{"whois", "whitelist"}); got != "wh" {
		t.Fatalf("CommonPrefix = %q, want %q", got, "wh")
	}
	if got := CommonPrefix([]string{"a", "b"}); got != "" {
		t.Fatalf("CommonPrefix of disjoint strings = %q, want empty", got)
	}
	if got := CommonPrefix(nil); got != "" {
		t.Fatalf("CommonPrefix(nil) = %q, want empty", got)
	}
}
