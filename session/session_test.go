package session

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"chatd/command"
	"chatd/room"
	"chatd/theme"
	"chatd/user"
)

// fakeChannel implements ssh.Channel over an in-memory pipe so tests can
// drive a Session without a real SSH connection.
type fakeChannel struct {
	r *io.PipeReader
	w *io.PipeWriter

	mu  sync.Mutex
	out bytes.Buffer
}

func newFakeChannel() (*fakeChannel, *io.PipeWriter) {
	pr, pw := io.Pipe()
	return &fakeChannel{r: pr, w: pw}, pw
}

func (c *fakeChannel) Read(p []byte) (int, error)  { return c.r.Read(p) }
func (c *fakeChannel) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.Write(p)
}
func (c *fakeChannel) Close() error {
	c.w.Close()
	return c.r.Close()
}
func (c *fakeChannel) CloseWrite() error { return nil }
func (c *fakeChannel) SendRequest(name string, wantReply bool, payload []byte) (bool, error) {
	return false, nil
}
func (c *fakeChannel) Stderr() io.ReadWriter { return nil }

func (c *fakeChannel) written() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.out.String()
}

func TestSessionEOFEndsRunAndLeavesRoom(t *testing.T) {
	rm := room.New()
	reg := command.NewDefaultRegistry(rm)
	ch, pw := newFakeChannel()
	s := New(ch, "fpA", rm, reg)

	done := make(chan error, 1)
	go func() {
		done <- s.Run(user.New("fpA", "alice", false), user.DefaultPreferences())
	}()

	pw.Close() // immediate EOF

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after EOF")
	}

	if len(rm.Names()) != 0 {
		t.Fatalf("expected room empty after session ended, got %v", rm.Names())
	}
}

func TestSessionSubmittedLineReachesRoom(t *testing.T) {
	rm := room.New()
	reg := command.NewDefaultRegistry(rm)
	ch, pw := newFakeChannel()
	s := New(ch, "fpA", rm, reg)

	// Second member to observe the fan-out.
	bob := &captureOutbox{}
	rm.Join(user.New("fpB", "bob", false), bob)

	done := make(chan error, 1)
	go func() {
		done <- s.Run(user.New("fpA", "alice", false), user.DefaultPreferences())
	}()

	pw.Write([]byte("hello room\r"))
	pw.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}

	if !strings.Contains(ch.written(), "hello room") {
		t.Fatalf("expected echo of submitted line in output, got %q", ch.written())
	}
	if !bob.receivedPublic("hello room") {
		t.Fatal("bob did not receive the submitted line through the room")
	}
}

func TestSessionQuitCommandEndsSession(t *testing.T) {
	rm := room.New()
	reg := command.NewDefaultRegistry(rm)
	ch, pw := newFakeChannel()
	s := New(ch, "fpA", rm, reg)

	done := make(chan error, 1)
	go func() {
		done <- s.Run(user.New("fpA", "alice", false), user.DefaultPreferences())
	}()

	pw.Write([]byte("/quit\r"))

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("/quit did not end the session")
	}
	pw.Close()
}

type captureOutbox struct {
	mu     sync.Mutex
	events []theme.MessageEvent
}

func (c *captureOutbox) Enqueue(ev theme.MessageEvent) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return true
}
func (c *captureOutbox) Close(reason string) {}

func (c *captureOutbox) receivedPublic(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ev := range c.events {
		if ev.Kind == theme.Public && ev.Text == text {
			return true
		}
	}
	return false
}
