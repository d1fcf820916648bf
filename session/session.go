// Package session implements the per-connection controller from
// spec.md §4.8: an input task turning PTY bytes into editor events and
// room calls, and an output task draining the session's outbound queue
// and writing rendered events back to the PTY, redrawing the prompt
// after each one. It replaces the teacher's ui.SSHTerminalBridge (whose
// x/term.Terminal-based ReadLine has no equivalent here, since term and
// editor now own raw PTY decoding directly) and the welcome/cleanup
// sequence previously inlined in sshserver's handleUISession.
package session

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"chatd/command"
	"chatd/editor"
	"chatd/room"
	"chatd/term"
	"chatd/theme"
	"chatd/user"
)

// OutboundQueueDepth bounds each session's outbound event queue, per
// spec.md §4.8's "bounded outbound queue" requirement. A full queue
// means a stalled client; the room disconnects it rather than blocking
// fan-out for everyone else (spec.md §5).
const OutboundQueueDepth = 64

const promptText = "> "

// Session bridges one authenticated SSH channel to the room engine. It
// implements room.Outbox.
type Session struct {
	channel     ssh.Channel
	fingerprint string
	rm          *room.Room
	registry    *command.Registry

	writeMu sync.Mutex

	outbound  chan theme.MessageEvent
	done      chan struct{}
	closeOnce sync.Once
	quit      bool

	ed *editor.Editor
}

// New constructs a session for an already-accepted SSH channel.
func New(channel ssh.Channel, fingerprint string, rm *room.Room, registry *command.Registry) *Session {
	s := &Session{
		channel:     channel,
		fingerprint: fingerprint,
		rm:          rm,
		registry:    registry,
		outbound:    make(chan theme.MessageEvent, OutboundQueueDepth),
		done:        make(chan struct{}),
	}
	s.ed = editor.New(s.complete)
	return s
}

// Enqueue implements room.Outbox: a non-blocking push onto the outbound
// queue, returning false when it's full.
func (s *Session) Enqueue(ev theme.MessageEvent) bool {
	select {
	case s.outbound <- ev:
		return true
	default:
		return false
	}
}

// Close implements room.Outbox: ends the session, writing reason as a
// final System line first when one is given. Safe to call more than
// once and safe to call concurrently with the input/output tasks.
func (s *Session) Close(reason string) {
	s.closeOnce.Do(func() {
		if reason != "" {
			s.writeEvent(theme.MessageEvent{Kind: theme.System, Text: reason, TS: time.Now()})
		}
		close(s.done)
		s.channel.Close()
	})
}

// Run joins u into rm, applies initialPrefs (derived from the client's
// CHATD_THEME/CHATD_TIMESTAMP environment forwarding, per spec.md §4.8),
// and drives the session until EOF, cancellation, or /quit. It always
// leaves the room and closes the channel before returning.
func (s *Session) Run(u *user.User, initialPrefs user.Preferences) error {
	u.Preferences = initialPrefs
	if err := s.rm.Join(u, s); err != nil {
		s.Close(err.Error())
		return err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.outputLoop()
	}()

	s.redrawPrompt()
	err := s.inputLoop()

	s.Close("")
	wg.Wait()
	s.rm.Leave(s.fingerprint, s)
	return err
}

func (s *Session) outputLoop() {
	for {
		select {
		case ev, ok := <-s.outbound:
			if !ok {
				return
			}
			s.writeEvent(ev)
			s.redrawPrompt()
		case <-s.done:
			return
		}
	}
}

func (s *Session) inputLoop() error {
	buf := make([]byte, 1024)
	dec := term.NewDecoder()
	for {
		select {
		case <-s.done:
			return nil
		default:
		}

		n, err := s.channel.Read(buf)
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		for _, ev := range dec.Feed(buf[:n]) {
			if s.handleKeyEvent(ev) {
				return nil
			}
		}
	}
}

// handleKeyEvent applies one decoded key to the editor and acts on the
// result. It returns true when the session should end.
func (s *Session) handleKeyEvent(ev term.Event) bool {
	res := s.ed.Feed(ev)
	switch res.Result {
	case editor.Redraw:
		s.redrawPrompt()
		if len(res.Candidates) > 1 {
			s.writeEvent(theme.MessageEvent{
				Kind: theme.System,
				Text: "completions: " + strings.Join(res.Candidates, " "),
				TS:   time.Now(),
			})
			s.redrawPrompt()
		}
	case editor.Cancel:
		s.redrawPrompt()
	case editor.Submit:
		s.dispatchLine(res.Line)
		if s.quit {
			return true
		}
		s.redrawPrompt()
	}
	return false
}

func (s *Session) dispatchLine(line string) {
	if line == "" {
		return
	}
	ctx := s.context()
	if s.registry.Dispatch(line, ctx) {
		return
	}
	if err := s.rm.SendPublic(s.fingerprint, line); err != nil {
		ctx.ReplyError(err.Error())
	}
}

func (s *Session) context() command.Context {
	return command.Context{
		Fingerprint: s.fingerprint,
		Name:        s.currentName,
		IsOp:        func() bool { return s.rm.IsOp(s.fingerprint) },
		Reply:       s.writeEvent,
		Quit:        func() { s.quit = true },
	}
}

func (s *Session) currentName() string {
	name, _ := s.rm.NameOf(s.fingerprint)
	return name
}

func (s *Session) complete(buffer string, cursor int) ([]string, int) {
	cands, from := s.registry.Complete(s.context(), buffer)
	// Registry.Complete reports a byte offset; the editor wants a grapheme index.
	return cands, len(term.Graphemes(buffer[:from]))
}

// writeEvent renders ev with the session's current theme/preferences
// and writes it to the PTY, clearing the in-progress input line first
// so the message never appears to the right of it (spec.md §4.8).
func (s *Session) writeEvent(ev theme.MessageEvent) {
	prefs, ok := s.rm.Preferences(s.fingerprint)
	if !ok {
		prefs = user.DefaultPreferences()
	}
	th := theme.Lookup(prefs.Theme)
	if th == nil {
		th = theme.Lookup("colors")
	}
	s.write([]byte("\r\x1b[K" + theme.Render(ev, th, prefs)))
}

// redrawPrompt repaints the prompt line from the editor's current buffer
// and cursor position.
func (s *Session) redrawPrompt() {
	buf := s.ed.Buffer()
	cursorWidth := s.ed.CursorWidth()
	totalWidth := term.Width(buf)

	line := "\r\x1b[K" + promptText + buf
	if back := totalWidth - cursorWidth; back > 0 {
		line += fmt.Sprintf("\x1b[%dD", back)
	}
	s.write([]byte(line))
}

func (s *Session) write(b []byte) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.channel.Write(b)
}
