// Package command implements the `/cmd sub args` parser, permission
// checks, and dispatch table described in spec.md §4.4, plus the
// argument completers spec.md §4.2 delegates to for Tab-completion.
package command

import (
	"sort"
	"strings"
	"time"

	"chatd/theme"
)

// Context is everything a handler needs about the invoking session. It
// is constructed fresh by the session controller for every dispatched
// line; command handlers never retain it.
type Context struct {
	Fingerprint string
	Name        func() string // current display name, read live from the room
	IsOp        func() bool

	// Reply delivers an event directly to the invoking session, bypassing
	// room fan-out -- used for Error/System responses that must reach
	// only the sender (spec.md §7's Input/Policy propagation rule).
	Reply func(theme.MessageEvent)

	// Quit asks the session controller to end the session gracefully,
	// after any pending Reply has been queued (/quit, /exit).
	Quit func()
}

func (c Context) replyError(text string) {
	c.Reply(theme.MessageEvent{Kind: theme.ErrorEvent, To: c.Name(), Text: text, TS: time.Now()})
}

func (c Context) replySystem(text string) {
	c.Reply(theme.MessageEvent{Kind: theme.System, Text: text, TS: time.Now()})
}

// ReplyError and ReplySystem are the exported forms of the above, for the
// session controller to use when a chat line (not a /command) fails,
// e.g. a rate-limited or muted plain-text send.
func (c Context) ReplyError(text string) { c.replyError(text) }
func (c Context) ReplySystem(text string) { c.replySystem(text) }

// CompleteFunc returns completion candidates for a command's own
// argument position (spec.md §4.2's "(c)" completion context).
type CompleteFunc func(ctx Context, args []string, partial string) []string

// Descriptor declares one command: its canonical name, aliases, help
// text, whether it is operator-only, its handler, and its own argument
// completer (nil if the command takes no completable arguments).
type Descriptor struct {
	Name     string
	Aliases  []string
	Help     string
	OpOnly   bool
	Handler  func(ctx Context, args []string)
	Complete CompleteFunc
}

// Registry is the command dispatch table, analogous to the teacher's
// CommandManager but generalized from a single positional-arg handler
// shape to full descriptors with permissions and completers.
type Registry struct {
	byName map[string]*Descriptor
	order  []*Descriptor // registration order, for stable /help output
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]*Descriptor)}
}

// Register adds d under its canonical name and all aliases.
func (r *Registry) Register(d *Descriptor) {
	r.byName[d.Name] = d
	for _, a := range d.Aliases {
		r.byName[a] = d
	}
	r.order = append(r.order, d)
}

// Visible returns descriptors a user with the given op status can see,
// in registration order, used by /help.
func (r *Registry) Visible(isOp bool) []*Descriptor {
	out := make([]*Descriptor, 0, len(r.order))
	for _, d := range r.order {
		if d.OpOnly && !isOp {
			continue
		}
		out = append(out, d)
	}
	return out
}

// IsCommand reports whether line should be parsed as a command.
func IsCommand(line string) bool {
	return strings.HasPrefix(line, "/")
}

// Dispatch parses and routes a `/cmd sub args` line. It returns false if
// line was not a command at all (no leading '/'), in which case the
// caller should treat it as a chat message instead. Unknown commands and
// permission failures are reported to the sender directly via
// ctx.Reply, per spec.md §4.4/§7, and Dispatch still returns true (the
// line *was* a command, just a rejected one).
//
// The line is split on ASCII whitespace only (spec.md §4.4), not shell-
// quote parsed: free-form tails like /msg's TEXT argument are rejoined
// by the handler via restJoined, so an apostrophe or stray quote in
// ordinary chat text ("/msg bob I'm here") never breaks tokenizing.
func (r *Registry) Dispatch(line string, ctx Context) bool {
	if !IsCommand(line) {
		return false
	}
	body := strings.TrimPrefix(line, "/")
	fields := strings.Fields(body)
	if len(fields) == 0 {
		ctx.replyError("malformed command")
		return true
	}

	name, args := fields[0], fields[1:]
	d, ok := r.byName[name]
	if !ok {
		ctx.replyError("unknown command: " + name)
		return true
	}
	if d.OpOnly && !ctx.IsOp() {
		ctx.replyError("permission denied")
		return true
	}
	d.Handler(ctx, args)
	return true
}

// restJoined rejoins args[from:] with single spaces, used by commands
// whose last parameter is free-form text (e.g. /msg USER TEXT...).
func restJoined(args []string, from int) string {
	if from >= len(args) {
		return ""
	}
	return strings.Join(args[from:], " ")
}

// sortedStrings is a small helper so completion/listing output is
// deterministic across runs despite map-backed room state.
func sortedStrings(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
