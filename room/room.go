// Package room implements the core chat engine: membership, name
// uniqueness, message fan-out, private routing, and policy enforcement
// (whitelist, oplist, bans, mutes), per spec.md §3/§4.7/§5.
package room

import (
	"fmt"
	"sync"
	"time"

	"chatd/history"
	"chatd/ratelimit"
	"chatd/theme"
	"chatd/user"
)

// Outbox is the room's view of a session: a handle it can push rendered
// events into and force-close, without knowing anything about PTYs or
// goroutines. Implemented by *session.Session. Keeping the dependency in
// this direction (room -> interface, session -> room) avoids the
// Session<->Room cycle spec.md §9 calls out; the room never holds a
// back-pointer to a concrete session type.
type Outbox interface {
	// Enqueue attempts a non-blocking push of ev onto the session's
	// outbound queue. It returns false if the queue is full, signaling
	// the room to terminate that session as "output stalled" (spec.md §4.8).
	Enqueue(ev theme.MessageEvent) bool
	// Close forcibly ends the session, delivering reason as a final
	// System message when possible.
	Close(reason string)
}

type member struct {
	user   *user.User
	outbox Outbox
}

type ban struct {
	expiry time.Time // zero value means permanent
}

// Room is the process-wide singleton chat room. All exported methods are
// safe for concurrent use; spec.md §5 requires operations on room state
// to be serialized through a single short, I/O-free critical section, so
// every method takes the lock only to mutate maps/slices and releases it
// before any Outbox I/O.
type Room struct {
	mu      sync.Mutex
	members map[string]*member // fingerprint -> member
	names   map[string]string  // name -> fingerprint

	history *history.Ring
	limiter *ratelimit.Limiter

	motd string

	bans      map[string]ban
	whitelist map[string]struct{}
	whitelistOn bool
	oplist    map[string]struct{}
}

// Option configures a Room at construction time.
type Option func(*Room)

// WithMOTD sets the message of the day shown to new joiners.
func WithMOTD(motd string) Option {
	return func(r *Room) { r.motd = motd }
}

// WithOplist seeds the initial operator fingerprint set.
func WithOplist(fingerprints []string) Option {
	return func(r *Room) {
		for _, fp := range fingerprints {
			r.oplist[fp] = struct{}{}
		}
	}
}

// WithWhitelist seeds the initial whitelist and enables enforcement.
func WithWhitelist(fingerprints []string) Option {
	return func(r *Room) {
		for _, fp := range fingerprints {
			r.whitelist[fp] = struct{}{}
		}
		r.whitelistOn = true
	}
}

// WithRateLimit overrides the default token-bucket parameters.
func WithRateLimit(burst int, refillPerSecond float64) Option {
	return func(r *Room) { r.limiter = ratelimit.New(burst, refillPerSecond) }
}

// New constructs an empty Room.
func New(opts ...Option) *Room {
	r := &Room{
		members:   make(map[string]*member),
		names:     make(map[string]string),
		history:   history.New(),
		limiter:   ratelimit.New(ratelimit.DefaultBurst, ratelimit.DefaultRefill),
		bans:      make(map[string]ban),
		whitelist: make(map[string]struct{}),
		oplist:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Join runs the join sequence from spec.md §4.7: whitelist check, ban
// check (pruning expired entries first), eviction of any existing session
// for the same fingerprint, name uniquification, membership insertion,
// join announcement, and MOTD + history replay to the joiner only.
//
// u.Name is mutated in place to the final, unique display name.
func (r *Room) Join(u *user.User, outbox Outbox) error {
	r.mu.Lock()

	if r.whitelistOn {
		if _, ok := r.whitelist[u.Fingerprint]; !ok {
			r.mu.Unlock()
			return authErr("access denied: not on whitelist")
		}
	}

	r.pruneExpiredBansLocked()
	if _, banned := r.bans[u.Fingerprint]; banned {
		r.mu.Unlock()
		return authErr("access denied: banned")
	}

	u.IsOp = r.isOpLocked(u.Fingerprint)

	var evicted *member
	if existing, ok := r.members[u.Fingerprint]; ok {
		evicted = existing
		delete(r.names, existing.user.Name)
		delete(r.members, u.Fingerprint)
	}

	u.Name = r.uniqueNameLocked(u.Name)
	r.members[u.Fingerprint] = &member{user: u, outbox: outbox}
	r.names[u.Name] = u.Fingerprint

	announce := theme.MessageEvent{Kind: theme.Announce, Text: u.Name + " joined", TS: time.Now()}
	targets := r.fanoutTargetsLocked(announce, "")
	r.mu.Unlock()

	if evicted != nil {
		evicted.outbox.Close("replaced by new connection")
	}

	r.deliver(targets, announce)

	r.deliverJoinPayload(u, outbox)
	return nil
}

// deliverJoinPayload sends the MOTD and history replay to a newly joined
// session only, per spec.md §4.7 step 7.
func (r *Room) deliverJoinPayload(u *user.User, outbox Outbox) {
	if r.motd != "" {
		outbox.Enqueue(theme.MessageEvent{Kind: theme.System, Text: r.motd, TS: time.Now()})
	}
	for _, ev := range r.history.Snapshot() {
		outbox.Enqueue(ev)
	}
}

// Leave removes fingerprint's membership and announces the departure.
// outbox must match the outbox currently on file for fingerprint; if a
// reconnect already evicted this session via Join, the current member's
// outbox belongs to the new connection and Leave is a no-op, so a slow
// old session's cleanup can never clobber its replacement.
func (r *Room) Leave(fingerprint string, outbox Outbox) {
	r.mu.Lock()
	m, ok := r.members[fingerprint]
	if !ok || m.outbox != outbox {
		r.mu.Unlock()
		return
	}
	delete(r.members, fingerprint)
	delete(r.names, m.user.Name)
	r.limiter.Forget(fingerprint)

	announce := theme.MessageEvent{Kind: theme.Announce, Text: m.user.Name + " left", TS: time.Now()}
	targets := r.fanoutTargetsLocked(announce, "")
	r.mu.Unlock()

	r.deliver(targets, announce)
}

// uniqueNameLocked returns base if unused, otherwise base suffixed with
// the smallest counter >= 2 that makes it unique. Caller holds r.mu.
func (r *Room) uniqueNameLocked(base string) string {
	if base == "" {
		base = "user"
	}
	if _, taken := r.names[base]; !taken {
		return base
	}
	for i := 2; ; i++ {
		candidate := fmt.Sprintf("%s%d", base, i)
		if _, taken := r.names[candidate]; !taken {
			return candidate
		}
	}
}

func (r *Room) isOpLocked(fingerprint string) bool {
	_, ok := r.oplist[fingerprint]
	return ok
}

func (r *Room) pruneExpiredBansLocked() {
	now := time.Now()
	for fp, b := range r.bans {
		if !b.expiry.IsZero() && now.After(b.expiry) {
			delete(r.bans, fp)
		}
	}
}

// memberByNameLocked resolves a display name to its member, caller holds r.mu.
func (r *Room) memberByNameLocked(name string) (*member, bool) {
	fp, ok := r.names[name]
	if !ok {
		return nil, false
	}
	m := r.members[fp]
	return m, m != nil
}

// Names returns the current member display names.
func (r *Room) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.names))
	for name := range r.names {
		out = append(out, name)
	}
	return out
}

// WhoisResult is the data /whois surfaces for a member.
type WhoisResult struct {
	Fingerprint string
	JoinedAt    time.Time
	IsOp        bool
	Away        bool
	AwayText    string
}

// Whois looks up a member by display name.
func (r *Room) Whois(name string) (WhoisResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.memberByNameLocked(name)
	if !ok {
		return WhoisResult{}, false
	}
	return WhoisResult{
		Fingerprint: m.user.Fingerprint,
		JoinedAt:    m.user.JoinedAt,
		IsOp:        m.user.IsOp,
		Away:        m.user.Away,
		AwayText:    m.user.AwayText,
	}, true
}

// MOTD returns the configured message of the day.
func (r *Room) MOTD() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.motd
}

// ReplyToName resolves the display name of fingerprint's last private
// message sender, if that sender is still online, for /reply.
func (r *Room) ReplyToName(fingerprint string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[fingerprint]
	if !ok || m.user.ReplyTo == "" {
		return "", false
	}
	target, ok := r.members[m.user.ReplyTo]
	if !ok {
		return "", false
	}
	return target.user.Name, true
}

// NameOf returns fingerprint's current display name, read live so a
// session always reports its own post-/nick name.
func (r *Room) NameOf(fingerprint string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[fingerprint]
	if !ok {
		return "", false
	}
	return m.user.Name, true
}

// Preferences returns a copy of fingerprint's current preferences, for
// the session controller's output task to render by. Reading through the
// room (rather than a session-local cache) keeps /theme and /timestamp
// changes visible immediately, including between concurrent SetPref
// calls and in-flight renders.
func (r *Room) Preferences(fingerprint string) (user.Preferences, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[fingerprint]
	if !ok {
		return user.Preferences{}, false
	}
	return m.user.Preferences, true
}

// IgnoredNames returns the display names of fingerprint's ignore set,
// for fingerprints that correspond to a currently online member; offline
// ignored fingerprints are reported as-is so /ignore's listing still
// shows something meaningful for a since-disconnected user.
func (r *Room) IgnoredNames(fingerprint string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[fingerprint]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(m.user.Ignored))
	for fp := range m.user.Ignored {
		if other, ok := r.members[fp]; ok {
			out = append(out, other.user.Name)
		} else {
			out = append(out, fp)
		}
	}
	return out
}
