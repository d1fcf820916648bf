package room

import (
	"time"

	"chatd/theme"
	"chatd/user"
)

type target struct {
	fp     string
	outbox Outbox
}

// fanoutTargetsLocked computes the set of members that should receive a
// Public/Emote/Announce event, applying spec.md §4.5/§4.7's quiet-mode
// and ignore-list filtering. The sender (if present in the room) always
// receives its own event, the echo invariant from spec.md §4.7. Caller
// holds r.mu.
func (r *Room) fanoutTargetsLocked(ev theme.MessageEvent, senderFP string) []target {
	var out []target
	for fp, m := range r.members {
		if fp == senderFP {
			out = append(out, target{fp: fp, outbox: m.outbox})
			continue
		}
		if m.user.Preferences.Quiet {
			continue
		}
		if senderFP != "" && m.user.Ignores(senderFP) {
			continue
		}
		out = append(out, target{fp: fp, outbox: m.outbox})
	}
	return out
}

// deliver pushes ev to every target's outbox. A target whose queue is
// full is disconnected with "output stalled", per spec.md §4.8; this
// happens outside r.mu, matching spec.md §5's no-I/O-under-lock policy.
func (r *Room) deliver(targets []target, ev theme.MessageEvent) {
	for _, t := range targets {
		if !t.outbox.Enqueue(ev) {
			r.terminateStalled(t.fp)
		}
	}
}

func (r *Room) terminateStalled(fingerprint string) {
	r.mu.Lock()
	m, ok := r.members[fingerprint]
	if ok {
		delete(r.members, fingerprint)
		delete(r.names, m.user.Name)
	}
	r.mu.Unlock()
	if ok {
		m.outbox.Close("output stalled")
	}
}

// SendPublic validates and fans out a public chat message from
// fingerprint. Rate-limited per spec.md §4.5/§8: exceeding the budget
// drops the message and returns an Input error (rendered to the sender
// only by the caller), producing no public event.
func (r *Room) SendPublic(fingerprint, text string) error {
	if text == "" {
		return nil // empty submit is ignored, per spec.md §8
	}
	r.mu.Lock()
	m, ok := r.members[fingerprint]
	if !ok {
		r.mu.Unlock()
		return inputErr("not joined")
	}
	if m.user.Muted {
		r.mu.Unlock()
		return policyErr("you are muted")
	}
	if !r.limiter.Allow(fingerprint) {
		r.mu.Unlock()
		return inputErr("rate limit exceeded")
	}
	ev := theme.MessageEvent{Kind: theme.Public, From: m.user.Name, FromFingerprint: fingerprint, Text: text, TS: time.Now()}
	r.history.Append(ev)
	targets := r.fanoutTargetsLocked(ev, fingerprint)
	r.mu.Unlock()

	r.deliver(targets, ev)
	return nil
}

// SendEmote is SendPublic's counterpart for /me.
func (r *Room) SendEmote(fingerprint, text string) error {
	if text == "" {
		return nil
	}
	r.mu.Lock()
	m, ok := r.members[fingerprint]
	if !ok {
		r.mu.Unlock()
		return inputErr("not joined")
	}
	if m.user.Muted {
		r.mu.Unlock()
		return policyErr("you are muted")
	}
	if !r.limiter.Allow(fingerprint) {
		r.mu.Unlock()
		return inputErr("rate limit exceeded")
	}
	ev := theme.MessageEvent{Kind: theme.Emote, From: m.user.Name, FromFingerprint: fingerprint, Text: text, TS: time.Now()}
	r.history.Append(ev)
	targets := r.fanoutTargetsLocked(ev, fingerprint)
	r.mu.Unlock()

	r.deliver(targets, ev)
	return nil
}

// SendPrivate delivers a private message from fromFP to the member named
// toName, updating the recipient's reply_to, per spec.md §4.7. It is not
// subject to ignore filtering: a private message is explicitly addressed.
func (r *Room) SendPrivate(fromFP, toName, text string) error {
	if text == "" {
		return nil
	}
	r.mu.Lock()
	from, ok := r.members[fromFP]
	if !ok {
		r.mu.Unlock()
		return inputErr("not joined")
	}
	if from.user.Muted {
		r.mu.Unlock()
		return policyErr("you are muted")
	}
	to, ok := r.memberByNameLocked(toName)
	if !ok {
		r.mu.Unlock()
		return inputErr("user not found: " + toName)
	}
	if !r.limiter.Allow(fromFP) {
		r.mu.Unlock()
		return inputErr("rate limit exceeded")
	}
	to.user.ReplyTo = fromFP
	ev := theme.MessageEvent{Kind: theme.Private, From: from.user.Name, FromFingerprint: fromFP, To: to.user.Name, Text: text, TS: time.Now()}
	senderOutbox, recipientOutbox := from.outbox, to.outbox
	r.mu.Unlock()

	senderOutbox.Enqueue(ev)
	if to.user.Fingerprint != from.user.Fingerprint {
		recipientOutbox.Enqueue(ev)
	}
	return nil
}

// Rename attempts to change fingerprint's display name. Collisions are
// rejected outright -- no auto-suffix on rename, per spec.md §4.7 (the
// auto-suffix behavior applies only at first join).
func (r *Room) Rename(fingerprint, newName string) error {
	r.mu.Lock()
	m, ok := r.members[fingerprint]
	if !ok {
		r.mu.Unlock()
		return inputErr("not joined")
	}
	if !validName(newName) {
		r.mu.Unlock()
		return inputErr("invalid name")
	}
	if existingFP, taken := r.names[newName]; taken && existingFP != fingerprint {
		r.mu.Unlock()
		return inputErr("name taken")
	}
	old := m.user.Name
	delete(r.names, old)
	m.user.Name = newName
	r.names[newName] = fingerprint
	r.mu.Unlock()
	return nil
}

// validName enforces spec.md §3's display-name character set: printable,
// no whitespace, at least one grapheme.
func validName(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r <= 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}

// SetPref applies mutate to fingerprint's preferences under the room
// lock, since preferences are read concurrently by fan-out filtering
// (quiet mode) in other goroutines' SendPublic/SendEmote calls.
func (r *Room) SetPref(fingerprint string, mutate func(*user.Preferences)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[fingerprint]
	if !ok {
		return inputErr("not joined")
	}
	mutate(&m.user.Preferences)
	return nil
}

// SetIgnore adds or removes targetFP from fingerprint's ignore set.
func (r *Room) SetIgnore(fingerprint, targetFP string, ignore bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[fingerprint]
	if !ok {
		return inputErr("not joined")
	}
	if ignore {
		m.user.Ignore(targetFP)
	} else {
		m.user.Unignore(targetFP)
	}
	return nil
}

// SetAway records an away status for fingerprint; msg is shown to anyone
// who looks the user up with /whois. An empty msg with away=false clears
// the status (/back).
func (r *Room) SetAway(fingerprint string, away bool, msg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[fingerprint]
	if !ok {
		return inputErr("not joined")
	}
	m.user.Away = away
	m.user.AwayText = msg
	return nil
}
