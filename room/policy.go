package room

import (
	"time"
)

// IsOp reports whether fingerprint is a current operator (room member or
// not -- oplist membership is independent of whether the user is online).
func (r *Room) IsOp(fingerprint string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isOpLocked(fingerprint)
}

// ResolveName returns the fingerprint for a display name, if online.
func (r *Room) ResolveName(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fp, ok := r.names[name]
	return fp, ok
}

// Mute toggles whether targetName may send public/private messages.
// The caller (the command layer) must already have verified that the
// invoking user is an operator -- policy checks in spec.md §4.4 live in the command
// registry, which is where permission-denied errors are generated.
func (r *Room) Mute(targetName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.memberByNameLocked(targetName)
	if !ok {
		return inputErr("user not found: " + targetName)
	}
	m.user.Muted = !m.user.Muted
	return nil
}

// Kick disconnects targetName's session immediately.
func (r *Room) Kick(targetName string) error {
	r.mu.Lock()
	m, ok := r.memberByNameLocked(targetName)
	if !ok {
		r.mu.Unlock()
		return inputErr("user not found: " + targetName)
	}
	delete(r.members, m.user.Fingerprint)
	delete(r.names, m.user.Name)
	r.mu.Unlock()

	m.outbox.Close("kicked")
	return nil
}

// Ban kicks the online member targetName and bans its fingerprint; a
// name that is not online is rejected with an Input error. duration ==
// 0 means permanent, per spec.md §4.7's ban-duration rule.
func (r *Room) Ban(targetName string, duration time.Duration) error {
	r.mu.Lock()
	m, ok := r.memberByNameLocked(targetName)
	if !ok {
		r.mu.Unlock()
		return inputErr("user not found: " + targetName)
	}
	fp := m.user.Fingerprint
	var b ban
	if duration > 0 {
		b.expiry = time.Now().Add(duration)
	}
	r.bans[fp] = b
	delete(r.members, fp)
	delete(r.names, m.user.Name)
	r.mu.Unlock()

	m.outbox.Close("banned")
	return nil
}

// BanEntry is one /banlist row.
type BanEntry struct {
	Fingerprint string
	Expiry      time.Time // zero means permanent
}

// BanList returns all active bans, pruning expired ones first.
func (r *Room) BanList() []BanEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneExpiredBansLocked()
	out := make([]BanEntry, 0, len(r.bans))
	for fp, b := range r.bans {
		out = append(out, BanEntry{Fingerprint: fp, Expiry: b.expiry})
	}
	return out
}

// Unban removes a fingerprint from the ban list, if present.
func (r *Room) Unban(fingerprint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.bans, fingerprint)
}

// OplistMode selects union vs. replace semantics for bulk oplist/whitelist
// loads, per spec.md §6.
type OplistMode int

const (
	Merge OplistMode = iota
	Replace
)

// OplistAdd grants operator status to fingerprint.
func (r *Room) OplistAdd(fingerprint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.oplist[fingerprint] = struct{}{}
	if m, ok := r.members[fingerprint]; ok {
		m.user.IsOp = true
	}
}

// OplistRemove revokes operator status from fingerprint.
func (r *Room) OplistRemove(fingerprint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.oplist, fingerprint)
	if m, ok := r.members[fingerprint]; ok {
		m.user.IsOp = false
	}
}

// OplistLoad replaces or merges the oplist with fingerprints, per
// spec.md §4.4's `/oplist load FILE {merge|replace}`.
func (r *Room) OplistLoad(fingerprints []string, mode OplistMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mode == Replace {
		r.oplist = make(map[string]struct{}, len(fingerprints))
	}
	for _, fp := range fingerprints {
		r.oplist[fp] = struct{}{}
	}
	for fp, m := range r.members {
		_, m.user.IsOp = r.oplist[fp]
	}
}

// Oplist returns the current operator fingerprint set.
func (r *Room) Oplist() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.oplist))
	for fp := range r.oplist {
		out = append(out, fp)
	}
	return out
}

// WhitelistAdd grants join access to fingerprint.
func (r *Room) WhitelistAdd(fingerprint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.whitelist[fingerprint] = struct{}{}
}

// WhitelistRemove revokes join access from fingerprint. If the
// fingerprint is currently online, it is not retroactively kicked --
// spec.md §4.7 only enforces the whitelist at join time.
func (r *Room) WhitelistRemove(fingerprint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.whitelist, fingerprint)
}

// WhitelistLoad replaces or merges the whitelist.
func (r *Room) WhitelistLoad(fingerprints []string, mode OplistMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if mode == Replace {
		r.whitelist = make(map[string]struct{}, len(fingerprints))
	}
	for _, fp := range fingerprints {
		r.whitelist[fp] = struct{}{}
	}
}

// WhitelistSetEnabled turns whitelist enforcement on or off.
func (r *Room) WhitelistSetEnabled(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.whitelistOn = on
}

// WhitelistEnabled reports whether whitelist enforcement is active.
func (r *Room) WhitelistEnabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.whitelistOn
}

// Whitelist returns the current whitelist fingerprint set.
func (r *Room) Whitelist() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.whitelist))
	for fp := range r.whitelist {
		out = append(out, fp)
	}
	return out
}
