package command

import "chatd/room"

// NewDefaultRegistry builds the registry with every command from
// spec.md §4.4 wired to rm.
func NewDefaultRegistry(rm *room.Room) *Registry {
	r := New()
	registerBasic(r, rm)
	registerMessaging(r, rm)
	registerOps(r, rm)
	return r
}
