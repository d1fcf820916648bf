package command

import (
	"fmt"
	"strings"
	"time"

	"chatd/auth"
	"chatd/room"

	"github.com/dustin/go-humanize"
)

// resolveTargetFingerprint accepts either a currently online display
// name or a literal fingerprint (for operating on offline/banned users),
// trying the room's name table first.
func resolveTargetFingerprint(rm *room.Room, arg string) string {
	if fp, ok := rm.ResolveName(arg); ok {
		return fp
	}
	return arg
}

func registerOps(r *Registry, rm *room.Room) {
	userCompleter := func(ctx Context, args []string, partial string) []string {
		if len(args) > 0 {
			return nil
		}
		var out []string
		for _, n := range rm.Names() {
			if strings.HasPrefix(n, partial) {
				out = append(out, n)
			}
		}
		return sortedStrings(out)
	}

	r.Register(&Descriptor{
		Name: "mute", OpOnly: true,
		Help: "Toggle whether a user may send messages",
		Handler: func(ctx Context, args []string) {
			if len(args) != 1 {
				ctx.replyError("usage: /mute USER")
				return
			}
			if err := rm.Mute(args[0]); err != nil {
				ctx.replyError(err.Error())
				return
			}
			ctx.replySystem("toggled mute for " + args[0])
		},
		Complete: userCompleter,
	})

	r.Register(&Descriptor{
		Name: "kick", OpOnly: true,
		Help: "Disconnect a user's session",
		Handler: func(ctx Context, args []string) {
			if len(args) != 1 {
				ctx.replyError("usage: /kick USER")
				return
			}
			if err := rm.Kick(args[0]); err != nil {
				ctx.replyError(err.Error())
				return
			}
			ctx.replySystem("kicked " + args[0])
		},
		Complete: userCompleter,
	})

	r.Register(&Descriptor{
		Name: "ban", OpOnly: true,
		Help: "Kick and ban a user: /ban USER [DURATION]",
		Handler: func(ctx Context, args []string) {
			if len(args) < 1 || len(args) > 2 {
				ctx.replyError("usage: /ban USER [DURATION]")
				return
			}
			var dur time.Duration
			if len(args) == 2 {
				d, err := time.ParseDuration(args[1])
				if err != nil {
					ctx.replyError("invalid duration: " + args[1])
					return
				}
				dur = d
			}
			if err := rm.Ban(args[0], dur); err != nil {
				ctx.replyError(err.Error())
				return
			}
			if dur > 0 {
				ctx.replySystem(fmt.Sprintf("banned %s for %s", args[0], dur))
			} else {
				ctx.replySystem("banned " + args[0] + " permanently")
			}
		},
		Complete: userCompleter,
	})

	r.Register(&Descriptor{
		Name: "banlist", OpOnly: true,
		Help: "List active bans",
		Handler: func(ctx Context, args []string) {
			bans := rm.BanList()
			if len(bans) == 0 {
				ctx.replySystem("no active bans")
				return
			}
			var sb strings.Builder
			sb.WriteString(fmt.Sprintf("%d active bans:", len(bans)))
			for _, b := range bans {
				sb.WriteString("\n")
				sb.WriteString(b.Fingerprint)
				if b.Expiry.IsZero() {
					sb.WriteString(" (permanent)")
				} else {
					sb.WriteString(" expires " + humanize.Time(b.Expiry))
				}
			}
			ctx.replySystem(sb.String())
		},
	})

	r.Register(&Descriptor{
		Name: "oplist", OpOnly: true,
		Help: "Manage operators: add|remove|load",
		Handler: func(ctx Context, args []string) {
			handleKeysetCommand(ctx, rm, args, keysetOps{
				add:    rm.OplistAdd,
				remove: rm.OplistRemove,
				load:   rm.OplistLoad,
			})
		},
		Complete: subcommandCompleter([]string{"add", "remove", "load"}, userCompleter),
	})

	r.Register(&Descriptor{
		Name: "whitelist", OpOnly: true,
		Help: "Manage the join whitelist: add|remove|load|on|off",
		Handler: func(ctx Context, args []string) {
			if len(args) == 1 && (args[0] == "on" || args[0] == "off") {
				rm.WhitelistSetEnabled(args[0] == "on")
				ctx.replySystem("whitelist " + args[0])
				return
			}
			handleKeysetCommand(ctx, rm, args, keysetOps{
				add:    rm.WhitelistAdd,
				remove: rm.WhitelistRemove,
				load:   rm.WhitelistLoad,
			})
		},
		Complete: subcommandCompleter([]string{"add", "remove", "load", "on", "off"}, userCompleter),
	})
}

type keysetOps struct {
	add    func(fingerprint string)
	remove func(fingerprint string)
	load   func(fingerprints []string, mode room.OplistMode)
}

func handleKeysetCommand(ctx Context, rm *room.Room, args []string, ops keysetOps) {
	if len(args) < 2 {
		ctx.replyError("usage: {add|remove} USER, or load FILE {merge|replace}")
		return
	}
	switch args[0] {
	case "add":
		ops.add(resolveTargetFingerprint(rm, args[1]))
		ctx.replySystem("added " + args[1])
	case "remove":
		ops.remove(resolveTargetFingerprint(rm, args[1]))
		ctx.replySystem("removed " + args[1])
	case "load":
		if len(args) != 3 {
			ctx.replyError("usage: load FILE {merge|replace}")
			return
		}
		mode := room.Merge
		switch args[2] {
		case "merge":
			mode = room.Merge
		case "replace":
			mode = room.Replace
		default:
			ctx.replyError("mode must be merge or replace")
			return
		}
		fps, err := auth.FingerprintsFromFile(args[1])
		if err != nil {
			ctx.replyError("failed to load " + args[1] + ": " + err.Error())
			return
		}
		ops.load(fps, mode)
		ctx.replySystem(fmt.Sprintf("loaded %d keys from %s (%s)", len(fps), args[1], args[2]))
	default:
		ctx.replyError("unknown subcommand: " + args[0])
	}
}

// subcommandCompleter completes the first argument against subs, and
// delegates to argCompleter (typically a user-name completer) for the
// second argument of add/remove.
func subcommandCompleter(subs []string, argCompleter CompleteFunc) CompleteFunc {
	return func(ctx Context, args []string, partial string) []string {
		if len(args) == 0 {
			var out []string
			for _, s := range subs {
				if strings.HasPrefix(s, partial) {
					out = append(out, s)
				}
			}
			return withTrailingSpaceIfSole(sortedStrings(out))
		}
		if len(args) == 1 && (args[0] == "add" || args[0] == "remove") {
			return argCompleter(ctx, nil, partial)
		}
		return nil
	}
}
