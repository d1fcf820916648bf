package command

import (
	"fmt"
	"strings"

	"chatd/room"

	"github.com/dustin/go-humanize"
)

func registerMessaging(r *Registry, rm *room.Room) {
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
		Name:    "msg",
		Aliases: []string{"whisper", "tell", "pm"},
		Help:    "Send a private message: /msg USER TEXT",
		Handler: func(ctx Context, args []string) {
			if len(args) < 2 {
				ctx.replyError("usage: /msg USER TEXT")
				return
			}
			if err := rm.SendPrivate(ctx.Fingerprint, args[0], restJoined(args, 1)); err != nil {
				ctx.replyError(err.Error())
			}
		},
		Complete: userCompleter,
	})

	r.Register(&Descriptor{
		Name: "reply",
		Help: "Reply to the last private message you received",
		Handler: func(ctx Context, args []string) {
			target, ok := rm.ReplyToName(ctx.Fingerprint)
			if !ok {
				ctx.replyError("no one to reply to")
				return
			}
			text := restJoined(args, 0)
			if err := rm.SendPrivate(ctx.Fingerprint, target, text); err != nil {
				ctx.replyError(err.Error())
			}
		},
	})

	r.Register(&Descriptor{
		Name: "ignore",
		Help: "Ignore a user, or list who you ignore",
		Handler: func(ctx Context, args []string) {
			if len(args) == 0 {
				names := rm.IgnoredNames(ctx.Fingerprint)
				if len(names) == 0 {
					ctx.replySystem("you are not ignoring anyone")
					return
				}
				ctx.replySystem("ignoring: " + strings.Join(sortedStrings(names), ", "))
				return
			}
			targetFP, ok := rm.ResolveName(args[0])
			if !ok {
				ctx.replyError("user not found: " + args[0])
				return
			}
			rm.SetIgnore(ctx.Fingerprint, targetFP, true)
			ctx.replySystem("ignoring " + args[0])
		},
		Complete: userCompleter,
	})

	r.Register(&Descriptor{
		Name: "unignore",
		Help: "Stop ignoring a user",
		Handler: func(ctx Context, args []string) {
			if len(args) != 1 {
				ctx.replyError("usage: /unignore USER")
				return
			}
			targetFP, ok := rm.ResolveName(args[0])
			if !ok {
				ctx.replyError("user not found: " + args[0])
				return
			}
			rm.SetIgnore(ctx.Fingerprint, targetFP, false)
			ctx.replySystem("no longer ignoring " + args[0])
		},
		Complete: userCompleter,
	})

	r.Register(&Descriptor{
		Name: "whois",
		Help: "Show a user's fingerprint and join time",
		Handler: func(ctx Context, args []string) {
			if len(args) != 1 {
				ctx.replyError("usage: /whois USER")
				return
			}
			info, ok := rm.Whois(args[0])
			if !ok {
				ctx.replyError("user not found: " + args[0])
				return
			}
			msg := fmt.Sprintf("%s: fingerprint=%s joined %s", args[0], info.Fingerprint, humanize.Time(info.JoinedAt))
			if info.IsOp {
				msg += " (operator)"
			}
			if info.Away {
				msg += fmt.Sprintf(" [away: %s]", info.AwayText)
			}
			ctx.replySystem(msg)
		},
		Complete: userCompleter,
	})
}
