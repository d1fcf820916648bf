package command

import (
	"fmt"
	"strings"

	"chatd/room"
	"chatd/theme"
	"chatd/user"
)

func registerBasic(r *Registry, rm *room.Room) {
	r.Register(&Descriptor{
		Name: "help",
		Help: "List available commands",
		Handler: func(ctx Context, args []string) {
			var sb strings.Builder
			sb.WriteString("available commands:")
			for _, d := range r.Visible(ctx.IsOp()) {
				sb.WriteString("\n/")
				sb.WriteString(d.Name)
				if d.OpOnly {
					sb.WriteString(" (op)")
				}
				sb.WriteString(" - ")
				sb.WriteString(d.Help)
			}
			ctx.replySystem(sb.String())
		},
	})

	r.Register(&Descriptor{
		Name: "nick",
		Help: "Change your display name",
		Handler: func(ctx Context, args []string) {
			if len(args) != 1 {
				ctx.replyError("usage: /nick NAME")
				return
			}
			if err := rm.Rename(ctx.Fingerprint, args[0]); err != nil {
				ctx.replyError(err.Error())
				return
			}
			ctx.replySystem("you are now known as " + args[0])
		},
	})

	r.Register(&Descriptor{
		Name: "names",
		Help: "List members in the room",
		Handler: func(ctx Context, args []string) {
			names := sortedStrings(rm.Names())
			ctx.replySystem(fmt.Sprintf("%d online: %s", len(names), strings.Join(names, ", ")))
		},
	})

	r.Register(&Descriptor{
		Name: "me",
		Help: "Send an emote",
		Handler: func(ctx Context, args []string) {
			text := restJoined(args, 0)
			if err := rm.SendEmote(ctx.Fingerprint, text); err != nil {
				ctx.replyError(err.Error())
			}
		},
	})

	r.Register(&Descriptor{
		Name: "quiet",
		Help: "Toggle suppression of public events",
		Handler: func(ctx Context, args []string) {
			var now bool
			rm.SetPref(ctx.Fingerprint, func(p *user.Preferences) {
				p.Quiet = !p.Quiet
				now = p.Quiet
			})
			if now {
				ctx.replySystem("quiet mode on")
			} else {
				ctx.replySystem("quiet mode off")
			}
		},
	})

	r.Register(&Descriptor{
		Name: "theme",
		Help: "Set your color theme, or `/theme list`",
		Handler: func(ctx Context, args []string) {
			if len(args) == 1 && args[0] == "list" {
				ctx.replySystem("themes: " + strings.Join(sortedStrings(theme.Names()), ", "))
				return
			}
			if len(args) != 1 {
				ctx.replyError("usage: /theme NAME | /theme list")
				return
			}
			if theme.Lookup(args[0]) == nil {
				ctx.replyError("unknown theme: " + args[0])
				return
			}
			rm.SetPref(ctx.Fingerprint, func(p *user.Preferences) { p.Theme = args[0] })
			ctx.replySystem("theme set to " + args[0])
		},
		Complete: func(ctx Context, args []string, partial string) []string {
			if len(args) > 0 {
				return nil
			}
			var out []string
			for _, n := range append(theme.Names(), "list") {
				if strings.HasPrefix(n, partial) {
					out = append(out, n)
				}
			}
			return sortedStrings(out)
		},
	})

	r.Register(&Descriptor{
		Name: "timestamp",
		Help: "Set timestamp mode: off, time, datetime",
		Handler: func(ctx Context, args []string) {
			if len(args) != 1 {
				ctx.replyError("usage: /timestamp off|time|datetime")
				return
			}
			mode := user.TimestampMode(args[0])
			switch mode {
			case user.TimestampOff, user.TimestampTime, user.TimestampDateTime:
			default:
				ctx.replyError("unknown timestamp mode: " + args[0])
				return
			}
			rm.SetPref(ctx.Fingerprint, func(p *user.Preferences) { p.Timestamp = mode })
			ctx.replySystem("timestamp mode set to " + args[0])
		},
		Complete: func(ctx Context, args []string, partial string) []string {
			if len(args) > 0 {
				return nil
			}
			modes := []string{"off", "time", "datetime"}
			var out []string
			for _, m := range modes {
				if strings.HasPrefix(m, partial) {
					out = append(out, m)
				}
			}
			return out
		},
	})

	r.Register(&Descriptor{
		Name: "motd",
		Help: "Reprint the message of the day",
		Handler: func(ctx Context, args []string) {
			if motd := rm.MOTD(); motd != "" {
				ctx.replySystem(motd)
			}
		},
	})

	r.Register(&Descriptor{
		Name: "away",
		Help: "Set an away status",
		Handler: func(ctx Context, args []string) {
			msg := restJoined(args, 0)
			rm.SetAway(ctx.Fingerprint, true, msg)
			ctx.replySystem("marked away")
		},
	})

	r.Register(&Descriptor{
		Name: "back",
		Help: "Clear your away status",
		Handler: func(ctx Context, args []string) {
			rm.SetAway(ctx.Fingerprint, false, "")
			ctx.replySystem("no longer away")
		},
	})

	quitHandler := func(ctx Context, args []string) {
		ctx.replySystem("bye")
		ctx.Quit()
	}
	r.Register(&Descriptor{Name: "quit", Aliases: []string{"exit"}, Help: "End your session", Handler: quitHandler})
}
