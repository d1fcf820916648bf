// Command chatd runs the SSH chat server. It wires together config,
// logging, the room engine, the command registry, and the SSH listener,
// replacing the teacher's bare main.go prototype (deleted, see
// DESIGN.md) with the real startup sequence SPEC_FULL.md §6 describes.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"chatd/auth"
	"chatd/chatlog"
	"chatd/command"
	"chatd/config"
	"chatd/room"
	"chatd/sshserver"
)

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return // pflag has already printed the usage
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if cfg.ShowVersion {
		fmt.Printf("chatd %s\n", config.Version)
		return
	}

	logger, err := chatlog.New(chatlog.Options{
		ChatLogPath: cfg.ChatLogPath,
		Debug:       cfg.Debug,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "building logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	sauth, err := auth.New(cfg.HostKeyPath)
	if err != nil {
		logger.Ops.Fatalw("loading host key", "err", err)
	}

	motd := readMOTD(cfg.MOTDPath, logger)

	var opts []room.Option
	opts = append(opts, room.WithMOTD(motd))
	if cfg.OplistPath != "" {
		fps, err := auth.FingerprintsFromFile(cfg.OplistPath)
		if err != nil {
			logger.Ops.Fatalw("loading oplist", "path", cfg.OplistPath, "err", err)
		}
		opts = append(opts, room.WithOplist(fps))
	}
	if cfg.WhitelistPath != "" {
		fps, err := auth.FingerprintsFromFile(cfg.WhitelistPath)
		if err != nil {
			logger.Ops.Fatalw("loading whitelist", "path", cfg.WhitelistPath, "err", err)
		}
		opts = append(opts, room.WithWhitelist(fps))
	}

	rm := room.New(opts...)
	registry := command.NewDefaultRegistry(rm)

	if cfg.OplistPath != "" {
		watcher, err := auth.WatchKeyFile(cfg.OplistPath, func(fps []string) {
			rm.OplistLoad(fps, room.Replace)
			logger.Ops.Infow("oplist reloaded", "path", cfg.OplistPath, "count", len(fps))
		})
		if err != nil {
			logger.Ops.Warnw("watching oplist", "path", cfg.OplistPath, "err", err)
		} else {
			defer watcher.Close()
		}
	}
	if cfg.WhitelistPath != "" {
		watcher, err := auth.WatchKeyFile(cfg.WhitelistPath, func(fps []string) {
			rm.WhitelistLoad(fps, room.Replace)
			logger.Ops.Infow("whitelist reloaded", "path", cfg.WhitelistPath, "count", len(fps))
		})
		if err != nil {
			logger.Ops.Warnw("watching whitelist", "path", cfg.WhitelistPath, "err", err)
		} else {
			defer watcher.Close()
		}
	}

	server := sshserver.New(sauth, rm, registry, logger.Ops)
	if err := server.Listen(cfg.Addr()); err != nil {
		logger.Ops.Fatalw("listen", "addr", cfg.Addr(), "err", err)
	}

	printBanner(cfg)
	logger.Ops.Infow("chatd listening", "addr", cfg.Addr())
	server.AcceptConnections()
}

func readMOTD(path string, logger *chatlog.Logger) string {
	if path == "" {
		return ""
	}
	b, err := os.ReadFile(path)
	if err != nil {
		logger.Ops.Warnw("reading motd", "path", path, "err", err)
		return ""
	}
	return string(b)
}

func printBanner(cfg *config.Config) {
	bold := color.New(color.FgCyan, color.Bold)
	bold.Printf("chatd %s\n", config.Version)
	fmt.Printf("  listening on %s\n", cfg.Addr())
}
