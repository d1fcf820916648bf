// Package config owns chatd's CLI surface (spec.md §6) and .env loading,
// generalizing the teacher's bare os.Getenv reads into a real flag set.
package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
)

// Config holds every server-startup setting spec.md §6 names.
type Config struct {
	Host string
	Port int

	HostKeyPath string
	MOTDPath    string
	OplistPath  string
	WhitelistPath string

	// ChatLogPath, fed by --log, rotates the chat transcript (spec.md §6).
	// Operational logging always goes to stderr only -- there is no flag
	// for it.
	ChatLogPath string
	Debug       bool

	ShowVersion bool
}

// Version is set at build time in a real release; kept as a plain
// constant here since chatd has no release pipeline of its own.
const Version = "0.1.0"

// Parse builds a Config from args (normally os.Args[1:]), after loading
// a .env file into the process environment if present. No setting here
// is read from the environment: every value comes from its flag or the
// flag's default.
func Parse(args []string) (*Config, error) {
	_ = godotenv.Load()

	fs := pflag.NewFlagSet("chatd", pflag.ContinueOnError)

	cfg := &Config{}
	fs.StringVar(&cfg.Host, "host", "0.0.0.0", "address to listen on")
	fs.IntVar(&cfg.Port, "port", 2222, "port to listen on")
	fs.StringVar(&cfg.HostKeyPath, "identity", "chatd_host_key", "path to the SSH host private key")
	fs.StringVar(&cfg.MOTDPath, "motd", "", "path to a message-of-the-day file")
	fs.StringVar(&cfg.OplistPath, "oplist", "", "path to an authorized_keys-format operator file")
	fs.StringVar(&cfg.WhitelistPath, "whitelist", "", "path to an authorized_keys-format whitelist file; enables whitelist enforcement")
	fs.StringVar(&cfg.ChatLogPath, "log", "", "path to a rotating chat transcript log file")
	var debugCount int
	fs.CountVarP(&debugCount, "debug", "d", "increase log verbosity; repeatable")
	fs.BoolVarP(&cfg.ShowVersion, "version", "V", false, "print the version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.Debug = debugCount > 0

	return cfg, nil
}

// Addr formats the listen address for net.Listen.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
