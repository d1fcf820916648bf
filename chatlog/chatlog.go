// Package chatlog is chatd's ambient logging layer: a structured
// operational logger writing to stderr plus a separate rotating
// transcript of chat activity (spec.md §6), replacing the teacher's bare
// log.Printf calls. There is no teacher equivalent to generalize from --
// diillson-chatcli (other_examples) is the only repo in the retrieval
// pack pairing zap with lumberjack, so its dual-sink shape is what this
// package follows.
package chatlog

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the server's two-sink logging facility: Ops for operational
// events (connections, errors, policy changes) and Chat for the message
// transcript.
type Logger struct {
	Ops  *zap.SugaredLogger
	Chat *zap.SugaredLogger

	closers []func() error
}

// Options configures where logs go.
type Options struct {
	// ChatLogPath, if set (from --log, spec.md §6), enables the rotating
	// chat transcript. If empty, Chat logging is a no-op logger
	// (transcript disabled). Operational logging has no file sink of its
	// own -- it always goes to stderr only.
	ChatLogPath string
	// Debug lowers the console level to Debug; default is Info.
	Debug bool
}

// rotation policy for the transcript file sink: generous enough for a small chat
// server to run unattended for months without manual log management.
const (
	maxSizeMB    = 100
	maxBackups   = 10
	maxAgeDays   = 28
	compressLogs = true
)

// New builds a Logger from opts. The console encoder is colorized when
// stderr is a TTY (mirroring alexj212-consolekit's fatih/color +
// go-isatty pairing) and plain otherwise, so piping server output to a
// file or log collector doesn't embed escape codes.
func New(opts Options) (*Logger, error) {
	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}

	consoleEncoder := zapcore.NewConsoleEncoder(consoleEncoderConfig())
	ops := zap.New(zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stderr), level)).Sugar()

	var closers []func() error
	chat := zap.NewNop().Sugar()
	if opts.ChatLogPath != "" {
		lj := &lumberjack.Logger{
			Filename:   opts.ChatLogPath,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   compressLogs,
		}
		encoder := zapcore.NewJSONEncoder(fileEncoderConfig())
		chat = zap.New(zapcore.NewCore(encoder, zapcore.AddSync(lj), zapcore.InfoLevel)).Sugar()
		closers = append(closers, lj.Close)
	}

	return &Logger{Ops: ops, Chat: chat, closers: closers}, nil
}

// fileEncoderConfig configures the rotating transcript's JSON sink; it
// switches EncodeTime to ISO-8601, since spec.md §6 requires human-
// readable timestamps in the logs, not zap's default epoch-seconds float.
func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	if isatty.IsTerminal(os.Stderr.Fd()) {
		cfg.EncodeLevel = colorLevelEncoder
	}
	return cfg
}

// colorLevelEncoder colorizes the level field for an interactive
// terminal; plain zapcore.CapitalLevelEncoder is used otherwise.
func colorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var c *color.Color
	switch level {
	case zapcore.DebugLevel:
		c = color.New(color.FgMagenta)
	case zapcore.InfoLevel:
		c = color.New(color.FgGreen)
	case zapcore.WarnLevel:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgRed, color.Bold)
	}
	enc.AppendString(c.Sprint(level.CapitalString()))
}

// Sync flushes buffered log entries and closes rotating file handles.
func (l *Logger) Sync() {
	_ = l.Ops.Sync()
	_ = l.Chat.Sync()
	for _, c := range l.closers {
		_ = c()
	}
}

// Transcript logs one rendered chat line to the rotating transcript,
// stripped of ANSI styling by the caller (theme.Render output includes
// escape codes meant for a terminal, not a log file).
func (l *Logger) Transcript(from, kind, text string) {
	l.Chat.Infow("message", "from", from, "kind", kind, "text", text)
}
