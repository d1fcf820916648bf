package chatlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWithoutChatLogPathIsNoop(t *testing.T) {
	l, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Transcript("alice", "public", "hello")
	l.Sync()
}

func TestTranscriptWritesISO8601Timestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.log")
	l, err := New(Options{ChatLogPath: path})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Transcript("alice", "public", "hello room")
	l.Sync()

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading chat log: %v", err)
	}
	line := string(b)
	if !strings.Contains(line, `"from":"alice"`) {
		t.Fatalf("chat log missing sender field: %s", line)
	}
	if !strings.Contains(line, `"text":"hello room"`) {
		t.Fatalf("chat log missing text field: %s", line)
	}
	// ISO-8601 timestamps are quoted strings shaped like
	// 2006-01-02T15:04:05.000Z, not zap's default bare epoch-seconds
	// float (an unquoted number).
	idx := strings.Index(line, `"ts":"`)
	if idx == -1 {
		t.Fatalf("expected a quoted ts field (ISO-8601), got: %s", line)
	}
	rest := line[idx+len(`"ts":"`):]
	end := strings.IndexByte(rest, '"')
	if end == -1 {
		t.Fatalf("malformed ts field: %s", line)
	}
	ts := rest[:end]
	if !strings.Contains(ts, "-") || !strings.Contains(ts, "T") {
		t.Fatalf("ts %q does not look like ISO-8601", ts)
	}
}

func TestOpsLoggerHasNoFileSink(t *testing.T) {
	l, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Ops.Infow("server starting", "addr", "127.0.0.1:2222")
	l.Sync()
}
