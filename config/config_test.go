package config

import "testing"

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != 2222 {
		t.Fatalf("default port = %d, want 2222", cfg.Port)
	}
	if cfg.Addr() != "0.0.0.0:2222" {
		t.Fatalf("Addr() = %q", cfg.Addr())
	}
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse([]string{"--port=2022", "--oplist=ops.keys", "-d"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Port != 2022 {
		t.Fatalf("port = %d, want 2022", cfg.Port)
	}
	if cfg.OplistPath != "ops.keys" {
		t.Fatalf("oplist = %q", cfg.OplistPath)
	}
	if !cfg.Debug {
		t.Fatal("expected -d to set Debug")
	}
}

func TestParseLogFeedsChatLogPath(t *testing.T) {
	cfg, err := Parse([]string{"--log=chat.log"})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.ChatLogPath != "chat.log" {
		t.Fatalf("ChatLogPath = %q, want chat.log", cfg.ChatLogPath)
	}
}
