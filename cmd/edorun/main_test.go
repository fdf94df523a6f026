package main

import (
	"log/slog"
	"testing"
)

func TestNewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "INFO"} {
		if _, err := newLogger(level, false); err != nil {
			t.Errorf("newLogger(%q) error = %v", level, err)
		}
	}

	logger, err := newLogger("warn", true)
	if err != nil {
		t.Fatal(err)
	}
	if logger.Enabled(t.Context(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}

	if _, err := newLogger("loud", false); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestUIURL(t *testing.T) {
	tests := map[string]string{
		":8080":          "http://localhost:8080/",
		"127.0.0.1:9000": "http://127.0.0.1:9000/",
	}
	for addr, want := range tests {
		if got := uiURL(addr); got != want {
			t.Errorf("uiURL(%q) = %q, want %q", addr, got, want)
		}
	}
}

func TestStringList(t *testing.T) {
	var l stringList
	l.Set("a.png")
	l.Set("b.png")
	if len(l) != 2 || l.String() != "a.png,b.png" {
		t.Errorf("stringList = %v", l)
	}
}
