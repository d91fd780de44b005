package obslog

import "testing"

func TestNewLoggerJSON(t *testing.T) {
	log, err := NewLogger(true, "debug")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	log.Info("hello", "key", "value")
}

func TestNewLoggerConsole(t *testing.T) {
	log, err := NewLogger(false, "info")
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	log.Info("hello")
}

func TestParseLevelFallback(t *testing.T) {
	if got := parseLevel("not-a-level"); got.String() != "info" {
		t.Errorf("expected fallback to info, got %v", got)
	}
}
