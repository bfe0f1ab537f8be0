package logging

import "testing"

func TestNew_Levels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", "bogus", ""} {
		if logger := New(level); logger == nil || logger.Logger == nil {
			t.Fatalf("New(%q) returned nil logger", level)
		}
	}
}

func TestNewText(t *testing.T) {
	if logger := NewText("debug"); logger == nil {
		t.Fatal("NewText returned nil")
	}
}

func TestWith(t *testing.T) {
	base := Default()
	child := base.With("component", "test")
	if child == nil || child.Logger == nil {
		t.Fatal("With returned nil logger")
	}
	if child == base {
		t.Error("With should return a new logger")
	}
}
