package log

import (
	"slices"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"TRACE", LevelTrace},
		{"debug", LevelDebug},
		{"Info", LevelInfo},
		{"warn", LevelWarn},
		{"error", LevelError},
		{"warn-1", LevelWarn - 1},
		{"bogus", DefaultLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelString(t *testing.T) {
	want := []string{"trace", "debug", "info", "warn", "error"}
	if got := slices.Collect(Levels()); !slices.Equal(got, want) {
		t.Errorf("Levels() = %v, want %v", got, want)
	}

	if got := (LevelInfo + 2).String(); got != "info+2" {
		t.Errorf("String() = %q", got)
	}

	for _, name := range want {
		if got := ParseLevel(name).String(); got != name {
			t.Errorf("round trip of %q = %q", name, got)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat(" TEXT ") != FormatText || ParseFormat("json") != FormatJSON {
		t.Error("ParseFormat() failed on known names")
	}

	if ParseFormat("xml") != DefaultFormat {
		t.Error("ParseFormat() accepted an unknown name")
	}

	if got := slices.Collect(Formats()); !slices.Equal(got, []string{"json", "text"}) {
		t.Errorf("Formats() = %v", got)
	}

	if Format(7).String() != "unknown" {
		t.Error("String() of an undefined format")
	}
}
