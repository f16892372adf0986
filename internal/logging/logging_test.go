package logging

import (
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Level
	}{
		{
			name:  "debug",
			input: "debug",
			want:  LevelDebug,
		},
		{
			name:  "info",
			input: "info",
			want:  LevelInfo,
		},
		{
			name:  "warn",
			input: "warn",
			want:  LevelWarn,
		},
		{
			name:  "warning alias",
			input: "warning",
			want:  LevelWarn,
		},
		{
			name:  "error",
			input: "error",
			want:  LevelError,
		},
		{
			name:  "case insensitive",
			input: "DEBUG",
			want:  LevelDebug,
		},
		{
			name:  "empty defaults to info",
			input: "",
			want:  LevelInfo,
		},
		{
			name:  "garbage defaults to info",
			input: "loud",
			want:  LevelInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseLevel(tt.input); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevelOrdering(t *testing.T) {
	levels := []Level{LevelDebug, LevelInfo, LevelWarn, LevelError}
	for i := 0; i < len(levels)-1; i++ {
		if levels[i] >= levels[i+1] {
			t.Errorf("levels out of order: %v >= %v", levels[i], levels[i+1])
		}
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{LevelDebug, "debug"},
		{LevelInfo, "info"},
		{LevelWarn, "warn"},
		{LevelError, "error"},
		{Level(99), "unknown(99)"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.level.String(); got != tt.want {
				t.Errorf("Level.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsDebugEnabledMatchesLevel(t *testing.T) {
	want := GetLevel() <= LevelDebug
	if got := IsDebugEnabled(); got != want {
		t.Errorf("IsDebugEnabled() = %v, GetLevel() = %v", got, GetLevel())
	}
}

// The log functions write through the stdlib logger; the only contract
// worth asserting here is that none of them panic with format args.
func TestLogFunctions(t *testing.T) {
	tests := []struct {
		name string
		fn   func()
	}{
		{"Debug", func() { Debug("probe %s %d", "x", 1) }},
		{"Info", func() { Info("probe %s %d", "x", 1) }},
		{"Warn", func() { Warn("probe %s %d", "x", 1) }},
		{"Error", func() { Error("probe %s %d", "x", 1) }},
		{"Printf", func() { Printf("probe %s %d", "x", 1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r != nil {
					t.Errorf("%s panicked: %v", tt.name, r)
				}
			}()
			tt.fn()
		})
	}
}
