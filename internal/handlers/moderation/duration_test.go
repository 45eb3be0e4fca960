package handlers

import (
	"testing"
	"time"
)

func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		text  string
		want  time.Duration
		found bool
	}{
		{"minutes", "mute him for 20 minutes", 20 * time.Minute, true},
		{"min shorthand", "mute 5min", 5 * time.Minute, true},
		{"mins shorthand", "15 mins please", 15 * time.Minute, true},
		{"single minute", "1 minute", time.Minute, true},
		{"hours", "ban for 2 hours", 2 * time.Hour, true},
		{"single hour", "1 hour", time.Hour, true},
		{"days", "restrict for 3 days", 3 * 24 * time.Hour, true},
		{"case insensitive", "10 MINUTES", 10 * time.Minute, true},
		{"no space", "30minutes", 30 * time.Minute, true},
		{"first occurrence wins", "mute 5 minutes no wait 2 hours", 5 * time.Minute, true},
		{"no duration", "mute him", 0, false},
		{"bare number", "mute 15", 0, false},
		{"unit without number", "some minutes later", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, found := ParseDuration(tt.text)
			if found != tt.found {
				t.Fatalf("ParseDuration(%q) found = %v, want %v", tt.text, found, tt.found)
			}
			if got != tt.want {
				t.Fatalf("ParseDuration(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}
