package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"unknown", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLevel(tt.input); got != tt.want {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLoggerFormatsOutput(t *testing.T) {
	tests := []struct {
		name       string
		format     string
		level      string
		assertions func(t *testing.T, output string)
	}{
		{
			name:   "console format includes message",
			format: "console",
			level:  "info",
			assertions: func(t *testing.T, output string) {
				if !strings.Contains(output, "hello") {
					t.Fatalf("expected console output to contain message, got %q", output)
				}
			},
		},
		{
			name:   "json format starts with brace",
			format: "json",
			level:  "debug",
			assertions: func(t *testing.T, output string) {
				if !strings.HasPrefix(strings.TrimSpace(output), "{") {
					t.Fatalf("expected json output to start with '{', got %q", output)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(Config{Format: tt.format, Level: tt.level, Output: &buf})
			log.Info().Msg("hello")

			if buf.Len() == 0 {
				t.Fatalf("expected log output, got empty string")
			}

			tt.assertions(t, buf.String())
		})
	}
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "json", Level: "error", Output: &buf})

	log.Info().Msg("dropped")

	if buf.Len() != 0 {
		t.Fatalf("expected info to be filtered at error level, got %q", buf.String())
	}
}

func TestFromContextAddsFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Level: "info", Output: &buf})

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithUserID(ctx, "user-1")

	log := FromContext(ctx, base)
	log.Info().Msg("hello")

	out := buf.String()
	if !strings.Contains(out, `"request_id":"req-1"`) || !strings.Contains(out, `"user_id":"user-1"`) {
		t.Fatalf("expected request and user ids in output, got %q", out)
	}
}

func TestFromContextChainsEvents(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Level: "info", Output: &buf})

	FromContext(WithUserID(context.Background(), "user-2"), base).Warn().Str("op", "deposit").Msg("rejected")

	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, `"user_id":"user-2"`) {
		t.Fatalf("expected warn entry with user id, got %q", out)
	}
}

func TestFromContextWithoutFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Format: "json", Level: "info", Output: &buf})

	FromContext(context.Background(), base).Info().Msg("plain")

	if strings.Contains(buf.String(), "request_id") || strings.Contains(buf.String(), "user_id") {
		t.Fatalf("expected no context fields, got %q", buf.String())
	}
}

func TestUserIDMissing(t *testing.T) {
	if _, ok := UserID(context.Background()); ok {
		t.Fatal("expected no user id in empty context")
	}
}
