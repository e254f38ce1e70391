package logging

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

func TestNewLogger_WritesToSinkAndEcho(t *testing.T) {
	var sink bytes.Buffer
	echo := NewEcho(10, nil)
	logger := NewLogger(&sink, echo, slog.LevelInfo).With("component", "test")

	logger.Warn("There was a problem getting steps.", "channel", "steps")

	if !strings.Contains(sink.String(), "level=WARN") {
		t.Errorf("expected leveled sink output, got %q", sink.String())
	}
	if !strings.Contains(sink.String(), "channel=steps") {
		t.Errorf("expected attrs in sink output, got %q", sink.String())
	}
	lines := echo.Lines()
	if len(lines) != 1 || lines[0] != "There was a problem getting steps." {
		t.Fatalf("expected message-only echo line, got %v", lines)
	}
}

func TestNewLogger_LevelFiltersBoth(t *testing.T) {
	var sink bytes.Buffer
	echo := NewEcho(10, nil)
	logger := NewLogger(&sink, echo, slog.LevelWarn)

	logger.Info("quiet")

	if sink.Len() != 0 {
		t.Errorf("expected no sink output, got %q", sink.String())
	}
	if len(echo.Lines()) != 0 {
		t.Errorf("expected no echo lines, got %v", echo.Lines())
	}
}

func TestEcho_DropsOldest(t *testing.T) {
	var mirror bytes.Buffer
	echo := NewEcho(3, &mirror)
	for i := 0; i < 5; i++ {
		echo.Append(fmt.Sprintf("line %d", i))
	}

	lines := echo.Lines()
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "line 2" || lines[2] != "line 4" {
		t.Errorf("unexpected lines: %v", lines)
	}
	if strings.Count(mirror.String(), "\n") != 5 {
		t.Errorf("expected every line mirrored, got %q", mirror.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q): expected %v, got %v", in, want, got)
		}
	}
}
