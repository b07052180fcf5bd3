package shared

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNormalizeText(t *testing.T) {
	tc := []struct {
		name string
		in   string
		want string
	}{
		{name: "basic normalization", in: "Song Title", want: "song title"},
		{name: "extra whitespace", in: "  Song   Title  ", want: "song title"},
		{name: "mixed case", in: "SoNg TiTlE", want: "song title"},
		{name: "tabs and newlines", in: "Song\tTitle\n", want: "song title"},
		{name: "empty", in: "   ", want: ""},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeText(tt.in)
			if got != tt.want {
				t.Errorf("NormalizeText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMarshalJSON(t *testing.T) {
	v := map[string]int{"tracks": 2}

	compact, err := MarshalJSON(v, false)
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if string(compact) != `{"tracks":2}` {
		t.Errorf("unexpected compact output: %s", compact)
	}

	pretty, err := MarshalJSON(v, true)
	if err != nil {
		t.Fatalf("MarshalJSON failed: %v", err)
	}
	if string(pretty) != "{\n  \"tracks\": 2\n}" {
		t.Errorf("unexpected pretty output: %s", pretty)
	}
}

func TestOpenBrowser(t *testing.T) {
	original := getRuntime
	t.Cleanup(func() { getRuntime = original })

	getRuntime = func() string { return "plan9" }
	err := OpenBrowser("http://127.0.0.1:3000")
	if err == nil || !strings.Contains(err.Error(), "unsupported platform: plan9") {
		t.Errorf("expected unsupported platform error, got %v", err)
	}
}

func TestFormatDuration(t *testing.T) {
	tc := []struct {
		ms   int
		want string
	}{
		{0, "0:00"},
		{1000, "0:01"},
		{61000, "1:01"},
		{334000, "5:34"},
		{-5, "0:00"},
	}

	for _, tt := range tc {
		if got := FormatDuration(tt.ms); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.ms, got, tt.want)
		}
	}
}

func TestLogger(t *testing.T) {
	t.Run("writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "test")
		logger.Info("hello")

		out := buf.String()
		if !strings.Contains(out, "hello") || !strings.Contains(out, "component=test") {
			t.Errorf("unexpected log output: %q", out)
		}
	})

	t.Run("ParseLogLevel", func(t *testing.T) {
		if got := ParseLogLevel("debug"); got != log.DebugLevel {
			t.Errorf("expected debug level, got %v", got)
		}
		if got := ParseLogLevel("nonsense"); got != log.InfoLevel {
			t.Errorf("expected info fallback, got %v", got)
		}
		if got := ParseLogLevel(""); got != log.InfoLevel {
			t.Errorf("expected info default, got %v", got)
		}
	})
}

func TestGenerateID(t *testing.T) {
	a, b := GenerateID(), GenerateID()
	if a == b {
		t.Error("expected distinct IDs")
	}
	if len(a) != 36 {
		t.Errorf("expected uuid string, got %q", a)
	}
}

func TestGenerateState(t *testing.T) {
	a, err := GenerateState()
	if err != nil {
		t.Fatalf("GenerateState failed: %v", err)
	}
	b, _ := GenerateState()
	if a == b {
		t.Error("expected distinct states")
	}
	if len(a) != 32 || strings.ContainsAny(a, "+/=") {
		t.Errorf("expected 32 URL-safe characters, got %q", a)
	}
}

func TestNewFileLogger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vibelist.log")

	logger, f, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.Info("picker started", "entries", 3)
	f.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log: %v", err)
	}
	if !strings.Contains(string(data), "picker started") {
		t.Errorf("expected log line, got %q", data)
	}

	if _, _, err := NewFileLogger(filepath.Join(t.TempDir(), "missing", "x.log")); err == nil {
		t.Error("expected error for missing directory")
	}
}
