package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theirongolddev/fburn/internal/config"
)

func TestNew_WritesToFallback(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(config.LogConfig{Level: "debug"}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	l.Debug("hello", "k", "v")
	if !strings.Contains(buf.String(), "hello") {
		t.Errorf("output = %q, want hello", buf.String())
	}
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(config.LogConfig{Level: "warn"}, &buf)
	if err != nil {
		t.Fatal(err)
	}
	l.Info("quiet")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %q", buf.String())
	}
}

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "fburn.log")
	l, err := New(config.LogConfig{Level: "info", File: path}, nil)
	if err != nil {
		t.Fatal(err)
	}
	l.Info("to file", "rows", 3)
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "rows=3") {
		t.Errorf("log file = %q, want rows=3", data)
	}
}
