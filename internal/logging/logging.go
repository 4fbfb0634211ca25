// Package logging builds the structured logger shared by every command.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/theirongolddev/fburn/internal/config"
)

// Logger wraps the charm logger with the file it may own.
type Logger struct {
	*log.Logger
	file *os.File
}

// New returns a logger writing to cfg.File when set, else to fallback.
// A nil fallback discards output.
func New(cfg config.LogConfig, fallback io.Writer) (*Logger, error) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}

	var (
		w    io.Writer = io.Discard
		file *os.File
	)
	switch {
	case cfg.File != "":
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("creating log dir: %w", err)
		}
		file, err = os.OpenFile(cfg.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		w = file
	case fallback != nil:
		w = fallback
	}

	l := log.NewWithOptions(w, log.Options{
		Level:           level,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "fburn",
	})
	if file != nil {
		l.SetFormatter(log.LogfmtFormatter)
		l.SetTimeFormat(time.RFC3339)
	}
	return &Logger{Logger: l, file: file}, nil
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
