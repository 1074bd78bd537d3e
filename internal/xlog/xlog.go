// Package xlog builds the zerolog loggers used by the partbench tools: a lipgloss-styled console
// writer on terminals, JSON elsewhere, and an optional rotated log file.
package xlog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	ErrInvalidLevel  = errors.New("invalid log level")
	ErrInvalidFormat = errors.New("invalid log format")
)

// Format selects how log lines are rendered.
type Format string

const (
	FormatAuto    Format = "auto" // console on a terminal, JSON otherwise
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

//
// ---------- Config ----------

// Config describes a logger. File output is always JSON and rotated by lumberjack.
type Config struct {
	Level      string `json:"level" mapstructure:"level"`
	Format     string `json:"format" mapstructure:"format"`
	Style      string `json:"style" mapstructure:"style"`
	File       string `json:"file" mapstructure:"file"`
	MaxSize    int    `json:"max_size" mapstructure:"max_size"`       // MB
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups"` // rotated files
	MaxAge     int    `json:"max_age" mapstructure:"max_age"`         // days
	Compress   bool   `json:"compress" mapstructure:"compress"`
}

// DefaultConfig logs info and above to the console only.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     string(FormatAuto),
		Style:      "dark",
		MaxSize:    10,
		MaxBackups: 5,
		MaxAge:     7,
		Compress:   true,
	}
}

//
// ---------- Parsing ----------

func ParseLevel(s string) (zerolog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel, nil
	case "debug":
		return zerolog.DebugLevel, nil
	case "", "info":
		return zerolog.InfoLevel, nil
	case "warn", "warning":
		return zerolog.WarnLevel, nil
	case "error":
		return zerolog.ErrorLevel, nil
	case "off", "disabled":
		return zerolog.Disabled, nil
	}
	return zerolog.NoLevel, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
}

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatConsole, FormatJSON:
		return f, nil
	}
	return FormatAuto, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
}

//
// ---------- Construction ----------

// New builds a logger writing to out (and to cfg.File when set). The returned closer
// releases the log file; it is a no-op without one.
func New(cfg Config, out io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	format, err := ParseFormat(cfg.Format)
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	if level < zerolog.GlobalLevel() {
		// the global level filters before the logger's own
		zerolog.SetGlobalLevel(level)
	}
	if format == FormatAuto {
		format = FormatJSON
		if IsTerminal(out) {
			format = FormatConsole
		}
	}

	var (
		writers []io.Writer
		closer  io.Closer = nopCloser{}
	)
	if format == FormatConsole {
		styles := DefaultStylesByName(cfg.Style)
		styles.Out = out
		writers = append(writers, ConsoleWriterWithStyles(styles))
	} else {
		writers = append(writers, out)
	}

	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		writers = append(writers, lj)
		closer = lj
	}

	var w io.Writer = writers[0]
	if len(writers) > 1 {
		w = zerolog.MultiLevelWriter(writers...)
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

// IsTerminal reports whether v, a reader or a writer, is a terminal.
func IsTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
