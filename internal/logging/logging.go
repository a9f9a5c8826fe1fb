// Package logging builds the zerolog logger used by the hciseq CLI.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/moffa90/go-hciseq/internal/config"
)

// New returns a logger writing to out, and to a rotated JSON file when
// cfg.File is set. The returned closer releases the file and must be called
// on shutdown.
func New(cfg config.LogConfig, out io.Writer) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), nopCloser{}, err
	}
	if level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var console io.Writer = out
	if useConsole(cfg.Format, out) {
		console = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	var closer io.Closer = nopCloser{}
	writer := console
	if cfg.File != "" {
		file := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		writer = zerolog.MultiLevelWriter(console, file)
		closer = file
	}

	logger := zerolog.New(writer).Level(level).With().Timestamp().Logger()
	return logger, closer, nil
}

func useConsole(format string, out io.Writer) bool {
	switch format {
	case "console":
		return true
	case "json":
		return false
	}

	f, ok := out.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// SequencerLogger adapts a zerolog.Logger to sequencer.Logger.
type SequencerLogger struct {
	Logger zerolog.Logger
}

// NewSequencerLogger tags every entry with the given core.
func NewSequencerLogger(logger zerolog.Logger, core string) *SequencerLogger {
	return &SequencerLogger{Logger: logger.With().Str("component", "sequencer").Str("core", core).Logger()}
}

func (l *SequencerLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug().Fields(fields(keysAndValues)).Msg(msg)
}

func (l *SequencerLogger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Info().Fields(fields(keysAndValues)).Msg(msg)
}

func (l *SequencerLogger) Error(msg string, keysAndValues ...interface{}) {
	l.Logger.Error().Fields(fields(keysAndValues)).Msg(msg)
}

// fields drops a trailing key without a value and the duplicate "core" key
// already carried by the logger context.
func fields(kv []interface{}) []interface{} {
	out := make([]interface{}, 0, len(kv))
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok && k == "core" {
			continue
		}
		out = append(out, kv[i], kv[i+1])
	}
	return out
}
