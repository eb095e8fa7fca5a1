package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"zoneguard-worker-go/internal/config"
)

// EventLogFile is the human-readable event log written under LogDir.
const EventLogFile = "events.log"

const eventTimeLayout = "2006-01-02 15:04:05"

// Setup points the global logger at the console, the event log file and,
// when enabled, the Logdy UI. The returned closer flushes the event log.
func Setup(cfg *config.Config) (io.Closer, error) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	invalidLevel := err != nil || level == zerolog.NoLevel
	if invalidLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	writers := []io.Writer{zerolog.ConsoleWriter{Out: os.Stderr}}

	var file *os.File
	if cfg.LogDir != "" {
		if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log dir: %w", err)
		}
		path := filepath.Join(cfg.LogDir, EventLogFile)
		file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open event log: %w", err)
		}
		writers = append(writers, NewEventWriter(file))
	}

	var logdyURL string
	if cfg.LogdyEnabled {
		w, url := startLogdy(cfg.LogdyHost, cfg.LogdyPort)
		writers = append(writers, w)
		logdyURL = url
	}

	log.Logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger()

	if logdyURL != "" {
		log.Info().Str("url", logdyURL).Msg("Logdy UI available")
	}
	if invalidLevel {
		log.Warn().Str("level", cfg.LogLevel).Msg("Invalid log level, using info")
	}

	if file == nil {
		return nopCloser{}, nil
	}
	return file, nil
}

// NewEventWriter formats entries as "[2006-01-02 15:04:05] - LEVEL - message key=value".
func NewEventWriter(out io.Writer) zerolog.ConsoleWriter {
	return zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    true,
		TimeFormat: eventTimeLayout,
		PartsOrder: []string{zerolog.TimestampFieldName, zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatTimestamp: func(i interface{}) string {
			s, _ := i.(string)
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				s = t.Local().Format(eventTimeLayout)
			}
			return "[" + s + "] -"
		},
		FormatLevel: func(i interface{}) string {
			s, _ := i.(string)
			return strings.ToUpper(s) + " -"
		},
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
