package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

type Logger interface {
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Fatal(msg string)
	WithField(key string, value interface{}) Logger
}

var (
	log  Logger = NullLogger{}
	once sync.Once
)

// InitLogger points the package logger at ~/.blendgen/blendgen.log. The
// terminal UI owns stdout, so the interactive commands never log there.
// On failure the package logger stays a NullLogger.
func InitLogger(level string) error {
	var initErr error
	once.Do(func() {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			initErr = fmt.Errorf("failed to get user home directory: %w", err)
			return
		}

		appDir := filepath.Join(homeDir, ".blendgen")
		if err := os.MkdirAll(appDir, 0755); err != nil {
			initErr = fmt.Errorf("failed to create %s: %w", appDir, err)
			return
		}

		logFile, err := os.OpenFile(filepath.Join(appDir, "blendgen.log"), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0666)
		if err != nil {
			initErr = fmt.Errorf("failed to open log file: %w", err)
			return
		}

		log = NewWithLevel(logFile, level)
	})
	return initErr
}

// GetLogger returns the logger set up by InitLogger.
func GetLogger() Logger {
	return log
}

// New returns a Logger writing JSON lines to w at debug level.
func New(w io.Writer) Logger {
	return NewWithLevel(w, zerolog.LevelDebugValue)
}

// NewWithLevel drops entries below level. An unknown level means info.
func NewWithLevel(w io.Writer, level string) Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zl := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return &ZerologAdapter{logger: &zl}
}

// ZerologAdapter adapts zerolog.Logger to our Logger interface
type ZerologAdapter struct {
	logger *zerolog.Logger
}

func (z *ZerologAdapter) Debug(msg string) { z.logger.Debug().Msg(msg) }
func (z *ZerologAdapter) Info(msg string)  { z.logger.Info().Msg(msg) }
func (z *ZerologAdapter) Warn(msg string)  { z.logger.Warn().Msg(msg) }
func (z *ZerologAdapter) Error(msg string) { z.logger.Error().Msg(msg) }
func (z *ZerologAdapter) Fatal(msg string) { z.logger.Fatal().Msg(msg) }
func (z *ZerologAdapter) WithField(key string, value interface{}) Logger {
	newLogger := z.logger.With().Interface(key, value).Logger()
	return &ZerologAdapter{logger: &newLogger}
}

type NullLogger struct{}

func (NullLogger) Debug(msg string) {}
func (NullLogger) Info(msg string)  {}
func (NullLogger) Warn(msg string)  {}
func (NullLogger) Error(msg string) {}
func (NullLogger) Fatal(msg string) {}
func (NullLogger) WithField(key string, value interface{}) Logger {
	return NullLogger{}
}

func NewNullLogger() Logger {
	return NullLogger{}
}
