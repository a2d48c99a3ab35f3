package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/fivetwenty-io/logstream-client/internal/constants"
	"github.com/fivetwenty-io/logstream-client/pkg/logstream"
)

// zerologAdapter implements logstream.Logger on top of zerolog.
type zerologAdapter struct {
	logger zerolog.Logger
}

// NewLogger returns a logger writing JSON lines to file, or to stderr when
// file is empty. level is one of debug, info, warn, error.
func NewLogger(level, file string) (logstream.Logger, func(), error) {
	closer := func() {}

	if level == "" {
		level = zerolog.LevelWarnValue
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, closer, fmt.Errorf("parsing log level: %w", err)
	}

	var writer io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}

	if file != "" {
		err = os.MkdirAll(filepath.Dir(file), constants.ConfigDirPerm)
		if err != nil {
			return nil, closer, fmt.Errorf("create logs dir: %w", err)
		}

		// #nosec G304 -- log file chosen by the user
		osFile, err := os.OpenFile(file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, constants.ConfigFilePerm)
		if err != nil {
			return nil, closer, fmt.Errorf("open log file: %w", err)
		}

		closer = func() { _ = osFile.Close() }
		writer = osFile
	}

	logger := zerolog.New(writer).
		With().
		Timestamp().
		Logger().
		Level(lvl)

	return &zerologAdapter{logger: logger}, closer, nil
}

func (l *zerologAdapter) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug().Fields(fields).Msg(msg)
}

func (l *zerologAdapter) Info(msg string, fields map[string]interface{}) {
	l.logger.Info().Fields(fields).Msg(msg)
}

func (l *zerologAdapter) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn().Fields(fields).Msg(msg)
}

func (l *zerologAdapter) Error(msg string, fields map[string]interface{}) {
	l.logger.Error().Fields(fields).Msg(msg)
}
