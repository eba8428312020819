package contract

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Log formats supported by InitLogger.
const (
	ConsoleLogFormat = "console"
	JSONLogFormat    = "json"
)

// InitLogger configures the global zerolog logger.
// Logs always go to w (stderr in the CLI) so stdout stays free for results and the MCP protocol.
func InitLogger(level, format string, w io.Writer) error {
	lvl := zerolog.InfoLevel
	if level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}

	var out io.Writer
	switch strings.ToLower(format) {
	case "", ConsoleLogFormat:
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	case JSONLogFormat:
		out = w
	default:
		return fmt.Errorf("invalid log format %q. must be console or json", format)
	}

	ctx := zerolog.New(out).Level(lvl).With().Timestamp()
	if lvl <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Str("app", "loadcompare").Logger()
	zerolog.SetGlobalLevel(lvl)
	return nil
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	log.Error().Err(err).Msg("Fatal " + msg)
	os.Exit(1)
}

// LogWarn logs a warning message.
func LogWarn(msg string, err error) {
	log.Warn().Err(err).Msg(msg)
}
