package logging

import (
	"io"
	"log/slog"
	"os"
)

// Init reconfigures the operational logger to write to logFile (if set,
// otherwise stderr), optionally tee'd to stderr when console is true, at
// the given level. Called once at process start from each CLI subcommand
// except version.
func Init(level, logFile string, console bool) error {
	SetLevelFromString(level)

	var out io.Writer = os.Stderr
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		if console {
			out = io.MultiWriter(f, os.Stderr)
		} else {
			out = f
		}
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: logLevel})
	opLogger.Store(slog.New(handler))
	return nil
}
