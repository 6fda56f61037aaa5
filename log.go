package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/readaloud/utils"
)

func getLogFilePath() string {
	return filepath.Join(utils.StateDir(), "readaloud.log")
}

// setupLog sends logs to a file, since the terminal belongs to the reader.
// Headless commands switch the output to stderr with logToStderr.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)

	logFile := getLogFilePath()
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		// log disabled
		return func() error { return nil }, nil //nolint:nilerr
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) //nolint:gosec
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	log.SetOutput(f)
	log.SetReportTimestamp(true)
	return f.Close, nil
}

func logToStderr() {
	log.SetOutput(os.Stderr)
	log.SetReportTimestamp(false)
}

// setLogLevel applies the configured level. --debug wins over the config.
func setLogLevel(level string, debug bool) {
	if debug {
		log.SetLevel(log.DebugLevel)
		return
	}
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		log.Warn("Unknown log level, using info", "level", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
