package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

var (
	GlobalLogger *log.Logger
	logFile      *os.File
)

/*
Options configures the process-wide logger. File, when set, is opened in
append mode and receives a copy of everything written to stderr.
*/
type Options struct {
	Level           string
	Format          string
	File            string
	Prefix          string
	ReportCaller    bool
	ReportTimestamp bool
}

// Init builds the global logger and installs it as the charmbracelet default.
func Init(opts Options) (*log.Logger, error) {
	level := log.InfoLevel

	if opts.Level != "" {
		parsed, err := log.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}

	formatter, err := parseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	var out io.Writer = os.Stderr

	if opts.File != "" {
		if logFile, err = os.OpenFile(opts.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", opts.File, err)
		}
		out = io.MultiWriter(os.Stderr, logFile)
	}

	GlobalLogger = log.NewWithOptions(out, log.Options{
		Level:           level,
		Formatter:       formatter,
		Prefix:          opts.Prefix,
		ReportCaller:    opts.ReportCaller,
		ReportTimestamp: opts.ReportTimestamp,
		TimeFormat:      time.DateTime,
	})

	log.SetDefault(GlobalLogger)
	GlobalLogger.Debug("logging initialized", "level", level, "format", opts.Format, "file", opts.File)

	return GlobalLogger, nil
}

func parseFormat(format string) (log.Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return log.TextFormatter, nil
	case "json":
		return log.JSONFormatter, nil
	case "logfmt":
		return log.LogfmtFormatter, nil
	default:
		return log.TextFormatter, fmt.Errorf("unknown log format %q", format)
	}
}

// Close closes the log file, if one was opened.
func Close() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}
