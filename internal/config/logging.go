package config

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// NewLogger builds a logger that writes to w with the given prefix.
func (l LogConfig) NewLogger(w io.Writer, prefix string) (*log.Logger, error) {
	level := log.InfoLevel
	if l.Level != "" {
		var err error
		if level, err = log.ParseLevel(l.Level); err != nil {
			return nil, fmt.Errorf("config: log level: %w", err)
		}
	}

	opts := log.Options{
		ReportTimestamp: true,
		Prefix:          prefix,
		Level:           level,
	}
	if l.Format == "json" {
		opts.Formatter = log.JSONFormatter
	}
	return log.NewWithOptions(w, opts), nil
}
