package api

import (
	"fmt"
	"log/slog"
)

// slogLogger satisfies resty.Logger on top of slog.
type slogLogger struct {
	service string
}

func (l slogLogger) Errorf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...), slog.String("service", l.service))
}

func (l slogLogger) Warnf(format string, v ...interface{}) {
	slog.Warn(fmt.Sprintf(format, v...), slog.String("service", l.service))
}

func (l slogLogger) Debugf(format string, v ...interface{}) {
	slog.Debug(fmt.Sprintf(format, v...), slog.String("service", l.service))
}
