package logging

import (
	"os"
	"path"
	"time"

	"github.com/echoghi/v5/common/config"
	"github.com/lestrrat/go-file-rotatelogs"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
)

const timestampFormat = "2006-01-02 15:04:05.000 Z07:00"

type utcFormatter struct {
	logrus.Formatter
}

func (f utcFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	entry.Time = entry.Time.UTC()
	return f.Formatter.Format(entry)
}

// Setup configures the standard logger for the named program. Output always
// goes to stdout. When a log directory is configured, entries are also written
// to {program}.log there, rotated daily.
func Setup(cfg config.GeneralConfig, program string) error {
	level := cfg.LogLevel
	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return err
	}

	formatter := newFormatter(cfg)
	logrus.SetLevel(lvl)
	logrus.SetFormatter(formatter)
	logrus.SetOutput(os.Stdout)
	logrus.StandardLogger().ReplaceHooks(make(logrus.LevelHooks))

	if cfg.LogDirectory == "" || cfg.LogDirectory == "-" {
		return nil
	}
	hook, err := fileHook(cfg, program, formatter)
	if err != nil {
		return err
	}
	logrus.AddHook(hook)
	return nil
}

func newFormatter(cfg config.GeneralConfig) logrus.Formatter {
	if cfg.JsonLogs {
		return &utcFormatter{&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
		}}
	}
	return &utcFormatter{&logrus.TextFormatter{
		TimestampFormat:  timestampFormat,
		FullTimestamp:    true,
		ForceColors:      cfg.LogColors,
		DisableColors:    !cfg.LogColors,
		QuoteEmptyFields: true,
	}}
}

func fileHook(cfg config.GeneralConfig, program string, formatter logrus.Formatter) (logrus.Hook, error) {
	if err := os.MkdirAll(cfg.LogDirectory, os.ModePerm); err != nil {
		return nil, err
	}

	retention := cfg.LogRetentionDays
	if retention <= 0 {
		retention = 14
	}

	logFile := path.Join(cfg.LogDirectory, program+".log")
	writer, err := rotatelogs.New(
		logFile+".%Y%m%d",
		rotatelogs.WithLinkName(logFile),
		rotatelogs.WithMaxAge(time.Duration(retention)*24*time.Hour),
		rotatelogs.WithRotationTime(24*time.Hour),
	)
	if err != nil {
		return nil, err
	}

	levels := lfshook.WriterMap{}
	for _, l := range logrus.AllLevels {
		levels[l] = writer
	}
	return lfshook.NewHook(levels, formatter), nil
}

// SendToDebugLogger adapts library loggers (ants) onto logrus at debug level.
type SendToDebugLogger struct{}

func (*SendToDebugLogger) Printf(format string, v ...interface{}) {
	logrus.Debugf(format, v...)
}
