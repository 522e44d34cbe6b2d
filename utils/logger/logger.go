package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/mirakyc/onboarding/config"
	"github.com/sirupsen/logrus"
)

var logger = logrus.New()

func init() {
	logger.Level = logrus.InfoLevel
	logger.Formatter = &formatter{}
	logger.Out = os.Stderr

	Init(*config.ServerConfig())
}

// Init configures the output and the sentry hook for the given server config
func Init(cfg config.ServerConfiguration) {
	logger.ReplaceHooks(make(logrus.LevelHooks))

	if cfg.Debug {
		logger.Level = logrus.DebugLevel
	}

	if cfg.Environment == "production" || cfg.Environment == "staging" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			AttachStacktrace: true,
		})
		if err != nil {
			logger.Errorf("Sentry initialization failed: %v", err)
		} else {
			logger.AddHook(&sentryHook{})
		}
	}

	if cfg.LogFile != "" {
		file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err == nil {
			logger.Out = file
		} else {
			logger.Errorf("Failed to open %s: %v", cfg.LogFile, err)
		}
	}
}

// SetOutput redirects log output, mostly for tests
func SetOutput(out io.Writer) {
	logger.Out = out
}

// SetLogLevel sets the log level for the logger.
func SetLogLevel(level logrus.Level) {
	logger.Level = level
}

// Fields type, used to pass to `WithFields`.
type Fields logrus.Fields

// WithFields returns an entry carrying the given fields
func WithFields(fields Fields) *logrus.Entry {
	return logger.WithFields(logrus.Fields(fields))
}

// ErrorWithFields logs an error with additional context
func ErrorWithFields(err error, fields Fields) {
	logger.WithFields(logrus.Fields(fields)).WithError(err).Error(err.Error())
}

// Debugf logs a message at level Debug
func Debugf(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// Infof logs a message at level Info
func Infof(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// Warnf logs a message at level Warn
func Warnf(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// Errorf logs a message at level Error
func Errorf(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// Fatalf logs a message at level Fatal and exits
func Fatalf(format string, args ...interface{}) {
	logger.Fatalf(format, args...)
}

// sentryHook forwards warnings and errors to sentry with the entry fields attached
type sentryHook struct{}

func (h *sentryHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.WarnLevel, logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel}
}

func (h *sentryHook) Fire(entry *logrus.Entry) error {
	sentry.WithScope(func(scope *sentry.Scope) {
		switch entry.Level {
		case logrus.WarnLevel:
			scope.SetLevel(sentry.LevelWarning)
		case logrus.ErrorLevel:
			scope.SetLevel(sentry.LevelError)
		default:
			scope.SetLevel(sentry.LevelFatal)
		}

		for key, value := range entry.Data {
			switch v := value.(type) {
			case string:
				scope.SetTag(key, v)
			default:
				scope.SetExtra(key, value)
			}
		}

		if err, ok := entry.Data[logrus.ErrorKey].(error); ok {
			sentry.CaptureException(fmt.Errorf("%s: %w", entry.Message, err))
			return
		}
		sentry.CaptureMessage(entry.Message)
	})

	if entry.Level <= logrus.FatalLevel {
		sentry.Flush(2 * time.Second)
	}
	return nil
}

// formatter implements logrus.Formatter interface
type formatter struct {
	prefix string
}

// Format building log message
func (f *formatter) Format(entry *logrus.Entry) ([]byte, error) {
	var sb bytes.Buffer
	sb.WriteString(strings.ToUpper(entry.Level.String()))
	sb.WriteString(" ")
	sb.WriteString(entry.Time.Format(time.RFC3339))
	sb.WriteString(" ")
	sb.WriteString(f.prefix)
	sb.WriteString(entry.Message)

	if len(entry.Data) > 0 {
		keys := make([]string, 0, len(entry.Data))
		for key := range entry.Data {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		sb.WriteString(" [")
		for _, key := range keys {
			sb.WriteString(fmt.Sprintf("%s=%v ", key, entry.Data[key]))
		}
		sb.WriteString("]")
	}
	sb.WriteString("\n")

	return sb.Bytes(), nil
}
